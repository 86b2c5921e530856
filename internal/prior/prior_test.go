package prior

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"godla/domain/core"
	"godla/internal/config"
	"godla/internal/physics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPrior() config.Prior {
	return config.Prior{
		NumSamples:       200,
		Alpha:            0.9,
		UniformMinLogNHI: 20.0,
		UniformMaxLogNHI: 23.0,
		FitMinLogNHI:     20.0,
		FitMaxLogNHI:     22.0,
	}
}

func testSearch() config.Search {
	return config.Search{MinLam: 900.0, MaxLam: 1346.0}
}

// TestMixture_Normalized verifies the cached-normalization mixture density
// integrates to one over its support.
func TestMixture_Normalized(t *testing.T) {
	m := NewMixture(testPrior())
	lo, hi := m.Domain()

	n := 20000
	step := (hi - lo) / float64(n)
	total := 0.0
	for i := 0; i <= n; i++ {
		x := lo + float64(i)*step
		w := 1.0
		if i == 0 || i == n {
			w = 0.5
		}
		total += w * m.PDF(x) * step
	}
	assert.InDelta(t, 1.0, total, 1e-3)
}

// TestZRange verifies the redshift range keeps Lya inside both the observed
// grid and the rest-frame search window, capped at the quasar redshift.
func TestZRange(t *testing.T) {
	zQSO := 3.0
	wave := []float64{3700, 5500}

	zmin, zmax := ZRange(wave, zQSO, testSearch())

	// Window floor: (1+3)*900 = 3600 < 3700, so the grid edge binds.
	assert.InDelta(t, 3700/physics.LyaWavelength-1, zmin, 1e-12)
	// Window ceiling (1+3)*1346 = 5384 binds over the grid edge 5500, but
	// the quasar redshift caps the result.
	assert.InDelta(t, math.Min(5384/physics.LyaWavelength-1, zQSO), zmax, 1e-12)
	assert.Less(t, zmin, zmax)
}

// TestGenerateSampleSet verifies sample counts, ranges, and the offset to
// redshift mapping.
func TestGenerateSampleSet(t *testing.T) {
	cfg := testPrior()
	set, err := GenerateSampleSet(cfg, testSearch())
	require.NoError(t, err)

	require.Len(t, set.OffsetSamples(), cfg.NumSamples)
	require.Len(t, set.LogNHISamples(), cfg.NumSamples)

	lo, hi := set.Mixture().Domain()
	for i, off := range set.OffsetSamples() {
		assert.GreaterOrEqual(t, off, 0.0)
		assert.Less(t, off, 1.0)
		nhi := set.LogNHISamples()[i]
		assert.GreaterOrEqual(t, nhi, lo)
		assert.LessOrEqual(t, nhi, hi)
	}

	wave := []float64{3700, 5500}
	zs := set.SampleZDLAs(wave, 3.0)
	zmin, zmax := ZRange(wave, 3.0, testSearch())
	for _, z := range zs {
		assert.GreaterOrEqual(t, z, zmin)
		assert.LessOrEqual(t, z, zmax)
	}
}

// TestGenerateSampleSet_MassAboveUniform verifies the mixture concentrates
// most draws inside the fitted range, as alpha=0.9 demands.
func TestGenerateSampleSet_MassAboveUniform(t *testing.T) {
	cfg := testPrior()
	set, err := GenerateSampleSet(cfg, testSearch())
	require.NoError(t, err)

	inside := 0
	for _, nhi := range set.LogNHISamples() {
		if nhi >= cfg.FitMinLogNHI && nhi <= cfg.FitMaxLogNHI {
			inside++
		}
	}
	frac := float64(inside) / float64(cfg.NumSamples)
	assert.Greater(t, frac, 0.8, "fitted range should hold most of the mass")
}

func writeSampleFile(t *testing.T, f sampleFile) string {
	t.Helper()
	raw, err := json.Marshal(f)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "samples.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

// TestLoadSampleSet_RoundTrip verifies a matching file loads cleanly.
func TestLoadSampleSet_RoundTrip(t *testing.T) {
	cfg := testPrior()
	gen, err := GenerateSampleSet(cfg, testSearch())
	require.NoError(t, err)

	path := writeSampleFile(t, sampleFile{
		Alpha:            cfg.Alpha,
		UniformMinLogNHI: cfg.UniformMinLogNHI,
		UniformMaxLogNHI: cfg.UniformMaxLogNHI,
		FitMinLogNHI:     cfg.FitMinLogNHI,
		FitMaxLogNHI:     cfg.FitMaxLogNHI,
		OffsetSamples:    gen.OffsetSamples(),
		LogNHISamples:    gen.LogNHISamples(),
	})

	set, err := LoadSampleSet(path, cfg, testSearch())
	require.NoError(t, err)
	assert.Equal(t, gen.OffsetSamples(), set.OffsetSamples())
	assert.Equal(t, gen.LogNHISamples(), set.LogNHISamples())
}

// TestLoadSampleSet_ConstantMismatchIsFatal verifies disagreement between
// stored and configured constants fails loudly at load time.
func TestLoadSampleSet_ConstantMismatchIsFatal(t *testing.T) {
	cfg := testPrior()
	gen, err := GenerateSampleSet(cfg, testSearch())
	require.NoError(t, err)

	path := writeSampleFile(t, sampleFile{
		Alpha:            0.97, // generated with a different mixture weight
		UniformMinLogNHI: cfg.UniformMinLogNHI,
		UniformMaxLogNHI: cfg.UniformMaxLogNHI,
		FitMinLogNHI:     cfg.FitMinLogNHI,
		FitMaxLogNHI:     cfg.FitMaxLogNHI,
		OffsetSamples:    gen.OffsetSamples(),
		LogNHISamples:    gen.LogNHISamples(),
	})

	_, err = LoadSampleSet(path, cfg, testSearch())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConfigMismatch)
}

// TestLoadSampleSet_CountMismatchIsFatal verifies the sample count is
// validated against the configuration.
func TestLoadSampleSet_CountMismatchIsFatal(t *testing.T) {
	cfg := testPrior()
	gen, err := GenerateSampleSet(cfg, testSearch())
	require.NoError(t, err)

	path := writeSampleFile(t, sampleFile{
		Alpha:            cfg.Alpha,
		UniformMinLogNHI: cfg.UniformMinLogNHI,
		UniformMaxLogNHI: cfg.UniformMaxLogNHI,
		FitMinLogNHI:     cfg.FitMinLogNHI,
		FitMaxLogNHI:     cfg.FitMaxLogNHI,
		OffsetSamples:    gen.OffsetSamples()[:100],
		LogNHISamples:    gen.LogNHISamples()[:100],
	})

	_, err = LoadSampleSet(path, cfg, testSearch())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConfigMismatch)
}

// TestLoadSampleSet_MissingFile verifies a missing file maps to not-found.
func TestLoadSampleSet_MissingFile(t *testing.T) {
	_, err := LoadSampleSet(filepath.Join(t.TempDir(), "absent.json"), testPrior(), testSearch())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
