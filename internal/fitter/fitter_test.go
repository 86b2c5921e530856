package fitter

import (
	"math"
	"testing"

	"godla/internal/continuum"
	"godla/internal/physics"
	"godla/internal/prior"
	"godla/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProfile() *physics.ProfileModel {
	return physics.NewProfileModel(physics.DefaultLymanSeries())
}

// buildInputs assembles fit inputs for a synthetic flux on a fresh grid.
func buildInputs(t *testing.T, flux []float64, wave []float64, zQSO, ivar float64) (Inputs, *continuum.Template) {
	t.Helper()
	bundle := testkit.Bundle()
	rest := make([]float64, len(wave))
	for i, w := range wave {
		rest[i] = w / (1 + zQSO)
	}
	template, err := continuum.Build(bundle, wave, rest, zQSO)
	require.NoError(t, err)

	iv := make([]float64, len(wave))
	mask := make([]bool, len(wave))
	cfg := testkit.Config()
	for i, rf := range rest {
		iv[i] = ivar
		mask[i] = rf >= cfg.Search.MinLam && rf <= cfg.Search.MaxLam
	}
	return Inputs{
		Wave:       wave,
		Flux:       flux,
		Ivar:       iv,
		Model:      template.Model,
		VarLSS:     template.VarLSS,
		SearchMask: mask,
		ZQSO:       zQSO,
	}, template
}

func newTestFitter(t *testing.T) *Fitter {
	t.Helper()
	cfg := testkit.Config()
	samples, err := prior.GenerateSampleSet(cfg.Prior, cfg.Search)
	require.NoError(t, err)
	profile := newTestProfile()
	return New(cfg.Search, cfg.Prior, profile, samples)
}

// TestFit_NullSpectrumYieldsNoAbsorbers verifies a spectrum built from the
// continuum model alone produces zero accepted absorbers.
func TestFit_NullSpectrumYieldsNoAbsorbers(t *testing.T) {
	zQSO := 3.0
	wave := []float64(testkit.Grid(3650, 5400, 1.0))
	flux := testkit.ContinuumFlux(testkit.Bundle(), wave, zQSO, []float64{2.0, 0.5})
	flux = testkit.AddNoise(flux, 0.02, 42)

	in, _ := buildInputs(t, flux, wave, zQSO, 2500)
	f := newTestFitter(t)

	result, err := f.Fit(in)
	require.NoError(t, err)
	assert.Empty(t, result.Absorbers)
	assert.Greater(t, result.ChiSqPerDOF, 0.0)
	assert.Len(t, result.NullCoeff, 2)
	assert.InDelta(t, 2.0, result.NullCoeff[0], 0.05)
	assert.InDelta(t, 0.5, result.NullCoeff[1], 0.05)
}

// TestFit_RecoversKnownAbsorber verifies the end-to-end recovery contract:
// one absorber at z=2.5, logNHI=20.3 comes back within 0.01 in redshift and
// 0.1 dex in column density, and exactly one absorber is accepted.
func TestFit_RecoversKnownAbsorber(t *testing.T) {
	zQSO := 3.0
	wave := []float64(testkit.Grid(3650, 5400, 1.0))
	flux := testkit.ContinuumFlux(testkit.Bundle(), wave, zQSO, []float64{2.0, 0.5})
	flux = testkit.ApplyAbsorber(flux, wave, 20.3, 2.5)
	flux = testkit.AddNoise(flux, 0.02, 7)

	in, _ := buildInputs(t, flux, wave, zQSO, 2500)
	f := newTestFitter(t)

	result, err := f.Fit(in)
	require.NoError(t, err)
	require.Len(t, result.Absorbers, 1)

	abs := result.Absorbers[0]
	assert.InDelta(t, 2.5, abs.Z, 0.01)
	assert.InDelta(t, 20.3, abs.LogNHI, 0.1)
	assert.Greater(t, abs.DeltaChi2, f.search.DeltaChi2Min)
	assert.GreaterOrEqual(t, abs.PValue, 0.0)
	assert.LessOrEqual(t, abs.PValue, 1.0)
}

// TestFit_ThresholdRejectionReturnsFewer verifies a threshold above any
// attainable improvement yields exactly zero absorbers even when a strong
// absorber is present.
func TestFit_ThresholdRejectionReturnsFewer(t *testing.T) {
	zQSO := 3.0
	wave := []float64(testkit.Grid(3650, 5400, 1.0))
	flux := testkit.ContinuumFlux(testkit.Bundle(), wave, zQSO, []float64{2.0, 0.5})
	flux = testkit.ApplyAbsorber(flux, wave, 20.8, 2.5)

	in, _ := buildInputs(t, flux, wave, zQSO, 2500)

	cfg := testkit.Config()
	cfg.Search.DeltaChi2Min = 1e12
	samples, err := prior.GenerateSampleSet(cfg.Prior, cfg.Search)
	require.NoError(t, err)
	f := New(cfg.Search, cfg.Prior, newTestProfile(), samples)

	result, err := f.Fit(in)
	require.NoError(t, err)
	assert.Empty(t, result.Absorbers)
}

// TestFit_NullContinuityAtVanishingNHI verifies the model family is
// continuous at the no-absorber boundary: a candidate at the lowest allowed
// column density and the null model agree on chi-square as nhi -> 0.
func TestFit_NullContinuityAtVanishingNHI(t *testing.T) {
	zQSO := 3.0
	wave := []float64(testkit.Grid(3650, 5400, 1.0))
	flux := testkit.ContinuumFlux(testkit.Bundle(), wave, zQSO, []float64{2.0, 0.5})
	flux = testkit.AddNoise(flux, 0.02, 11)

	in, _ := buildInputs(t, flux, wave, zQSO, 2500)
	f := newTestFitter(t)

	ws, err := f.newWorkspace(in)
	require.NoError(t, err)

	_, nullChi2, err := solveLinear(ws.modelT, ws.fluxT, ws.weightT)
	require.NoError(t, err)

	acc := make([]float64, len(ws.fluxT))
	for i := range acc {
		acc[i] = 1
	}
	// logNHI = 1 is ~19 dex below the prior floor; transmission is 1 to
	// machine precision so the chi-squares must coincide.
	chi2, _, err := f.evalCandidate(ws, acc, 2.5, 1.0)
	require.NoError(t, err)
	assert.InDelta(t, nullChi2, chi2, 1e-6*math.Max(1, nullChi2))
}

// TestFit_DegenerateInputs verifies shape mismatches surface as errors.
func TestFit_DegenerateInputs(t *testing.T) {
	f := newTestFitter(t)
	_, err := f.Fit(Inputs{
		Wave: []float64{1, 2, 3},
		Flux: []float64{1, 2},
	})
	require.Error(t, err)
}
