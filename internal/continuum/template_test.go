package continuum

import (
	"math"
	"testing"

	"godla/internal/physics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBundle() *Bundle {
	var wave, flat, tilt []float64
	for w := 700.0; w <= 1800.0; w += 2.0 {
		wave = append(wave, w)
		flat = append(flat, 1.0)
		tilt = append(tilt, (w-1215.67)/1000.0)
	}
	return &Bundle{
		PCAWave:  wave,
		PCAComp:  [][]float64{flat, tilt},
		IGMModel: "test",
		IGM: []IGMTransition{
			{Name: "Lya", Line: physics.LyaWavelength, A: 0.0023, B: 3.64},
		},
		VarLSSLya: func(float64) float64 { return 0.05 },
		VarLSSLyb: func(float64) float64 { return 0.08 },
	}
}

func obsGrid(min, max, step float64) (wave, rest []float64) {
	zQSO := 3.0
	for w := min; w <= max; w += step {
		wave = append(wave, w)
		rest = append(rest, w/(1+zQSO))
	}
	return wave, rest
}

// TestBuild_IGMAppliedBluewardOnly verifies the mean-transmission correction
// suppresses the model blueward of Lya and leaves it untouched redward.
func TestBuild_IGMAppliedBluewardOnly(t *testing.T) {
	bundle := testBundle()
	wave, rest := obsGrid(3700, 5500, 1.0)

	template, err := Build(bundle, wave, rest, 3.0)
	require.NoError(t, err)
	require.Equal(t, 2, template.NumComponents())

	for i, rf := range rest {
		flat := template.Model[0][i]
		if rf >= physics.LyaWavelength {
			assert.InDelta(t, 1.0, flat, 1e-12, "redward pixel %d should be uncorrected", i)
		} else {
			assert.Less(t, flat, 1.0, "blueward pixel %d should be suppressed", i)
			assert.Greater(t, flat, 0.0)
		}
	}
}

// TestBuild_IGMStrengthGrowsWithRedshift verifies the forest correction
// deepens with pixel redshift: within the forest, transmission falls as the
// observed wavelength (and so the absorbing redshift) increases.
func TestBuild_IGMStrengthGrowsWithRedshift(t *testing.T) {
	bundle := testBundle()
	wave, rest := obsGrid(3700, 5500, 1.0)

	template, err := Build(bundle, wave, rest, 3.0)
	require.NoError(t, err)

	prev := math.Inf(-1)
	for i, rf := range rest {
		if rf >= physics.LyaWavelength {
			break
		}
		if i > 0 {
			assert.LessOrEqual(t, template.Model[0][i], prev, "transmission should not increase with wavelength inside the forest")
		}
		prev = template.Model[0][i]
	}
}

// TestBuild_VarLSSRegions verifies the variance split by rest-frame region.
func TestBuild_VarLSSRegions(t *testing.T) {
	bundle := testBundle()
	wave, rest := obsGrid(3700, 5500, 1.0)

	template, err := Build(bundle, wave, rest, 3.0)
	require.NoError(t, err)

	for i, rf := range rest {
		switch {
		case rf < physics.LybWavelength:
			assert.Equal(t, 0.08, template.VarLSS[i])
		case rf < physics.LyaWavelength:
			assert.Equal(t, 0.05, template.VarLSS[i])
		default:
			assert.Equal(t, 0.0, template.VarLSS[i])
		}
	}
}

// TestBuild_ResampleMatchesBasis verifies resampling reproduces the basis on
// pixels that land exactly on shifted basis knots.
func TestBuild_ResampleMatchesBasis(t *testing.T) {
	bundle := testBundle()
	// Knot 1500 rest shifted by (1+z)=4 lands at 6000 observed, redward of
	// Lya so no IGM correction applies.
	wave := []float64{6000}
	rest := []float64{1500}

	template, err := Build(bundle, wave, rest, 3.0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, template.Model[0][0], 1e-12)
	assert.InDelta(t, (1500.0-1215.67)/1000.0, template.Model[1][0], 1e-9)
}

// TestBundle_ValidateShape rejects ragged component rows.
func TestBundle_ValidateShape(t *testing.T) {
	b := testBundle()
	b.PCAComp[1] = b.PCAComp[1][:10]
	err := b.Validate()
	require.Error(t, err)
}

// TestBuild_TransmissionFormula spot-checks the exponential correction.
func TestBuild_TransmissionFormula(t *testing.T) {
	bundle := testBundle()
	wave := []float64{4000}
	rest := []float64{1000}

	template, err := Build(bundle, wave, rest, 3.0)
	require.NoError(t, err)

	zpix := 4000.0/physics.LyaWavelength - 1
	want := math.Exp(-0.0023 * math.Pow(1+zpix, 3.64))
	assert.InDelta(t, want, template.Model[0][0], 1e-12)
}
