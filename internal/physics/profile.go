package physics

import (
	"math"

	"godla/domain/core"
	"godla/internal/errors"
)

// ProfileModel computes multi-transition Voigt absorption profiles on an
// observed wavelength grid. It is stateless beyond its immutable series
// configuration and safe for concurrent use.
type ProfileModel struct {
	series *LymanSeries
}

// NewProfileModel creates a profile model over the given series.
func NewProfileModel(series *LymanSeries) *ProfileModel {
	return &ProfileModel{series: series}
}

// Series returns the atomic-data configuration.
func (m *ProfileModel) Series() *LymanSeries { return m.series }

// voigt evaluates the Voigt line shape
//
//	V(x; sigma, gamma) = Re[w((x + i gamma) / (sqrt(2) sigma))] / (sqrt(2 pi) sigma)
func voigt(x, sigma, gamma float64) float64 {
	z := complex(x/(math.Sqrt2*sigma), gamma/(math.Sqrt2*sigma))
	return real(faddeeva(z)) / (math.Sqrt(2*math.Pi) * sigma)
}

// VoigtAbsorption returns the fractional transmission of one absorber with
// column density nhi (cm^-2) at redshift zDLA, evaluated on the observed
// wavelengths (Angstrom). The first numLines series members contribute.
//
// With broaden set, the raw per-pixel profile is convolved with the
// instrumental kernel and the result is 2*KernelHalfWidth pixels shorter
// than the input; callers must trim their comparison window to match.
func (m *ProfileModel) VoigtAbsorption(wavelengths []float64, nhi, zDLA float64, numLines int, broaden bool) ([]float64, error) {
	if math.IsNaN(nhi) || math.IsInf(nhi, 0) || nhi < 0 {
		return nil, errors.WithCode(errors.CodeFitError, core.ErrDegenerateModel)
	}
	if numLines > m.series.NumTransitions() {
		numLines = m.series.NumTransitions()
	}

	n := len(wavelengths)
	raw := make([]float64, n)

	if numLines == 0 || nhi == 0 {
		// No optical depth anywhere: transmission is identically one.
		for i := range raw {
			raw[i] = 1
		}
		if broaden {
			return raw[:n-2*m.series.KernelHalfWidth], nil
		}
		return raw, nil
	}

	// Velocity multipliers per transition, observed Angstrom to cm/s.
	mult := make([]float64, numLines)
	for l := 0; l < numLines; l++ {
		mult[l] = SpeedOfLight / (m.series.TransitionWavelengths[l] * (1 + zDLA)) / CMToAngstrom
	}

	for i, w := range wavelengths {
		tau := 0.0
		for l := 0; l < numLines; l++ {
			velocity := w*mult[l] - SpeedOfLight
			v := voigt(velocity, m.series.SigmaThermal, m.series.LorentzWidths[l])
			if math.IsNaN(v) {
				continue
			}
			tau -= m.series.LeadingConstants[l] * v
		}
		raw[i] = math.Exp(nhi * tau)
	}

	if !broaden {
		return raw, nil
	}
	return m.broadenValid(raw), nil
}

// broadenValid convolves with the instrumental kernel in "valid" mode: the
// output keeps only pixels where the kernel fits entirely inside the input.
func (m *ProfileModel) broadenValid(raw []float64) []float64 {
	hw := m.series.KernelHalfWidth
	width := 2*hw + 1
	out := make([]float64, len(raw)-2*hw)
	for i := range out {
		acc := 0.0
		for k := 0; k < width; k++ {
			acc += raw[i+k] * m.series.Kernel[k]
		}
		out[i] = acc
	}
	return out
}
