package continuum

import (
	"math"

	"godla/domain/core"
	"godla/internal/errors"
	"godla/internal/physics"

	"gonum.org/v1/gonum/interp"
)

// IGMTransition holds the mean-transmission coefficients of one Lyman
// transition for a named IGM model: T = exp(-A (1+z)^B) blueward of Line.
type IGMTransition struct {
	Name string
	Line float64 // rest wavelength, Angstrom
	A    float64
	B    float64
}

// VarFunc maps observed wavelength to an additive large-scale-structure
// variance term.
type VarFunc func(obsWave float64) float64

// Bundle is the precomputed flux-model input: a PCA continuum basis on a
// rest-frame grid, the IGM mean-transmission coefficients, and the two
// variance functions split by rest-frame region. Supplied by an upstream
// loader, never derived here.
type Bundle struct {
	PCAWave   []float64
	PCAComp   [][]float64
	IGMModel  string
	IGM       []IGMTransition
	VarLSSLya VarFunc
	VarLSSLyb VarFunc
}

// Validate checks the basis shape.
func (b *Bundle) Validate() error {
	if len(b.PCAWave) == 0 || len(b.PCAComp) == 0 {
		return errors.New(errors.CodeModelInvalid, "model bundle has empty PCA basis")
	}
	for _, row := range b.PCAComp {
		if len(row) != len(b.PCAWave) {
			return errors.WithCode(errors.CodeModelInvalid, core.ErrGridMismatch)
		}
	}
	return nil
}

// Template is the per-spectrum null model: the PCA basis resampled onto the
// observed grid with mean IGM transmission applied, plus the var_lss array.
type Template struct {
	// Model rows are basis components evaluated per observed pixel.
	Model [][]float64

	// VarLSS is the additive noise term per pixel.
	VarLSS []float64
}

// NumComponents returns the basis size.
func (t *Template) NumComponents() int { return len(t.Model) }

// Build resamples the bundle onto the observed grid for one quasar.
// wave is the observed grid after fit-masking; restWave is wave/(1+zQSO).
func Build(bundle *Bundle, wave, restWave []float64, zQSO float64) (*Template, error) {
	if err := bundle.Validate(); err != nil {
		return nil, err
	}
	if len(wave) != len(restWave) {
		return nil, errors.WithCode(errors.CodeModelInvalid, core.ErrGridMismatch)
	}

	// Shift the rest-frame basis grid to the observed frame.
	obsBasis := make([]float64, len(bundle.PCAWave))
	for i, w := range bundle.PCAWave {
		obsBasis[i] = w * (1 + zQSO)
	}

	model := make([][]float64, len(bundle.PCAComp))
	for c, comp := range bundle.PCAComp {
		var pl interp.PiecewiseLinear
		if err := pl.Fit(obsBasis, comp); err != nil {
			return nil, errors.Wrap(err, "resampling PCA component onto observed grid")
		}
		row := make([]float64, len(wave))
		for i, w := range wave {
			row[i] = pl.Predict(w)
		}
		model[c] = row
	}

	applyIGM(model, bundle.IGM, wave, restWave)

	return &Template{
		Model:  model,
		VarLSS: varLSS(bundle, wave, restWave),
	}, nil
}

// applyIGM multiplies every basis row by the mean forest transmission of
// each transition, for pixels blueward of that transition's rest wavelength.
func applyIGM(model [][]float64, igm []IGMTransition, wave, restWave []float64) {
	for _, tr := range igm {
		for i, rf := range restWave {
			if rf >= tr.Line {
				continue
			}
			zpix := wave[i]/tr.Line - 1
			t := math.Exp(-tr.A * math.Pow(1+zpix, tr.B))
			for c := range model {
				model[c][i] *= t
			}
		}
	}
}

// varLSS selects the Lya-region or Lyb-and-higher variance function per
// pixel by rest-frame wavelength. Transitions above Lyb are folded into the
// Lyb region; their individual impact is minimal.
func varLSS(bundle *Bundle, wave, restWave []float64) []float64 {
	out := make([]float64, len(wave))
	for i, rf := range restWave {
		switch {
		case rf < physics.LybWavelength:
			if bundle.VarLSSLyb != nil {
				out[i] = bundle.VarLSSLyb(wave[i])
			}
		case rf < physics.LyaWavelength:
			if bundle.VarLSSLya != nil {
				out[i] = bundle.VarLSSLya(wave[i])
			}
		}
	}
	return out
}
