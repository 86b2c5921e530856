package prior

import (
	"math"

	"godla/internal/config"
	"godla/internal/physics"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/stat/distuv"
)

// fitTailMax is the hard upper bound of the fitted-density normalization
// integral, matching the sample-set generator.
const fitTailMax = 25.0

// fittedDensity is the unnormalized column-density density fit to the
// SDSS DLA population: exp(-1.2695 x^2 + 50.863 x - 509.33).
func fittedDensity(logNHI float64) float64 {
	return math.Exp(-1.2695*logNHI*logNHI + 50.863*logNHI - 509.33)
}

// Mixture is the logNHI prior: a data-fitted density blended with a uniform
// tail, p = alpha*fit/Z + (1-alpha)*uniform. The normalization Z is computed
// once at construction and cached; each worker builds its own Mixture, so
// there is no shared mutable state.
type Mixture struct {
	cfg     config.Prior
	norm    float64
	uniform distuv.Uniform
}

// NewMixture builds the prior density with its cached normalization.
func NewMixture(cfg config.Prior) *Mixture {
	z := quad.Fixed(fittedDensity, cfg.FitMinLogNHI, fitTailMax, 200, nil, 0)
	return &Mixture{
		cfg:  cfg,
		norm: z,
		uniform: distuv.Uniform{
			Min: cfg.UniformMinLogNHI,
			Max: cfg.UniformMaxLogNHI,
		},
	}
}

// PDF evaluates the normalized mixture density at logNHI.
func (m *Mixture) PDF(logNHI float64) float64 {
	fit := 0.0
	if logNHI >= m.cfg.FitMinLogNHI && logNHI <= fitTailMax {
		fit = fittedDensity(logNHI) / m.norm
	}
	return m.cfg.Alpha*fit + (1-m.cfg.Alpha)*m.uniform.Prob(logNHI)
}

// Domain returns the support of the mixture.
func (m *Mixture) Domain() (lo, hi float64) {
	lo = math.Min(m.cfg.UniformMinLogNHI, m.cfg.FitMinLogNHI)
	hi = math.Max(m.cfg.UniformMaxLogNHI, fitTailMax)
	return lo, hi
}

// ZRange returns the absorber redshift range placing the Lya transition
// inside the intersection of the observed grid and the rest-frame search
// window, capped at the quasar redshift.
func ZRange(wavelengths []float64, zQSO float64, search config.Search) (zmin, zmax float64) {
	wmin := math.Max(wavelengths[0], (1+zQSO)*search.MinLam)
	wmax := math.Min(wavelengths[len(wavelengths)-1], (1+zQSO)*search.MaxLam)
	zmin = wmin/physics.LyaWavelength - 1
	zmax = math.Min(wmax/physics.LyaWavelength-1, zQSO)
	return zmin, zmax
}

// sampleSet carries the shared sample arrays and the offset-to-redshift
// mapping used by both prior variants.
type sampleSet struct {
	search  config.Search
	offsets []float64
	logNHI  []float64
}

// OffsetSamples returns the quasi-random offsets in [0,1).
func (s *sampleSet) OffsetSamples() []float64 { return s.offsets }

// LogNHISamples returns the column-density samples.
func (s *sampleSet) LogNHISamples() []float64 { return s.logNHI }

// SampleZDLAs maps the offsets linearly onto [zmin, zmax] for one quasar.
func (s *sampleSet) SampleZDLAs(wavelengths []float64, zQSO float64) []float64 {
	zmin, zmax := ZRange(wavelengths, zQSO, s.search)
	out := make([]float64, len(s.offsets))
	for i, off := range s.offsets {
		out[i] = zmin + (zmax-zmin)*off
	}
	return out
}
