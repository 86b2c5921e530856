package prior

import (
	"godla/internal/config"
	"godla/ports"

	"gonum.org/v1/gonum/interp"
)

// cdfGridSize controls the resolution of the inverse-CDF table used to turn
// quasi-random points into logNHI draws.
const cdfGridSize = 4096

// GeneratedSampleSet produces the quasi-Monte-Carlo sample set on the fly:
// Halton sequences for the two dimensions, with the logNHI dimension pushed
// through the inverse CDF of the mixture prior. Selected by configuration
// when no precomputed file is supplied.
type GeneratedSampleSet struct {
	sampleSet
	mixture *Mixture
}

var _ ports.AbsorberPrior = (*GeneratedSampleSet)(nil)

// GenerateSampleSet builds a sample set of the configured size. The mixture
// normalization and the inverse-CDF table are computed once here.
func GenerateSampleSet(prior config.Prior, search config.Search) (*GeneratedSampleSet, error) {
	mixture := NewMixture(prior)
	lo, hi := mixture.Domain()

	// Tabulate the CDF of the mixture on a fine grid and invert it.
	xs := make([]float64, cdfGridSize)
	cdf := make([]float64, cdfGridSize)
	step := (hi - lo) / float64(cdfGridSize-1)
	acc := 0.0
	prev := mixture.PDF(lo)
	xs[0] = lo
	for i := 1; i < cdfGridSize; i++ {
		x := lo + float64(i)*step
		p := mixture.PDF(x)
		acc += 0.5 * (prev + p) * step
		xs[i] = x
		cdf[i] = acc
		prev = p
	}
	for i := range cdf {
		cdf[i] /= acc
	}
	// Strictly increasing knots are required to invert; nudge flat spots.
	for i := 1; i < cdfGridSize; i++ {
		if cdf[i] <= cdf[i-1] {
			cdf[i] = cdf[i-1] + 1e-15
		}
	}

	var inv interp.PiecewiseLinear
	if err := inv.Fit(cdf, xs); err != nil {
		return nil, err
	}

	offsets := make([]float64, prior.NumSamples)
	logNHI := make([]float64, prior.NumSamples)
	for i := 0; i < prior.NumSamples; i++ {
		offsets[i] = halton(i+1, 2)
		logNHI[i] = inv.Predict(halton(i+1, 3))
	}

	return &GeneratedSampleSet{
		sampleSet: sampleSet{
			search:  search,
			offsets: offsets,
			logNHI:  logNHI,
		},
		mixture: mixture,
	}, nil
}

// Mixture returns the prior density with its cached normalization.
func (s *GeneratedSampleSet) Mixture() *Mixture { return s.mixture }

// halton returns the i-th element of the Halton sequence in the given base.
func halton(i, base int) float64 {
	f := 1.0
	r := 0.0
	for i > 0 {
		f /= float64(base)
		r += f * float64(i%base)
		i /= base
	}
	return r
}
