package fitter

import (
	"math"

	"godla/domain/absorber"
	"godla/domain/core"
	"godla/internal/config"
	"godla/internal/errors"
	"godla/internal/physics"
	"godla/ports"

	"gonum.org/v1/gonum/stat/distuv"
)

// Inputs are the per-spectrum arrays after fit-masking. All per-pixel slices
// share one length; SearchMask selects the pixels that enter chi-square.
type Inputs struct {
	Wave       []float64
	Flux       []float64
	Ivar       []float64
	Model      [][]float64
	VarLSS     []float64
	SearchMask []bool
	ZQSO       float64
}

// Fitter fits the null continuum model and up to MaxAbsorbers sequential
// absorber components against one spectrum. Stateless across calls; safe to
// share between workers.
type Fitter struct {
	search  config.Search
	prior   config.Prior
	profile *physics.ProfileModel
	samples ports.AbsorberPrior
}

// New creates a fitter.
func New(search config.Search, prior config.Prior, profile *physics.ProfileModel, samples ports.AbsorberPrior) *Fitter {
	return &Fitter{search: search, prior: prior, profile: profile, samples: samples}
}

// workspace holds the trimmed per-pixel arrays one fit works on. Broadened
// profiles are 2*KernelHalfWidth shorter than the input grid, so every
// comparison array is trimmed symmetrically once up front and the null and
// absorber models share the same pixel set.
type workspace struct {
	wave    []float64 // full grid, for profile evaluation
	fluxT   []float64
	weightT []float64
	modelT  [][]float64
	nUsed   int
}

func (f *Fitter) newWorkspace(in Inputs) (*workspace, error) {
	n := len(in.Wave)
	hw := f.profile.Series().KernelHalfWidth
	if len(in.Flux) != n || len(in.Ivar) != n || len(in.VarLSS) != n || len(in.SearchMask) != n {
		return nil, errors.WithCode(errors.CodeDataQuality, core.ErrGridMismatch)
	}
	if n <= 2*hw {
		return nil, errors.WithCode(errors.CodeDataQuality, core.ErrDegenerateModel)
	}

	lo, hi := hw, n-hw
	ws := &workspace{
		wave:  in.Wave,
		fluxT: in.Flux[lo:hi],
	}

	// Weights 1/(1/ivar + var_lss), zeroed outside the search region and on
	// masked pixels.
	ws.weightT = make([]float64, hi-lo)
	for i := lo; i < hi; i++ {
		if !in.SearchMask[i] || in.Ivar[i] <= 0 {
			continue
		}
		ws.weightT[i-lo] = 1 / (1/in.Ivar[i] + in.VarLSS[i])
		ws.nUsed++
	}

	ws.modelT = make([][]float64, len(in.Model))
	for c, row := range in.Model {
		if len(row) != n {
			return nil, errors.WithCode(errors.CodeDataQuality, core.ErrGridMismatch)
		}
		ws.modelT[c] = row[lo:hi]
	}
	return ws, nil
}

// Fit runs the null fit and the greedy sequential absorber search. The k-th
// absorber is accepted only when its total chi-square improvement over the
// (k-1)-absorber model exceeds the configured threshold; rejection stops the
// search with exactly k-1 absorbers.
func (f *Fitter) Fit(in Inputs) (absorber.FitResult, error) {
	ws, err := f.newWorkspace(in)
	if err != nil {
		return absorber.FitResult{}, err
	}

	nullCoeff, nullChi2, err := solveLinear(ws.modelT, ws.fluxT, ws.weightT)
	if err != nil {
		return absorber.FitResult{}, errors.Wrap(err, "null continuum fit")
	}
	dof := ws.nUsed - len(nullCoeff)
	if dof < 1 {
		return absorber.FitResult{}, errors.WithCode(errors.CodeDataQuality, core.ErrDegenerateModel)
	}

	result := absorber.FitResult{
		NullCoeff:   nullCoeff,
		ChiSqPerDOF: nullChi2 / float64(dof),
		Absorbers:   []absorber.Absorber{},
	}

	// Transmission product of the absorbers accepted so far.
	acc := make([]float64, len(ws.fluxT))
	for i := range acc {
		acc[i] = 1
	}

	chiSq := distuv.ChiSquared{K: 3}
	prevChi2 := nullChi2
	for k := 1; k <= f.search.MaxAbsorbers; k++ {
		best, ok := f.searchAbsorber(ws, acc, in.ZQSO)
		if !ok {
			break
		}
		dchi2 := prevChi2 - best.chi2
		if dchi2 <= f.search.DeltaChi2Min {
			break
		}

		zerr, nhierr, covFlags := f.covariance(ws, acc, best.cand)
		result.Absorbers = append(result.Absorbers, absorber.Absorber{
			Candidate: best.cand,
			ZErr:      zerr,
			NHIErr:    nhierr,
			Coeff:     best.coeff,
			DeltaChi2: dchi2,
			PValue:    chiSq.Survival(dchi2),
			Flags:     best.flags | covFlags,
		})

		prof, err := f.profile.VoigtAbsorption(ws.wave, math.Pow(10, best.cand.LogNHI), best.cand.Z, f.search.NumLines, true)
		if err != nil {
			break
		}
		for i := range acc {
			acc[i] *= prof[i]
		}
		prevChi2 = best.chi2
	}

	return result, nil
}

// evalCandidate computes the best-amplitude chi-square of one trial absorber
// multiplied into the continuum and previously accepted profiles.
func (f *Fitter) evalCandidate(ws *workspace, acc []float64, z, logNHI float64) (float64, []float64, error) {
	prof, err := f.profile.VoigtAbsorption(ws.wave, math.Pow(10, logNHI), z, f.search.NumLines, true)
	if err != nil {
		return 0, nil, err
	}
	rows := make([][]float64, len(ws.modelT))
	for c, base := range ws.modelT {
		row := make([]float64, len(base))
		for i := range base {
			row[i] = base[i] * acc[i] * prof[i]
		}
		rows[c] = row
	}
	coeff, chi2, err := solveLinear(rows, ws.fluxT, ws.weightT)
	if err != nil {
		return 0, nil, err
	}
	return chi2, coeff, nil
}
