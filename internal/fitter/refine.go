package fitter

import (
	"math"
	"sort"

	"godla/domain/absorber"
	"godla/domain/core"
	"godla/internal/prior"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// boundaryEps is the closeness to a parameter bound that raises a boundary
// warning flag.
const boundaryEps = 1e-3

// penaltyScale keeps the simplex inside the allowed parameter box.
const penaltyScale = 1e8

type trial struct {
	cand  absorber.Candidate
	chi2  float64
	coeff []float64
	flags core.FitFlag
}

// bounds is the allowed (z, logNHI) box for one quasar. The logNHI fit range
// is extended at the low end by the uniform-prior tail.
type bounds struct {
	zMin, zMax     float64
	logMin, logMax float64
}

func (f *Fitter) candidateBounds(ws *workspace, zQSO float64) bounds {
	zmin, zmax := prior.ZRange(ws.wave, zQSO, f.search)
	return bounds{
		zMin:   zmin,
		zMax:   zmax,
		logMin: math.Min(f.prior.UniformMinLogNHI, f.prior.FitMinLogNHI),
		logMax: f.prior.FitMaxLogNHI,
	}
}

// searchAbsorber finds the best additional absorber on top of the accepted
// transmission product acc. The coarse stage scores every prior sample
// point; the best mutually separated seeds are refined with Nelder-Mead over
// (z_dla, logNHI) with the linear amplitude solve nested in the objective.
// Returns ok=false when no candidate could be evaluated at all.
func (f *Fitter) searchAbsorber(ws *workspace, acc []float64, zQSO float64) (trial, bool) {
	b := f.candidateBounds(ws, zQSO)
	if b.zMax <= b.zMin {
		return trial{}, false
	}

	zs := f.samples.SampleZDLAs(ws.wave, zQSO)
	logs := f.samples.LogNHISamples()

	type scored struct {
		idx  int
		chi2 float64
	}
	coarse := make([]scored, 0, len(zs))
	for i := range zs {
		if logs[i] < b.logMin || logs[i] > b.logMax {
			continue
		}
		chi2, _, err := f.evalCandidate(ws, acc, zs[i], logs[i])
		if err != nil {
			// Ill-conditioned at this sample point only; keep scanning.
			continue
		}
		coarse = append(coarse, scored{idx: i, chi2: chi2})
	}
	if len(coarse) == 0 {
		return trial{}, false
	}
	sort.Slice(coarse, func(i, j int) bool { return coarse[i].chi2 < coarse[j].chi2 })

	// Seeds: best points separated in redshift, so one deep minimum does
	// not swallow every refinement start.
	seeds := make([]int, 0, f.search.RefinePoints)
	for _, s := range coarse {
		if len(seeds) == f.search.RefinePoints {
			break
		}
		ok := true
		for _, prev := range seeds {
			if math.Abs(zs[prev]-zs[s.idx]) < f.search.MinSeedSeparation {
				ok = false
				break
			}
		}
		if ok {
			seeds = append(seeds, s.idx)
		}
	}

	best := trial{chi2: math.Inf(1)}
	found := false
	for _, idx := range seeds {
		t, ok := f.refine(ws, acc, b, zs[idx], logs[idx])
		if ok && t.chi2 < best.chi2 {
			best = t
			found = true
		}
	}
	if !found {
		return trial{}, false
	}

	if best.cand.Z-b.zMin < boundaryEps || b.zMax-best.cand.Z < boundaryEps {
		best.flags |= core.FlagZBoundary
	}
	if best.cand.LogNHI-b.logMin < boundaryEps || b.logMax-best.cand.LogNHI < boundaryEps {
		best.flags |= core.FlagNHIBoundary
	}
	return best, true
}

// refine runs a bounded Nelder-Mead minimization from one seed.
func (f *Fitter) refine(ws *workspace, acc []float64, b bounds, z0, log0 float64) (trial, bool) {
	objective := func(x []float64) float64 {
		z, logNHI := x[0], x[1]
		penalty := 0.0
		if z < b.zMin {
			penalty += (b.zMin - z) * (b.zMin - z)
			z = b.zMin
		} else if z > b.zMax {
			penalty += (z - b.zMax) * (z - b.zMax)
			z = b.zMax
		}
		if logNHI < b.logMin {
			penalty += (b.logMin - logNHI) * (b.logMin - logNHI)
			logNHI = b.logMin
		} else if logNHI > b.logMax {
			penalty += (logNHI - b.logMax) * (logNHI - b.logMax)
			logNHI = b.logMax
		}
		chi2, _, err := f.evalCandidate(ws, acc, z, logNHI)
		if err != nil {
			return math.Inf(1)
		}
		return chi2 + penaltyScale*penalty
	}

	problem := optimize.Problem{Func: objective}
	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-6,
			Iterations: 50,
		},
		MajorIterations: 400,
	}

	var flags core.FitFlag
	result, err := optimize.Minimize(problem, []float64{z0, log0}, settings, &optimize.NelderMead{})
	if err != nil || result == nil {
		// Non-convergence degrades to the seed point, flagged.
		flags |= core.FlagNoConverge
		chi2, coeff, evalErr := f.evalCandidate(ws, acc, z0, log0)
		if evalErr != nil {
			return trial{}, false
		}
		return trial{
			cand:  absorber.Candidate{Z: z0, LogNHI: log0},
			chi2:  chi2,
			coeff: coeff,
			flags: flags,
		}, true
	}
	if result.Status != optimize.FunctionConvergence && result.Status != optimize.Success {
		flags |= core.FlagNoConverge
	}

	z := clamp(result.X[0], b.zMin, b.zMax)
	logNHI := clamp(result.X[1], b.logMin, b.logMax)
	chi2, coeff, err := f.evalCandidate(ws, acc, z, logNHI)
	if err != nil {
		return trial{}, false
	}
	return trial{
		cand:  absorber.Candidate{Z: z, LogNHI: logNHI},
		chi2:  chi2,
		coeff: coeff,
		flags: flags,
	}, true
}

// covariance estimates (z, logNHI) uncertainties from the chi-square
// curvature at the optimum: cov = 2 H^-1. A non-positive-definite Hessian
// is recorded as a warning, never an error.
func (f *Fitter) covariance(ws *workspace, acc []float64, cand absorber.Candidate) (zerr, nhierr float64, flags core.FitFlag) {
	chi2At := func(x []float64) float64 {
		chi2, _, err := f.evalCandidate(ws, acc, x[0], x[1])
		if err != nil {
			return math.Inf(1)
		}
		return chi2
	}

	h := mat.NewSymDense(2, nil)
	fd.Hessian(h, chi2At, []float64{cand.Z, cand.LogNHI}, nil)

	var chol mat.Cholesky
	if ok := chol.Factorize(h); !ok {
		return 0, 0, core.FlagBadErrorEstimate
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return 0, 0, core.FlagBadErrorEstimate
	}
	vz := 2 * inv.At(0, 0)
	vn := 2 * inv.At(1, 1)
	if vz <= 0 || vn <= 0 || math.IsNaN(vz) || math.IsNaN(vn) {
		return 0, 0, core.FlagBadErrorEstimate
	}
	return math.Sqrt(vz), math.Sqrt(vn), core.FlagNone
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
