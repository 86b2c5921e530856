package fitter

import (
	"math"

	"godla/domain/core"
	"godla/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// solveLinear fits the linear amplitudes of the model rows against flux by
// weighted least squares. Pixels with zero weight carry no information but
// stay in the system so row indices line up. Returns the coefficients and
// the weighted chi-square.
func solveLinear(rows [][]float64, flux, weights []float64) ([]float64, float64, error) {
	ncomp := len(rows)
	npix := len(flux)
	if ncomp == 0 || npix == 0 {
		return nil, 0, errors.WithCode(errors.CodeFitError, core.ErrDegenerateModel)
	}

	a := mat.NewDense(npix, ncomp, nil)
	b := mat.NewVecDense(npix, nil)
	for i := 0; i < npix; i++ {
		sw := math.Sqrt(weights[i])
		for c := 0; c < ncomp; c++ {
			a.Set(i, c, sw*rows[c][i])
		}
		b.SetVec(i, sw*flux[i])
	}

	var qr mat.QR
	qr.Factorize(a)
	var sol mat.Dense
	if err := qr.SolveTo(&sol, false, b); err != nil {
		return nil, 0, errors.WithCode(errors.CodeFitError, core.ErrIllConditioned)
	}

	coeff := make([]float64, ncomp)
	for c := 0; c < ncomp; c++ {
		coeff[c] = sol.At(c, 0)
	}

	chi2 := 0.0
	for i := 0; i < npix; i++ {
		m := 0.0
		for c := 0; c < ncomp; c++ {
			m += coeff[c] * rows[c][i]
		}
		r := flux[i] - m
		chi2 += weights[i] * r * r
	}
	if math.IsNaN(chi2) || math.IsInf(chi2, 0) {
		return nil, 0, errors.WithCode(errors.CodeFitError, core.ErrIllConditioned)
	}
	return coeff, chi2, nil
}
