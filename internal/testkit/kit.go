// Package testkit builds synthetic spectra and model bundles for tests.
package testkit

import (
	"math"
	"math/rand"

	"godla/domain/core"
	"godla/domain/spectrum"
	"godla/internal/config"
	"godla/internal/continuum"
	"godla/internal/physics"
)

// Bundle returns a small two-component model bundle on a rest grid wide
// enough to cover the search window at any test redshift.
func Bundle() *continuum.Bundle {
	var wave, flat, tilt []float64
	for w := 700.0; w <= 1800.0; w += 2.0 {
		wave = append(wave, w)
		flat = append(flat, 1.0)
		tilt = append(tilt, (w-1215.67)/1000.0)
	}
	return &continuum.Bundle{
		PCAWave:  wave,
		PCAComp:  [][]float64{flat, tilt},
		IGMModel: "test",
		IGM: []continuum.IGMTransition{
			{Name: "Lya", Line: physics.LyaWavelength, A: 0.0023, B: 3.64},
			{Name: "Lyb", Line: physics.LybWavelength, A: 0.00045, B: 3.64},
		},
		VarLSSLya: func(float64) float64 { return 0.05 },
		VarLSSLyb: func(float64) float64 { return 0.08 },
	}
}

// Config returns a search configuration sized for fast tests.
func Config() *config.Config {
	return &config.Config{
		Search: config.Search{
			MinLam:            900.0,
			MaxLam:            1346.0,
			DeltaChi2Min:      25.0,
			MaxAbsorbers:      3,
			NumLines:          3,
			RefinePoints:      3,
			MinSeedSeparation: 0.05,
			Workers:           2,
		},
		Prior: config.Prior{
			NumSamples:       400,
			Alpha:            0.9,
			UniformMinLogNHI: 20.0,
			UniformMaxLogNHI: 23.0,
			FitMinLogNHI:     20.0,
			FitMaxLogNHI:     22.0,
		},
	}
}

// Grid builds a linear observed-wavelength grid.
func Grid(min, max, step float64) spectrum.Grid {
	var g spectrum.Grid
	for w := min; w <= max; w += step {
		g = append(g, w)
	}
	return g
}

// ContinuumFlux evaluates the null model (basis x coefficients) on the
// observed grid exactly as the fitter will model it.
func ContinuumFlux(bundle *continuum.Bundle, wave spectrum.Grid, zQSO float64, coeff []float64) []float64 {
	template, err := continuum.Build(bundle, wave, wave.RestFrame(zQSO), zQSO)
	if err != nil {
		panic(err)
	}
	flux := make([]float64, len(wave))
	for i := range wave {
		for c := range coeff {
			flux[i] += coeff[c] * template.Model[c][i]
		}
	}
	return flux
}

// ApplyAbsorber multiplies an unbroadened absorption profile into flux.
func ApplyAbsorber(flux []float64, wave spectrum.Grid, logNHI, zDLA float64) []float64 {
	model := physics.NewProfileModel(physics.DefaultLymanSeries())
	prof, err := model.VoigtAbsorption(wave, math.Pow(10, logNHI), zDLA, 3, false)
	if err != nil {
		panic(err)
	}
	out := make([]float64, len(flux))
	for i := range flux {
		out[i] = flux[i] * prof[i]
	}
	return out
}

// AddNoise perturbs flux with seeded Gaussian noise of the given sigma.
func AddNoise(flux []float64, sigma float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, len(flux))
	for i := range flux {
		out[i] = flux[i] + sigma*rng.NormFloat64()
	}
	return out
}

// Record assembles a spectrum record with constant inverse variance.
func Record(tid core.TargetID, zQSO float64, flux []float64, ivar float64) spectrum.Record {
	iv := make([]float64, len(flux))
	for i := range iv {
		iv[i] = ivar
	}
	return spectrum.Record{
		TargetID: tid,
		RA:       150.0,
		Dec:      2.5,
		ZQSO:     zQSO,
		Flux:     flux,
		Ivar:     iv,
	}
}

// Group wraps records into a spectra group on a shared grid.
func Group(wave spectrum.Grid, records ...spectrum.Record) *spectrum.Group {
	m := make(map[core.TargetID]spectrum.Record, len(records))
	for _, r := range records {
		m[r.TargetID] = r
	}
	return &spectrum.Group{Wave: wave, Records: m}
}
