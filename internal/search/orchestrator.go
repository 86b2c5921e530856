package search

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"godla/domain/absorber"
	"godla/domain/core"
	"godla/domain/spectrum"
	"godla/internal/config"
	"godla/internal/continuum"
	"godla/internal/fitter"
	"godla/internal/physics"
	"godla/ports"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
)

// minUnmaskedFraction is the data-quality floor for the search window: a
// target is processed only while the unmasked pixel fraction is at least
// this value. A window exactly 80% masked sits on the boundary and is still
// processed (the comparison is strict-less-than).
const minUnmaskedFraction = 0.2

// balLines are the transitions masked inside BAL velocity windows. Only the
// Lya and NV windows are recorded for contamination flagging; the others are
// too weak to fake a DLA.
var balLines = []struct {
	name   string
	lambda float64
	record bool
}{
	{"Lya", physics.LyaWavelength, true},
	{"NV", 1240.81, true},
	{"SiIV", 1393.7602, false},
	{"CIV", 1548.2049, false},
}

// balWindow is one recorded observed-frame exclusion window.
type balWindow struct {
	blueEdge float64
	redEdge  float64
}

// BatchResult aggregates one run over a catalog sharing a spectra file.
// Detections is always non-nil; zero detections is an empty slice.
type BatchResult struct {
	RunID      core.RunID
	Detections []absorber.Detection
	Processed  int
	Skipped    int
	Elapsed    time.Duration
}

// Orchestrator iterates a catalog of targets, masks and fits each spectrum,
// and assembles one detection row per accepted absorber.
type Orchestrator struct {
	cfg     *config.Config
	bundle  *continuum.Bundle
	profile *physics.ProfileModel
	fit     *fitter.Fitter
}

// New creates an orchestrator over a model bundle and prior sample set.
func New(cfg *config.Config, bundle *continuum.Bundle, samples ports.AbsorberPrior) *Orchestrator {
	profile := physics.NewProfileModel(physics.DefaultLymanSeries())
	return &Orchestrator{
		cfg:     cfg,
		bundle:  bundle,
		profile: profile,
		fit:     fitter.New(cfg.Search, cfg.Prior, profile, samples),
	}
}

// Run searches every catalog entry against the spectra group. Targets are
// independent; with more than one worker they are fitted concurrently and
// output row order is not guaranteed.
func (o *Orchestrator) Run(ctx context.Context, group *spectrum.Group, catalog []spectrum.CatalogEntry) (*BatchResult, error) {
	start := time.Now()
	if err := group.Wave.Validate(); err != nil {
		return nil, err
	}

	result := &BatchResult{
		RunID:      core.NewRunID(),
		Detections: []absorber.Detection{},
	}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Search.Workers)
	for _, entry := range catalog {
		entry := entry
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows, err := o.processTarget(group, entry, result.RunID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Missing-input and data-quality problems skip the target,
				// never the batch.
				log.Printf("targetid %s skipped: %v", entry.TargetID, err)
				result.Skipped++
				return nil
			}
			result.Processed++
			result.Detections = append(result.Detections, rows...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.Elapsed = time.Since(start)
	log.Printf("completed processing of %d spectra (%d skipped, %d detections) in %s",
		result.Processed, result.Skipped, len(result.Detections), result.Elapsed.Round(10*time.Millisecond))
	return result, nil
}

// processTarget fits one spectrum and returns its detection rows.
func (o *Orchestrator) processTarget(group *spectrum.Group, entry spectrum.CatalogEntry, runID core.RunID) ([]absorber.Detection, error) {
	rec, err := group.Lookup(entry.TargetID)
	if err != nil {
		return nil, err
	}
	if err := rec.Validate(group.Wave); err != nil {
		return nil, err
	}

	// The BAL mask mutates inverse variance; work on a copy so the shared
	// group stays read-only.
	ivar := make([]float64, len(rec.Ivar))
	copy(ivar, rec.Ivar)

	restWave := group.Wave.RestFrame(entry.ZQSO)

	var balWindows []balWindow
	if entry.BAL != nil && entry.BAL.HasFeatures() {
		balWindows = applyBALMask(group.Wave, restWave, ivar, entry.ZQSO, *entry.BAL)
	}

	// Fit mask: rest-frame wavelengths redward of the configured floor.
	var wave, flux, fivar, rf []float64
	for i, w := range restWave {
		if w > o.cfg.Search.MinLam {
			wave = append(wave, group.Wave[i])
			flux = append(flux, rec.Flux[i])
			fivar = append(fivar, ivar[i])
			rf = append(rf, w)
		}
	}
	if len(wave) == 0 {
		return nil, core.ErrWindowMasked
	}

	searchMask := make([]bool, len(rf))
	nSearch, nUnmasked := 0, 0
	for i, w := range rf {
		if w >= o.cfg.Search.MinLam && w <= o.cfg.Search.MaxLam {
			searchMask[i] = true
			nSearch++
			if fivar[i] > 0 {
				nUnmasked++
			}
		}
	}
	if nSearch == 0 || float64(nUnmasked)/float64(nSearch) < minUnmaskedFraction {
		return nil, core.ErrWindowMasked
	}

	template, err := continuum.Build(o.bundle, wave, rf, entry.ZQSO)
	if err != nil {
		return nil, err
	}

	fitResult, err := o.fit.Fit(fitter.Inputs{
		Wave:       wave,
		Flux:       flux,
		Ivar:       fivar,
		Model:      template.Model,
		VarLSS:     template.VarLSS,
		SearchMask: searchMask,
		ZQSO:       entry.ZQSO,
	})
	if err != nil {
		return nil, err
	}
	if len(fitResult.Absorbers) == 0 {
		return nil, nil
	}

	snr := meanSNR(flux, fivar, searchMask)

	rows := make([]absorber.Detection, 0, len(fitResult.Absorbers))
	for n, abs := range fitResult.Absorbers {
		flags := abs.Flags
		center := physics.LyaWavelength * (1 + abs.Z)
		for _, w := range balWindows {
			if center > w.blueEdge && center < w.redEdge {
				flags |= core.FlagPotentialBAL
				break
			}
		}
		rows = append(rows, absorber.Detection{
			TargetID:  entry.TargetID,
			RA:        entry.RA,
			Dec:       entry.Dec,
			ZQSO:      entry.ZQSO,
			SNR:       snr,
			DLAID:     core.NewDLAID(entry.TargetID, n),
			Z:         abs.Z,
			ZErr:      abs.ZErr,
			NHI:       abs.LogNHI,
			NHIErr:    abs.NHIErr,
			Coeff:     absorber.Float64Slice(abs.Coeff),
			DeltaChi2: abs.DeltaChi2,
			PValue:    abs.PValue,
			Flags:     flags,
			RunID:     runID,
		})
	}
	return rows, nil
}

// applyBALMask zeroes inverse variance inside every BAL velocity window and
// returns the observed-frame Lya/NV windows for contamination flagging.
func applyBALMask(wave spectrum.Grid, restWave, ivar []float64, zQSO float64, bal spectrum.BALMeta) []balWindow {
	var windows []balWindow
	for n := 0; n < bal.Count && n < len(bal.VMin) && n < len(bal.VMax); n++ {
		vMax := -bal.VMax[n]/physics.SpeedOfLightKMS + 1
		vMin := -bal.VMin[n]/physics.SpeedOfLightKMS + 1
		for _, line := range balLines {
			lo := line.lambda * vMax
			hi := line.lambda * vMin
			for i, w := range restWave {
				if w > lo && w < hi {
					ivar[i] = 0
				}
			}
			if line.record {
				windows = append(windows, balWindow{
					blueEdge: lo * (1 + zQSO),
					redEdge:  hi * (1 + zQSO),
				})
			}
		}
	}
	return windows
}

// meanSNR is the mean flux*sqrt(ivar) over unmasked search-window pixels.
func meanSNR(flux, ivar []float64, searchMask []bool) float64 {
	var vals []float64
	for i := range flux {
		if searchMask[i] && ivar[i] > 0 {
			vals = append(vals, flux[i]*math.Sqrt(ivar[i]))
		}
	}
	if len(vals) == 0 {
		return 0
	}
	mean, err := stats.Mean(vals)
	if err != nil {
		return 0
	}
	return mean
}
