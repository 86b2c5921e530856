package spectrum

import (
	"godla/domain/core"
)

// Grid is an ordered sequence of strictly increasing observed wavelengths
// (Angstrom) shared by the flux, inverse-variance, and model arrays of one
// spectra file.
type Grid []float64

// Validate checks strict monotonicity.
func (g Grid) Validate() error {
	for i := 1; i < len(g); i++ {
		if g[i] <= g[i-1] {
			return core.ErrGridUnordered
		}
	}
	return nil
}

// RestFrame returns the grid divided by (1 + z).
func (g Grid) RestFrame(z float64) []float64 {
	rf := make([]float64, len(g))
	for i, w := range g {
		rf[i] = w / (1 + z)
	}
	return rf
}

// Record is one target's immutable spectrum input to a fit.
type Record struct {
	TargetID core.TargetID
	RA       float64
	Dec      float64
	ZQSO     float64
	Flux     []float64
	Ivar     []float64
}

// Validate checks index correspondence against the shared grid.
func (r Record) Validate(grid Grid) error {
	if len(r.Flux) != len(grid) || len(r.Ivar) != len(grid) {
		return core.ErrGridMismatch
	}
	return nil
}

// BALMeta holds optional per-target broad-absorption-line metadata: per
// feature, the minimum/maximum velocity extents (km/s) measured on CIV.
type BALMeta struct {
	Count int
	VMin  []float64
	VMax  []float64
}

// HasFeatures reports whether any BAL feature is recorded.
func (b BALMeta) HasFeatures() bool { return b.Count > 0 }

// CatalogEntry is one row of the target catalog accompanying a spectra file.
type CatalogEntry struct {
	TargetID core.TargetID
	RA       float64
	Dec      float64
	ZQSO     float64
	BAL      *BALMeta
}

// Group is the contents of one spectra file: a shared wavelength grid and
// the per-target records keyed by target id.
type Group struct {
	Wave    Grid
	Records map[core.TargetID]Record
}

// Lookup returns the record for a target id.
func (g *Group) Lookup(tid core.TargetID) (Record, error) {
	rec, ok := g.Records[tid]
	if !ok {
		return Record{}, core.NewTargetNotFoundError(tid)
	}
	return rec, nil
}
