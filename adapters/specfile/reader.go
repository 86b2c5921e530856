// Package specfile reads spectra groups and target catalogs from the JSON
// interchange format. Survey-specific reading, coadding, and resampling onto
// a common grid happen upstream; this adapter only loads the result.
package specfile

import (
	"context"
	"encoding/json"
	"os"

	"godla/domain/core"
	"godla/domain/spectrum"
	"godla/internal/errors"
	"godla/ports"
)

// targetRecord is one spectrum in the spectra file.
type targetRecord struct {
	TargetID core.TargetID `json:"targetid"`
	RA       float64       `json:"ra"`
	Dec      float64       `json:"dec"`
	ZQSO     float64       `json:"zqso"`
	Flux     []float64     `json:"flux"`
	Ivar     []float64     `json:"ivar"`
}

// groupFile is the on-disk layout of one spectra file.
type groupFile struct {
	Wave    []float64      `json:"wave"`
	Targets []targetRecord `json:"targets"`
}

// Reader loads spectra groups from JSON files.
type Reader struct{}

// NewReader creates a spectra file reader.
func NewReader() *Reader { return &Reader{} }

// ReadGroup loads the shared grid and the requested targets from one spectra
// file. Requested ids absent from the file are left out of the group; the
// orchestrator skips them at lookup time.
func (r *Reader) ReadGroup(ctx context.Context, path string, tids []core.TargetID) (*spectrum.Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithCode(errors.CodeNotFound, core.ErrFileNotFound)
		}
		return nil, errors.Wrapf(err, "reading spectra file %s", path)
	}

	var file groupFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, errors.Wrapf(errors.WithCode(errors.CodeDataQuality, err),
			"parsing spectra file %s", path)
	}

	group := &spectrum.Group{
		Wave:    spectrum.Grid(file.Wave),
		Records: make(map[core.TargetID]spectrum.Record, len(tids)),
	}
	if err := group.Wave.Validate(); err != nil {
		return nil, errors.Wrapf(err, "spectra file %s grid", path)
	}

	wanted := make(map[core.TargetID]bool, len(tids))
	for _, tid := range tids {
		wanted[tid] = true
	}
	for _, t := range file.Targets {
		if !wanted[t.TargetID] {
			continue
		}
		rec := spectrum.Record{
			TargetID: t.TargetID,
			RA:       t.RA,
			Dec:      t.Dec,
			ZQSO:     t.ZQSO,
			Flux:     t.Flux,
			Ivar:     t.Ivar,
		}
		if err := rec.Validate(group.Wave); err != nil {
			return nil, errors.Wrapf(err, "targetid %s", t.TargetID)
		}
		group.Records[t.TargetID] = rec
	}
	return group, nil
}

var _ ports.SpectrumReader = (*Reader)(nil)

// catalogRecord is one catalog row; BAL metadata is optional.
type catalogRecord struct {
	TargetID core.TargetID `json:"targetid"`
	RA       float64       `json:"ra"`
	Dec      float64       `json:"dec"`
	ZQSO     float64       `json:"zqso"`
	BAL      *struct {
		Count int       `json:"count"`
		VMin  []float64 `json:"vmin"`
		VMax  []float64 `json:"vmax"`
	} `json:"bal,omitempty"`
}

// ReadCatalog loads the target catalog for one batch.
func ReadCatalog(path string) ([]spectrum.CatalogEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithCode(errors.CodeNotFound, core.ErrFileNotFound)
		}
		return nil, errors.Wrapf(err, "reading catalog file %s", path)
	}

	var records []catalogRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, errors.Wrapf(errors.WithCode(errors.CodeDataQuality, err),
			"parsing catalog file %s", path)
	}

	entries := make([]spectrum.CatalogEntry, 0, len(records))
	for _, r := range records {
		entry := spectrum.CatalogEntry{
			TargetID: r.TargetID,
			RA:       r.RA,
			Dec:      r.Dec,
			ZQSO:     r.ZQSO,
		}
		if r.BAL != nil {
			entry.BAL = &spectrum.BALMeta{
				Count: r.BAL.Count,
				VMin:  r.BAL.VMin,
				VMax:  r.BAL.VMax,
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
