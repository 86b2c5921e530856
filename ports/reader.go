package ports

import (
	"context"

	"godla/domain/core"
	"godla/domain/spectrum"
)

// SpectrumReader provides read access to one spectra file's contents,
// restricted to the requested target ids. Reading, coadding, and resampling
// survey data onto a common grid happen upstream of this port.
type SpectrumReader interface {
	ReadGroup(ctx context.Context, path string, tids []core.TargetID) (*spectrum.Group, error)
}
