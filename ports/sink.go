package ports

import (
	"context"

	"godla/domain/absorber"
	"godla/domain/core"
)

// ResultSink persists the detection rows of one batch run.
type ResultSink interface {
	WriteDetections(ctx context.Context, runID core.RunID, detections []absorber.Detection) error
}
