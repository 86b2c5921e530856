// Package postgres persists detection rows for batch runs.
package postgres

import (
	"context"

	"godla/domain/absorber"
	"godla/domain/core"
	"godla/internal/errors"
	"godla/ports"

	"github.com/jmoiron/sqlx"
)

// Schema creates the detections table. Applied by the CLI before the first
// write; IF NOT EXISTS keeps reruns idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS dla_detections (
	id         BIGSERIAL PRIMARY KEY,
	targetid   BIGINT           NOT NULL,
	ra         DOUBLE PRECISION NOT NULL,
	dec        DOUBLE PRECISION NOT NULL,
	zqso       DOUBLE PRECISION NOT NULL,
	snr        DOUBLE PRECISION NOT NULL,
	dlaid      TEXT             NOT NULL,
	z_dla      DOUBLE PRECISION NOT NULL,
	z_dla_err  DOUBLE PRECISION NOT NULL,
	nhi        DOUBLE PRECISION NOT NULL,
	nhi_err    DOUBLE PRECISION NOT NULL,
	coeff      JSONB            NOT NULL,
	deltachi2  DOUBLE PRECISION NOT NULL,
	pvalue     DOUBLE PRECISION NOT NULL,
	flags      INTEGER          NOT NULL,
	run_id     TEXT             NOT NULL,
	created_at TIMESTAMPTZ      NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_dla_detections_run_id ON dla_detections (run_id);
CREATE INDEX IF NOT EXISTS idx_dla_detections_targetid ON dla_detections (targetid);
`

// DetectionsAdapter writes detection rows to PostgreSQL.
type DetectionsAdapter struct {
	db *sqlx.DB
}

// NewDetectionsAdapter creates a detections adapter over an open connection.
func NewDetectionsAdapter(db *sqlx.DB) *DetectionsAdapter {
	return &DetectionsAdapter{db: db}
}

// EnsureSchema applies the detections schema.
func (a *DetectionsAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, Schema); err != nil {
		return errors.Wrap(errors.WithCode(errors.CodeDatabaseError, err),
			"applying detections schema")
	}
	return nil
}

// WriteDetections inserts all rows of one run in a single transaction, so a
// partially written run never survives a failure.
func (a *DetectionsAdapter) WriteDetections(ctx context.Context, runID core.RunID, detections []absorber.Detection) error {
	if len(detections) == 0 {
		return nil
	}

	query := `
		INSERT INTO dla_detections (
			targetid, ra, dec, zqso, snr, dlaid,
			z_dla, z_dla_err, nhi, nhi_err,
			coeff, deltachi2, pvalue, flags, run_id
		) VALUES (
			:targetid, :ra, :dec, :zqso, :snr, :dlaid,
			:z_dla, :z_dla_err, :nhi, :nhi_err,
			:coeff, :deltachi2, :pvalue, :flags, :run_id
		)`

	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.WithCode(errors.CodeDatabaseError, err),
			"beginning detections transaction")
	}
	defer tx.Rollback()

	for _, det := range detections {
		det.RunID = runID
		if _, err := tx.NamedExecContext(ctx, query, det); err != nil {
			return errors.Wrapf(errors.WithCode(errors.CodeDatabaseError, err),
				"inserting detection %s", det.DLAID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.WithCode(errors.CodeDatabaseError, err),
			"committing detections transaction")
	}
	return nil
}

var _ ports.ResultSink = (*DetectionsAdapter)(nil)
