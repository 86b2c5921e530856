// Package excel exports detection batches to .xlsx workbooks.
package excel

import (
	"context"
	"fmt"
	"log"

	"godla/domain/absorber"
	"godla/domain/core"
	"godla/internal/errors"
	"godla/ports"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Detections"

var headers = []string{
	"TARGETID", "RA", "DEC", "ZQSO", "SNR", "DLAID",
	"Z_DLA", "Z_DLA_ERR", "NHI", "NHI_ERR",
	"DELTACHI2", "PVALUE", "FLAGS", "RUN_ID",
}

// DetectionWriter writes one batch of detection rows to an Excel file.
type DetectionWriter struct {
	filePath string
}

// NewDetectionWriter creates a writer targeting the given path. The file is
// created or overwritten on write.
func NewDetectionWriter(filePath string) *DetectionWriter {
	return &DetectionWriter{filePath: filePath}
}

// WriteDetections writes the header and one row per detection.
func (w *DetectionWriter) WriteDetections(ctx context.Context, runID core.RunID, detections []absorber.Detection) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return errors.Wrap(err, "creating detections sheet")
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return errors.Wrap(err, "removing default sheet")
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return errors.Wrap(err, "header cell name")
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return errors.Wrap(err, "writing header")
		}
	}

	for n, det := range detections {
		values := []interface{}{
			int64(det.TargetID), det.RA, det.Dec, det.ZQSO, det.SNR, det.DLAID.String(),
			det.Z, det.ZErr, det.NHI, det.NHIErr,
			det.DeltaChi2, det.PValue, int(det.Flags), runID.String(),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, n+2)
			if err != nil {
				return errors.Wrap(err, "data cell name")
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return errors.Wrapf(err, "writing detection %s", det.DLAID)
			}
		}
	}

	if err := f.SaveAs(w.filePath); err != nil {
		return errors.Wrap(err, fmt.Sprintf("saving workbook %s", w.filePath))
	}
	log.Printf("wrote %d detections to %s", len(detections), w.filePath)
	return nil
}

var _ ports.ResultSink = (*DetectionWriter)(nil)
