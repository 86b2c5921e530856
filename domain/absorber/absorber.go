package absorber

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"godla/domain/core"
)

// Candidate is one trial absorber: redshift and log10 column density.
// Candidates live only within a single fit attempt.
type Candidate struct {
	Z      float64
	LogNHI float64
}

// Absorber is one accepted absorber with its fit diagnostics.
type Absorber struct {
	Candidate
	ZErr      float64
	NHIErr    float64
	Coeff     []float64
	DeltaChi2 float64
	PValue    float64
	Flags     core.FitFlag
}

// FitResult is the outcome of fitting one spectrum. Zero absorbers is a
// valid, common outcome encoded as an empty slice.
type FitResult struct {
	NullCoeff   []float64
	ChiSqPerDOF float64
	Absorbers   []Absorber
}

// NumAbsorbers returns the accepted absorber count.
func (r FitResult) NumAbsorbers() int { return len(r.Absorbers) }

// Float64Slice stores a coefficient vector in a single SQL column as JSON.
type Float64Slice []float64

// Value implements driver.Valuer.
func (s Float64Slice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *Float64Slice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Float64Slice", value)
	}
	return json.Unmarshal(raw, s)
}

// Detection is one output row: a single accepted absorber on one target.
type Detection struct {
	TargetID  core.TargetID `db:"targetid" json:"targetid"`
	RA        float64       `db:"ra" json:"ra"`
	Dec       float64       `db:"dec" json:"dec"`
	ZQSO      float64       `db:"zqso" json:"zqso"`
	SNR       float64       `db:"snr" json:"snr"`
	DLAID     core.DLAID    `db:"dlaid" json:"dlaid"`
	Z         float64       `db:"z_dla" json:"z_dla"`
	ZErr      float64       `db:"z_dla_err" json:"z_dla_err"`
	NHI       float64       `db:"nhi" json:"nhi"`
	NHIErr    float64       `db:"nhi_err" json:"nhi_err"`
	Coeff     Float64Slice  `db:"coeff" json:"coeff"`
	DeltaChi2 float64       `db:"deltachi2" json:"deltachi2"`
	PValue    float64       `db:"pvalue" json:"pvalue"`
	Flags     core.FitFlag  `db:"flags" json:"flags"`
	RunID     core.RunID    `db:"run_id" json:"run_id"`
}
