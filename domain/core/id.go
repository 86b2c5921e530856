package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TargetID identifies one survey target (fiber/object) within a spectra file.
type TargetID int64

// String returns the decimal representation used in composite identifiers.
func (id TargetID) String() string {
	return fmt.Sprintf("%d", int64(id))
}

// DLAID is the composite identifier of one detected absorber:
// the target id followed by "00" and the absorber sequence number.
type DLAID string

// NewDLAID builds the composite absorber identifier.
func NewDLAID(tid TargetID, seq int) DLAID {
	return DLAID(fmt.Sprintf("%s00%d", tid, seq))
}

// String returns the string representation.
func (id DLAID) String() string { return string(id) }

// RunID identifies one batch search run.
type RunID string

// NewRunID creates a new unique run identifier using UUID v7 for
// time-ordered generation, falling back to v4.
func NewRunID() RunID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return RunID(id.String())
}

// String returns the string representation.
func (id RunID) String() string { return string(id) }

// IsEmpty checks if the run ID is empty.
func (id RunID) IsEmpty() bool { return id == "" }

// ParseRunID parses a string into a RunID.
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}
