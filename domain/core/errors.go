package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Missing-input errors: logged by callers, target or batch skipped.
	ErrNotFound       = errors.New("resource not found")
	ErrTargetNotFound = fmt.Errorf("%w: target", ErrNotFound)
	ErrFileNotFound   = fmt.Errorf("%w: file", ErrNotFound)

	// Data-quality errors: logged, target skipped.
	ErrDataQuality   = errors.New("data quality")
	ErrWindowMasked  = fmt.Errorf("%w: search window too heavily masked", ErrDataQuality)
	ErrGridMismatch  = fmt.Errorf("%w: per-pixel array lengths disagree", ErrDataQuality)
	ErrGridUnordered = fmt.Errorf("%w: wavelength grid not strictly increasing", ErrDataQuality)

	// Numerical errors: caught per candidate attempt, recorded as flags.
	ErrFitFailed       = errors.New("fit failed")
	ErrIllConditioned  = fmt.Errorf("%w: ill-conditioned linear system", ErrFitFailed)
	ErrNoConvergence   = fmt.Errorf("%w: optimizer did not converge", ErrFitFailed)
	ErrDegenerateModel = fmt.Errorf("%w: empty or degenerate model matrix", ErrFitFailed)

	// Configuration errors: fatal at load time. A silently mismatched prior
	// sample set would invalidate every detection downstream.
	ErrConfigMismatch = errors.New("prior sample set constants disagree with active configuration")
)

// NewTargetNotFoundError reports a target id missing from a spectra file.
func NewTargetNotFoundError(tid TargetID) error {
	return fmt.Errorf("%w: targetid %s not present in spectra file", ErrTargetNotFound, tid)
}

// NewConfigMismatchError reports one disagreeing prior constant.
func NewConfigMismatchError(name string, loaded, configured float64) error {
	return fmt.Errorf("%w: %s loaded=%g configured=%g", ErrConfigMismatch, name, loaded, configured)
}

// IsNotFoundError checks for any missing-input error.
func IsNotFoundError(err error) bool { return errors.Is(err, ErrNotFound) }

// IsDataQualityError checks for any data-quality error.
func IsDataQualityError(err error) bool { return errors.Is(err, ErrDataQuality) }

// IsFitError checks for any numerical fit error.
func IsFitError(err error) bool { return errors.Is(err, ErrFitFailed) }
