package core

import "strings"

// FitFlag is the per-absorber warning bitmask carried into the output table.
// Flags never discard a detection; they annotate it.
type FitFlag int

const (
	// FlagNone marks a clean fit.
	FlagNone FitFlag = 0

	// FlagNoConverge marks an optimizer attempt that hit its iteration or
	// tolerance limits without converging.
	FlagNoConverge FitFlag = 1 << iota

	// FlagIllConditioned marks a linear solve that was numerically singular.
	FlagIllConditioned

	// FlagZBoundary marks a fitted redshift pinned at the allowed range edge.
	FlagZBoundary

	// FlagNHIBoundary marks a fitted column density pinned at the prior edge.
	FlagNHIBoundary

	// FlagPotentialBAL marks an absorber whose Lya center falls inside a
	// recorded broad-absorption-line exclusion window.
	FlagPotentialBAL

	// FlagBadErrorEstimate marks a fit whose covariance could not be
	// recovered from the chi-square curvature.
	FlagBadErrorEstimate
)

// Has reports whether all bits of other are set.
func (f FitFlag) Has(other FitFlag) bool { return f&other == other }

// String renders the set bits for logs.
func (f FitFlag) String() string {
	if f == FlagNone {
		return "none"
	}
	names := []struct {
		bit  FitFlag
		name string
	}{
		{FlagNoConverge, "no_converge"},
		{FlagIllConditioned, "ill_conditioned"},
		{FlagZBoundary, "z_boundary"},
		{FlagNHIBoundary, "nhi_boundary"},
		{FlagPotentialBAL, "potential_bal"},
		{FlagBadErrorEstimate, "bad_error_estimate"},
	}
	var set []string
	for _, n := range names {
		if f.Has(n.bit) {
			set = append(set, n.name)
		}
	}
	return strings.Join(set, "|")
}
