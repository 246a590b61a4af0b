package glicko

import "errors"

// Sentinel kinds for rating computation defects. These are never coerced to
// a default value; callers must surface them.
var (
	// ErrNoSamples reports an update call without evidence. Inactive
	// players take the Inflate path instead.
	ErrNoSamples = errors.New("update requires at least one opponent sample")

	// ErrNoConvergence reports a volatility root search that did not
	// converge within the iteration budget.
	ErrNoConvergence = errors.New("volatility solver did not converge")

	// ErrNotFinite reports a NaN or infinite intermediate or final value.
	ErrNotFinite = errors.New("rating computation produced a non-finite value")
)
