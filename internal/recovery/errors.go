package recovery

import "errors"

// Sentinel errors for the recovery engine, matched with errors.Is per the
// taxonomy in spec.md §7.
var (
	// ErrExhausted is returned when a session/error-category pair has
	// already consumed its retry budget.
	ErrExhausted = errors.New("recovery: attempts exhausted")

	// ErrUnrecognized names the case where no known error kind matches the
	// extracted text; Classify itself reports that case with ok=false.
	ErrUnrecognized = errors.New("recovery: unrecognized error")
)
