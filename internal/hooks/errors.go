package hooks

import "errors"

// Sentinel errors for the hook dispatcher, matched with errors.Is per the
// taxonomy in spec.md §7.
var (
	// ErrMalformedInput marks input that could not be interpreted as a
	// JSON object; treated as empty input, never surfaced to the caller.
	ErrMalformedInput = errors.New("hooks: malformed input")

	// ErrUnknownType names the unknown-hook-type case; the dispatcher does
	// not return or record it, and unknown hook types return
	// {continue: true} without error, per spec.md §4.5.
	ErrUnknownType = errors.New("hooks: unknown hook type")
)
