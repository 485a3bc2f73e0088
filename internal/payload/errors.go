package payload

import "errors"

// Precondition errors. These signal caller programming errors and are
// distinct from I/O failures surfaced by the buckets.
var (
	// ErrNotStarted is returned when an operation runs before Start has
	// signaled the readiness barrier.
	ErrNotStarted = errors.New("payload: engine not started")

	// ErrAlreadyStarted is returned by a second Start on the same engine.
	ErrAlreadyStarted = errors.New("payload: engine already started")

	// ErrClosed is returned for operations issued once Stop has begun.
	ErrClosed = errors.New("payload: engine closed")
)
