package types

import "errors"

// Sentinel errors for the fib-worker module.
//
// These errors provide type-safe error checking using errors.Is() and errors.As().
// All components should use these sentinel errors for known error conditions
// and wrap external errors with context using fmt.Errorf("%s: %w", msg, err).

// Worker errors - Public API errors returned by Worker.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNATSConnectionRequired is returned when NATS connection is nil.
	ErrNATSConnectionRequired = errors.New("NATS connection is required")

	// ErrAlreadyStarted is returned when Start is called on an already running worker.
	ErrAlreadyStarted = errors.New("worker already started")

	// ErrNotStarted is returned when Stop is called on a worker that hasn't been started.
	ErrNotStarted = errors.New("worker not started")
)

// Message errors - returned by the handler for a single message. None of them
// stop the dispatch loop.
var (
	// ErrInvalidIndex is returned when a payload is not a base-10 integer.
	ErrInvalidIndex = errors.New("invalid index")

	// ErrIndexTooLarge is returned when an index exceeds the configured ceiling.
	ErrIndexTooLarge = errors.New("index exceeds configured maximum")

	// ErrComputationFailed is returned when a computation aborts unexpectedly.
	ErrComputationFailed = errors.New("computation failed")
)

// Store errors - returned by result store implementations.
var (
	// ErrResultNotFound is returned when a field has no stored value.
	ErrResultNotFound = errors.New("result not found")

	// ErrInvalidField is returned when a field cannot be used as a store key.
	ErrInvalidField = errors.New("invalid result field")
)

// IsRejected reports whether err means the message payload itself was
// refused (bad text or over the ceiling), as opposed to an infrastructure failure.
func IsRejected(err error) bool {
	return errors.Is(err, ErrInvalidIndex) || errors.Is(err, ErrIndexTooLarge)
}
