package fibworker

import "github.com/simmonson/fib-worker/types"

// Sentinel errors re-exported from the types package.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = types.ErrInvalidConfig

	// ErrNATSConnectionRequired is returned when NATS connection is nil.
	ErrNATSConnectionRequired = types.ErrNATSConnectionRequired

	// ErrAlreadyStarted is returned when Start is called on a running worker.
	ErrAlreadyStarted = types.ErrAlreadyStarted

	// ErrNotStarted is returned when Stop is called on a worker that is not running.
	ErrNotStarted = types.ErrNotStarted

	// ErrInvalidIndex is returned by Deliver when a payload is not a base-10 integer.
	ErrInvalidIndex = types.ErrInvalidIndex

	// ErrIndexTooLarge is returned by Deliver when an index exceeds MaxIndex.
	ErrIndexTooLarge = types.ErrIndexTooLarge

	// ErrComputationFailed is returned by Deliver when a computation panicked.
	ErrComputationFailed = types.ErrComputationFailed

	// ErrResultNotFound is returned by a ResultStore for a missing field.
	ErrResultNotFound = types.ErrResultNotFound

	// ErrInvalidField is returned by a ResultStore for a field that cannot be a key.
	ErrInvalidField = types.ErrInvalidField
)
