package subscription

import "time"

// Default configuration values for subscription sources.
const (
	// DefaultFlushTimeout bounds the round trip confirming a new subscription.
	DefaultFlushTimeout = 2 * time.Second

	// DefaultStreamName is the stream capturing the channel subject in stream mode.
	DefaultStreamName = "FIB_INSERT"

	// DefaultConsumerName is the durable consumer shared by all workers.
	DefaultConsumerName = "fib-worker"

	// DefaultFetchTimeout is the default maximum duration of a pull request.
	DefaultFetchTimeout = 5 * time.Second

	// MinFetchTimeout is the shortest pull expiry the JetStream client accepts.
	MinFetchTimeout = time.Second

	// DefaultAckWait is the default duration to wait for acknowledgment.
	DefaultAckWait = 30 * time.Second

	// DefaultMaxDeliver is the default maximum delivery attempts.
	DefaultMaxDeliver = 5

	// DefaultRetryBackoff is the initial delay after an iterator failure.
	DefaultRetryBackoff = 100 * time.Millisecond

	// DefaultMaxRetryBackoff caps the delay between iterator retries.
	DefaultMaxRetryBackoff = 5 * time.Second

	// DefaultSetupTimeout bounds one stream and consumer setup attempt.
	DefaultSetupTimeout = 5 * time.Second

	// DefaultSetupRetryWait is the fixed delay between setup attempts while
	// the broker is unreachable. It matches the connection reconnect delay.
	DefaultSetupRetryWait = time.Second

	// maxPullHeartbeat is the longest idle heartbeat the JetStream client accepts.
	maxPullHeartbeat = 30 * time.Second

	// retryMultiplier is the growth factor of the iterator retry backoff.
	retryMultiplier = 2.0
)
