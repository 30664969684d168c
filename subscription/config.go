package subscription

import (
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/simmonson/fib-worker/internal/logging"
	"github.com/simmonson/fib-worker/internal/metrics"
	"github.com/simmonson/fib-worker/types"
)

// SubjectConfig configures a core subscription source.
//
// Required fields:
//   - Channel
type SubjectConfig struct {
	// Channel is the subject to subscribe to.
	Channel string

	// FlushTimeout bounds the subscription confirmation round trip.
	FlushTimeout time.Duration

	Logger  types.Logger
	Metrics types.MetricsCollector
}

func (cfg *SubjectConfig) applyDefaults() {
	if cfg.FlushTimeout == 0 {
		cfg.FlushTimeout = DefaultFlushTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNop()
	}
}

// StreamConfig configures a stream subscription source.
//
// Required fields:
//   - Channel
//
// Optional tuning fields are documented inline below. Zero values are replaced by
// sensible defaults via applyDefaults().
type StreamConfig struct {
	// Channel is the subject captured by the stream and filtered by the consumer.
	Channel string

	// StreamName is created (or updated) with the channel as its only subject.
	StreamName string

	// Storage selects file or memory storage for the stream (file if zero).
	Storage jetstream.StorageType

	// ConsumerName is the durable consumer name shared by all workers.
	ConsumerName string

	AckWait      time.Duration
	MaxDeliver   int
	FetchTimeout time.Duration

	// RetryBackoff and MaxRetryBackoff bound the jittered delay between
	// iterator restarts.
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration

	// RetrySeed makes the retry jitter deterministic when non-zero (tests).
	RetrySeed int64

	// SetupTimeout bounds one attempt at creating the stream and consumer.
	SetupTimeout time.Duration

	// SetupRetryWait is the fixed delay between failed setup attempts.
	SetupRetryWait time.Duration

	Logger  types.Logger
	Metrics types.MetricsCollector
}

// applyDefaults fills unset optional fields with project defaults.
func (cfg *StreamConfig) applyDefaults() {
	if cfg.StreamName == "" {
		cfg.StreamName = DefaultStreamName
	}
	if cfg.ConsumerName == "" {
		cfg.ConsumerName = DefaultConsumerName
	}
	if cfg.AckWait == 0 {
		cfg.AckWait = DefaultAckWait
	}
	if cfg.MaxDeliver == 0 {
		cfg.MaxDeliver = DefaultMaxDeliver
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	if cfg.MaxRetryBackoff == 0 {
		cfg.MaxRetryBackoff = DefaultMaxRetryBackoff
	}
	if cfg.SetupTimeout == 0 {
		cfg.SetupTimeout = DefaultSetupTimeout
	}
	if cfg.SetupRetryWait == 0 {
		cfg.SetupRetryWait = DefaultSetupRetryWait
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNop()
	}
}
