package fibworker

import (
	"fmt"
	"time"

	"github.com/simmonson/fib-worker/sequence"
	"github.com/simmonson/fib-worker/subscription"
)

// Subscription modes.
const (
	// ModeCore subscribes to the channel subject directly (fan-out, at-most-once).
	ModeCore = "core"

	// ModeStream consumes the channel through a JetStream durable consumer
	// (work queue, at-least-once).
	ModeStream = "stream"
)

// SubscriptionConfig selects and tunes the message transport.
type SubscriptionConfig struct {
	// Mode is ModeCore (default) or ModeStream.
	Mode string `yaml:"mode"`

	// StreamName is the stream capturing the channel in stream mode.
	StreamName string `yaml:"streamName"`

	// ConsumerName is the durable consumer shared by all workers in stream mode.
	ConsumerName string `yaml:"consumerName"`

	// AckWait is how long the server waits for an acknowledgment before
	// redelivering (stream mode).
	AckWait time.Duration `yaml:"ackWait"`

	// MaxDeliver bounds redeliveries of a failing message (stream mode).
	MaxDeliver int `yaml:"maxDeliver"`

	// FetchTimeout is the expiry of a single pull request (stream mode).
	FetchTimeout time.Duration `yaml:"fetchTimeout"`

	// RetryBackoff is the first delay after a pull iterator failure.
	RetryBackoff time.Duration `yaml:"retryBackoff"`

	// MaxRetryBackoff caps the delay between pull iterator retries.
	MaxRetryBackoff time.Duration `yaml:"maxRetryBackoff"`
}

// Config is the configuration for the Worker.
//
// All duration fields accept standard Go duration strings like "30s", "5m", "1h".
type Config struct {
	// Channel is the subject index payloads are published on.
	Channel string `yaml:"channel"`

	// Bucket is the key-value bucket holding computed values.
	Bucket string `yaml:"bucket"`

	// Subscription selects the message transport.
	Subscription SubscriptionConfig `yaml:"subscription"`

	// MaxIndex is the largest index computed; larger ones are skipped.
	// Zero disables the ceiling.
	MaxIndex int64 `yaml:"maxIndex"`

	// CacheSize is how many leading sequence values are memoized.
	CacheSize int `yaml:"cacheSize"`

	// OperationTimeout bounds a single store write and bucket setup.
	OperationTimeout time.Duration `yaml:"operationTimeout"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		Channel: "insert",
		Bucket:  "values",
		Subscription: SubscriptionConfig{
			Mode:            ModeCore,
			StreamName:      subscription.DefaultStreamName,
			ConsumerName:    subscription.DefaultConsumerName,
			AckWait:         subscription.DefaultAckWait,
			MaxDeliver:      subscription.DefaultMaxDeliver,
			FetchTimeout:    subscription.DefaultFetchTimeout,
			RetryBackoff:    subscription.DefaultRetryBackoff,
			MaxRetryBackoff: subscription.DefaultMaxRetryBackoff,
		},
		MaxIndex:         sequence.DefaultMaxIndex,
		CacheSize:        sequence.DefaultCacheSize,
		OperationTimeout: 10 * time.Second,
	}
}

// SetDefaults fills in missing configuration values with production defaults.
//
// MaxIndex and CacheSize are left alone: zero is a meaningful value for both.
// Start from DefaultConfig() to get their defaults.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Channel == "" {
		cfg.Channel = defaults.Channel
	}
	if cfg.Bucket == "" {
		cfg.Bucket = defaults.Bucket
	}
	if cfg.Subscription.Mode == "" {
		cfg.Subscription.Mode = defaults.Subscription.Mode
	}
	if cfg.Subscription.StreamName == "" {
		cfg.Subscription.StreamName = defaults.Subscription.StreamName
	}
	if cfg.Subscription.ConsumerName == "" {
		cfg.Subscription.ConsumerName = defaults.Subscription.ConsumerName
	}
	if cfg.Subscription.AckWait == 0 {
		cfg.Subscription.AckWait = defaults.Subscription.AckWait
	}
	if cfg.Subscription.MaxDeliver == 0 {
		cfg.Subscription.MaxDeliver = defaults.Subscription.MaxDeliver
	}
	if cfg.Subscription.FetchTimeout == 0 {
		cfg.Subscription.FetchTimeout = defaults.Subscription.FetchTimeout
	}
	if cfg.Subscription.RetryBackoff == 0 {
		cfg.Subscription.RetryBackoff = defaults.Subscription.RetryBackoff
	}
	if cfg.Subscription.MaxRetryBackoff == 0 {
		cfg.Subscription.MaxRetryBackoff = defaults.Subscription.MaxRetryBackoff
	}
	if cfg.OperationTimeout == 0 {
		cfg.OperationTimeout = defaults.OperationTimeout
	}
}

// Validate checks configuration constraints and returns error for invalid values.
//
// Returns:
//   - error: Wraps ErrInvalidConfig with the offending field, nil if valid
func (cfg *Config) Validate() error {
	if cfg.Channel == "" {
		return fmt.Errorf("%w: channel is required", ErrInvalidConfig)
	}
	if cfg.Bucket == "" {
		return fmt.Errorf("%w: bucket is required", ErrInvalidConfig)
	}

	switch cfg.Subscription.Mode {
	case ModeCore, ModeStream:
	default:
		return fmt.Errorf("%w: subscription mode must be %q or %q, got %q",
			ErrInvalidConfig, ModeCore, ModeStream, cfg.Subscription.Mode)
	}

	if cfg.MaxIndex < 0 {
		return fmt.Errorf("%w: maxIndex must be >= 0, got %d", ErrInvalidConfig, cfg.MaxIndex)
	}
	if cfg.CacheSize < 0 {
		return fmt.Errorf("%w: cacheSize must be >= 0, got %d", ErrInvalidConfig, cfg.CacheSize)
	}
	if cfg.OperationTimeout <= 0 {
		return fmt.Errorf("%w: operationTimeout must be > 0, got %v", ErrInvalidConfig, cfg.OperationTimeout)
	}

	if cfg.Subscription.Mode == ModeStream {
		if cfg.Subscription.FetchTimeout < subscription.MinFetchTimeout {
			return fmt.Errorf("%w: fetchTimeout (%v) must be >= %v",
				ErrInvalidConfig, cfg.Subscription.FetchTimeout, subscription.MinFetchTimeout)
		}
		if cfg.Subscription.MaxRetryBackoff < cfg.Subscription.RetryBackoff {
			return fmt.Errorf("%w: maxRetryBackoff (%v) must be >= retryBackoff (%v)",
				ErrInvalidConfig, cfg.Subscription.MaxRetryBackoff, cfg.Subscription.RetryBackoff)
		}
	}

	return nil
}

// ValidateWithWarnings logs warnings for valid but risky values.
//
// Parameters:
//   - logger: Logger instance for warning output
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	if cfg.MaxIndex == 0 {
		logger.Warn("maxIndex is disabled, a single message may request unbounded work")
	}

	if cfg.Subscription.Mode == ModeStream && cfg.Subscription.AckWait < cfg.OperationTimeout {
		logger.Warn(
			"ackWait is shorter than operationTimeout, slow writes may be redelivered",
			"ackWait", cfg.Subscription.AckWait,
			"operationTimeout", cfg.OperationTimeout,
		)
	}
}

// TestConfig returns a configuration optimized for fast test execution.
//
// Returns:
//   - Config: Configuration with short timeouts for tests
//
// Example:
//
//	cfg := fibworker.TestConfig()
//	cfg.Channel = "insert-test"
//	w, err := fibworker.NewWorker(&cfg, nc)
func TestConfig() Config {
	cfg := DefaultConfig()

	cfg.OperationTimeout = 2 * time.Second
	cfg.Subscription.AckWait = 2 * time.Second
	cfg.Subscription.FetchTimeout = subscription.MinFetchTimeout
	cfg.Subscription.RetryBackoff = 20 * time.Millisecond
	cfg.Subscription.MaxRetryBackoff = 200 * time.Millisecond

	return cfg
}
