package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/simmonson/fib-worker/internal/kvutil"
	"github.com/simmonson/fib-worker/types"
)

// KVConfig describes the JetStream bucket backing a KV store.
type KVConfig struct {
	// Bucket is the bucket name (the shared map name).
	Bucket string

	// Storage selects file or memory storage (file if zero).
	Storage jetstream.StorageType

	// Replicas is the bucket replication factor (1 if zero).
	Replicas int

	// MaxRetries bounds create/open attempts (kvutil.DefaultMaxRetries if zero).
	MaxRetries int
}

// KV is a ResultStore backed by a JetStream key-value bucket.
type KV struct {
	kv jetstream.KeyValue
	options
}

var _ ResultStore = (*KV)(nil)

// NewKV creates or opens the bucket described by cfg.
//
// The bucket keeps a single revision per key, so a later Put replaces the
// earlier value. Entries never expire.
//
// Parameters:
//   - ctx: Bounds bucket creation
//   - js: JetStream context
//   - cfg: Bucket description
//   - opts: Logger and metrics options
//
// Returns:
//   - *KV: The store
//   - error: Bucket could not be created or opened
func NewKV(ctx context.Context, js jetstream.JetStream, cfg KVConfig, opts ...Option) (*KV, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: bucket name is required", types.ErrInvalidConfig)
	}
	replicas := cfg.Replicas
	if replicas <= 0 {
		replicas = 1
	}

	kv, err := kvutil.EnsureBucket(ctx, js, jetstream.KeyValueConfig{
		Bucket:      cfg.Bucket,
		Description: "computed sequence values keyed by submitted index text",
		History:     1,
		Storage:     cfg.Storage,
		Replicas:    replicas,
	}, cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to open results bucket: %w", err)
	}

	return NewKVFromBucket(kv, opts...), nil
}

// NewKVFromBucket wraps an already opened bucket.
func NewKVFromBucket(kv jetstream.KeyValue, opts ...Option) *KV {
	return &KV{kv: kv, options: applyOptions(opts)}
}

// Bucket returns the underlying bucket name.
func (s *KV) Bucket() string {
	return s.kv.Bucket()
}

// Put sets field to value.
func (s *KV) Put(ctx context.Context, field, value string) error {
	if err := validateField(field); err != nil {
		return err
	}

	start := time.Now()
	_, err := s.kv.PutString(ctx, field, value)
	s.metrics.RecordStoreOperation("put", err == nil, time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, jetstream.ErrInvalidKey) {
			return fmt.Errorf("%w: %q", types.ErrInvalidField, field)
		}

		return fmt.Errorf("failed to put %q into bucket %s: %w", field, s.kv.Bucket(), err)
	}

	s.logger.Debug("result stored", "bucket", s.kv.Bucket(), "field", field)

	return nil
}

// Get returns the value stored for field.
func (s *KV) Get(ctx context.Context, field string) (string, error) {
	if err := validateField(field); err != nil {
		return "", err
	}

	start := time.Now()
	entry, err := s.kv.Get(ctx, field)
	notFound := errors.Is(err, jetstream.ErrKeyNotFound)
	s.metrics.RecordStoreOperation("get", err == nil || notFound, time.Since(start).Seconds())
	if err != nil {
		if notFound {
			return "", fmt.Errorf("%w: %q", types.ErrResultNotFound, field)
		}

		return "", fmt.Errorf("failed to get %q from bucket %s: %w", field, s.kv.Bucket(), err)
	}

	return string(entry.Value()), nil
}
