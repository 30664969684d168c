// Package store persists computed sequence values in the shared result map.
//
// The map is keyed by the original message text and holds the value as
// decimal text. Writes overwrite; nothing is ever expired or deleted.
//
// Two implementations are provided: KV, backed by a NATS JetStream
// key-value bucket shared by every worker, and Memory, an in-process map for
// tests and dry runs.
package store

import (
	"context"
	"fmt"

	"github.com/simmonson/fib-worker/internal/kvutil"
	"github.com/simmonson/fib-worker/internal/logging"
	"github.com/simmonson/fib-worker/internal/metrics"
	"github.com/simmonson/fib-worker/types"
)

// ResultStore is the shared field to value map the worker writes into.
type ResultStore interface {
	// Put sets field to value, overwriting any previous value.
	Put(ctx context.Context, field, value string) error

	// Get returns the value stored for field, or types.ErrResultNotFound.
	Get(ctx context.Context, field string) (string, error)
}

// Option configures a store.
type Option func(*options)

type options struct {
	logger  types.Logger
	metrics types.StoreMetrics
}

// WithLogger sets the logger used for store diagnostics.
func WithLogger(logger types.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the collector receiving store operation metrics.
func WithMetrics(m types.StoreMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func applyOptions(opts []Option) options {
	o := options{
		logger:  logging.NewNop(),
		metrics: metrics.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// validateField rejects fields that cannot be stored as a key.
func validateField(field string) error {
	if !kvutil.IsValidKey(field) {
		return fmt.Errorf("%w: %q", types.ErrInvalidField, field)
	}

	return nil
}
