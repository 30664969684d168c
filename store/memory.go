package store

import (
	"context"
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/simmonson/fib-worker/types"
)

// Memory is an in-process ResultStore.
//
// It applies the same field rules as KV, so code exercised against Memory
// behaves the same against a real bucket.
type Memory struct {
	values *xsync.Map[string, string]
	options
}

var _ ResultStore = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory(opts ...Option) *Memory {
	return &Memory{
		values:  xsync.NewMap[string, string](),
		options: applyOptions(opts),
	}
}

// Put sets field to value.
func (m *Memory) Put(ctx context.Context, field, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateField(field); err != nil {
		return err
	}

	start := time.Now()
	m.values.Store(field, value)
	m.metrics.RecordStoreOperation("put", true, time.Since(start).Seconds())

	return nil
}

// Get returns the value stored for field.
func (m *Memory) Get(ctx context.Context, field string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateField(field); err != nil {
		return "", err
	}

	v, ok := m.values.Load(field)
	if !ok {
		return "", fmt.Errorf("%w: %q", types.ErrResultNotFound, field)
	}

	return v, nil
}

// Len returns the number of stored fields.
func (m *Memory) Len() int {
	return m.values.Size()
}

// Snapshot returns a copy of every stored field and value.
func (m *Memory) Snapshot() map[string]string {
	out := make(map[string]string, m.values.Size())
	m.values.Range(func(k, v string) bool {
		out[k] = v
		return true
	})

	return out
}
