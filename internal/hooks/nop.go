// Package hooks provides helpers for optional worker callbacks.
package hooks

import (
	"context"

	"github.com/simmonson/fib-worker/types"
)

// NopHooks implements every hook callback as a no-op.
type NopHooks struct{}

// NewNop creates a hooks value where every callback is a no-op.
func NewNop() types.Hooks {
	h := &NopHooks{}
	return types.Hooks{
		OnStored:       h.OnStored,
		OnRejected:     h.OnRejected,
		OnWriteFailed:  h.OnWriteFailed,
		OnStateChanged: h.OnStateChanged,
	}
}

// Fill returns a copy of h with every nil callback replaced by a no-op,
// eliminating nil checks at call sites. A nil h yields NewNop().
func Fill(h *types.Hooks) types.Hooks {
	out := NewNop()
	if h == nil {
		return out
	}
	if h.OnStored != nil {
		out.OnStored = h.OnStored
	}
	if h.OnRejected != nil {
		out.OnRejected = h.OnRejected
	}
	if h.OnWriteFailed != nil {
		out.OnWriteFailed = h.OnWriteFailed
	}
	if h.OnStateChanged != nil {
		out.OnStateChanged = h.OnStateChanged
	}

	return out
}

// OnStored is a no-op implementation.
func (h *NopHooks) OnStored(context.Context, string, string) error { return nil }

// OnRejected is a no-op implementation.
func (h *NopHooks) OnRejected(context.Context, string, error) error { return nil }

// OnWriteFailed is a no-op implementation.
func (h *NopHooks) OnWriteFailed(context.Context, string, error) error { return nil }

// OnStateChanged is a no-op implementation.
func (h *NopHooks) OnStateChanged(context.Context, types.State, types.State) error { return nil }
