package types

import "context"

// Hooks defines callbacks for worker message events.
//
// All hooks are optional. Unlike the logger and metrics, hooks are invoked
// synchronously on the dispatch goroutine, after the event has happened, so a
// slow hook delays the next message. Hook errors are logged and otherwise ignored.
//
// Example:
//
//	hooks := &fibworker.Hooks{
//	    OnStored: func(ctx context.Context, field, value string) error {
//	        log.Printf("%s => %s", field, value)
//	        return nil
//	    },
//	}
type Hooks struct {
	// OnStored is called after a value was written for field.
	OnStored func(ctx context.Context, field, value string) error

	// OnRejected is called when a payload is skipped (invalid text, over ceiling
	// or a recovered computation failure).
	OnRejected func(ctx context.Context, payload string, err error) error

	// OnWriteFailed is called when the store write for field failed. The
	// result is dropped; there is no retry.
	OnWriteFailed func(ctx context.Context, field string, err error) error

	// OnStateChanged is called when the handler state transitions.
	OnStateChanged func(ctx context.Context, from, to State) error
}
