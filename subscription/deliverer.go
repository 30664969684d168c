package subscription

import "context"

// Deliverer receives messages from a Source.
//
// Deliver is called once per message, from the source's dispatch goroutine,
// and the next message is not delivered until it returns. The returned error
// only affects the message's disposition and logging; it never stops the
// source.
type Deliverer interface {
	// Deliver handles payload received on channel.
	Deliver(ctx context.Context, channel, payload string) error
}

// DelivererFunc is a function adapter for Deliverer.
type DelivererFunc func(ctx context.Context, channel, payload string) error

// Deliver implements Deliverer interface.
func (f DelivererFunc) Deliver(ctx context.Context, channel, payload string) error {
	return f(ctx, channel, payload)
}

// Source runs a dispatch loop feeding a Deliverer.
type Source interface {
	// Run subscribes and delivers messages until ctx is cancelled, returning
	// nil in that case. It returns an error when the subscription cannot be
	// established or the connection is closed for good.
	Run(ctx context.Context, d Deliverer) error
}
