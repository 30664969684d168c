package subscription

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/simmonson/fib-worker/types"
)

// Subject is a Source backed by a core NATS subscription.
//
// The subscription is synchronous, so exactly one message is in flight and
// messages are delivered in arrival order. The client library re-establishes
// the subscription after a reconnect; Run keeps waiting through the outage.
type Subject struct {
	conn   *nats.Conn
	cfg    SubjectConfig
	logger types.Logger
}

var _ Source = (*Subject)(nil)

// NewSubject creates a core subscription source.
//
// Parameters:
//   - conn: NATS connection (must be non-nil)
//   - cfg: Source configuration; Channel is required
//
// Returns:
//   - *Subject: The source, not yet subscribed
//   - error: Missing connection or channel
func NewSubject(conn *nats.Conn, cfg SubjectConfig) (*Subject, error) {
	if conn == nil {
		return nil, types.ErrNATSConnectionRequired
	}
	if cfg.Channel == "" {
		return nil, fmt.Errorf("%w: channel is required", types.ErrInvalidConfig)
	}
	cfg.applyDefaults()

	return &Subject{conn: conn, cfg: cfg, logger: cfg.Logger}, nil
}

// Run subscribes to the channel and delivers messages until ctx is cancelled.
func (s *Subject) Run(ctx context.Context, d Deliverer) error {
	sub, err := s.conn.SubscribeSync(s.cfg.Channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.cfg.Channel, err)
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			s.logger.Warn("failed to unsubscribe", "channel", s.cfg.Channel, "error", err)
		}
	}()

	// Make sure the server registered the interest before reporting ready.
	// While disconnected the flush fails; the subscription is still replayed
	// on reconnect, so this is only worth a warning.
	if err := s.conn.FlushTimeout(s.cfg.FlushTimeout); err != nil {
		s.logger.Warn("subscription not confirmed by server", "channel", s.cfg.Channel, "error", err)
	}
	s.logger.Info("subscribed", "channel", s.cfg.Channel)

	for {
		msg, err := sub.NextMsgWithContext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			switch {
			case errors.Is(err, nats.ErrSlowConsumer):
				// Pending limits overflowed and messages were dropped; keep consuming.
				dropped, _ := sub.Dropped()
				s.logger.Warn("slow consumer, messages dropped", "channel", s.cfg.Channel, "dropped", dropped)
				continue
			case errors.Is(err, nats.ErrConnectionClosed), errors.Is(err, nats.ErrBadSubscription):
				return fmt.Errorf("subscription to %s ended: %w", s.cfg.Channel, err)
			default:
				s.logger.Warn("failed to receive message", "channel", s.cfg.Channel, "error", err)
				continue
			}
		}

		s.deliver(ctx, d, msg)
	}
}

func (s *Subject) deliver(ctx context.Context, d Deliverer, msg *nats.Msg) {
	if msg.Subject != s.cfg.Channel {
		s.logger.Debug("ignoring message from foreign subject", "subject", msg.Subject)
		return
	}

	if err := d.Deliver(ctx, msg.Subject, string(msg.Data)); err != nil {
		s.logger.Debug("message not stored", "channel", msg.Subject, "error", err)
	}
}
