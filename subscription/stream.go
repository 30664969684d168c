package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/simmonson/fib-worker/types"
)

// Stream is a Source backed by a JetStream durable pull consumer.
//
// Publishers keep publishing plain messages on the channel subject; the
// stream captures them and the durable consumer hands each message to one
// worker. Messages are pulled one at a time.
//
// Disposition per message:
//   - Deliverer returns nil: Ack
//   - payload rejected or computation failed: Term (redelivery cannot help)
//   - any other error: Nak, redelivered up to MaxDeliver times
type Stream struct {
	js      jetstream.JetStream
	cfg     StreamConfig
	logger  types.Logger
	metrics types.ConsumerMetrics
}

var _ Source = (*Stream)(nil)

// NewStream creates a stream source.
//
// Parameters:
//   - js: JetStream context (must be non-nil)
//   - cfg: Source configuration; Channel is required
//
// Returns:
//   - *Stream: The source; the stream and consumer are created by Run
//   - error: Missing JetStream context or channel
//
// Example:
//
//	src, err := subscription.NewStream(js, subscription.StreamConfig{
//	    Channel:      "insert",
//	    ConsumerName: "fib-worker",
//	})
func NewStream(js jetstream.JetStream, cfg StreamConfig) (*Stream, error) {
	if js == nil {
		return nil, errors.New("JetStream context is required")
	}
	if cfg.Channel == "" {
		return nil, fmt.Errorf("%w: channel is required", types.ErrInvalidConfig)
	}
	cfg.applyDefaults()
	if cfg.FetchTimeout < MinFetchTimeout {
		return nil, fmt.Errorf("%w: fetch timeout %v is below %v",
			types.ErrInvalidConfig, cfg.FetchTimeout, MinFetchTimeout)
	}

	return &Stream{js: js, cfg: cfg, logger: cfg.Logger, metrics: cfg.Metrics}, nil
}

// Consumer creates or updates the stream and the durable consumer.
func (s *Stream) Consumer(ctx context.Context) (jetstream.Consumer, error) {
	_, err := s.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      s.cfg.StreamName,
		Subjects:  []string{s.cfg.Channel},
		Retention: jetstream.WorkQueuePolicy,
		Storage:   s.cfg.Storage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure stream %s: %w", s.cfg.StreamName, err)
	}

	cons, err := s.js.CreateOrUpdateConsumer(ctx, s.cfg.StreamName, jetstream.ConsumerConfig{
		Durable:       s.cfg.ConsumerName,
		FilterSubject: s.cfg.Channel,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       s.cfg.AckWait,
		MaxDeliver:    s.cfg.MaxDeliver,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure consumer %s: %w", s.cfg.ConsumerName, err)
	}

	return cons, nil
}

// Run ensures the consumer and pulls messages until ctx is cancelled.
//
// While the broker is unreachable the stream and consumer setup is retried
// every SetupRetryWait. Only invalid pull options end Run with an error.
func (s *Stream) Run(ctx context.Context, d Deliverer) error {
	cons, ok := s.awaitConsumer(ctx)
	if !ok {
		return nil
	}
	s.logger.Info("stream consumer ready", "stream", s.cfg.StreamName, "durable", s.cfg.ConsumerName)

	backoff := newRetryBackoff(s.cfg.RetryBackoff, s.cfg.MaxRetryBackoff, s.cfg.RetrySeed)

	heartbeat := min(s.cfg.FetchTimeout/2, maxPullHeartbeat)

	for {
		iter, err := cons.Messages(
			jetstream.PullMaxMessages(1),
			jetstream.PullExpiry(s.cfg.FetchTimeout),
			jetstream.PullHeartbeat(heartbeat),
		)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, jetstream.ErrInvalidOption) {
				return fmt.Errorf("invalid pull options for consumer %s: %w", s.cfg.ConsumerName, err)
			}
			s.logger.Error("failed to create message iterator", "error", err)
			if !s.sleep(ctx, backoff) {
				return nil
			}

			continue
		}

		// Unblock iter.Next when ctx is cancelled.
		stop := context.AfterFunc(ctx, iter.Stop)
		restart := s.drain(ctx, iter, d, backoff)
		stop()
		iter.Stop()

		if !restart {
			return nil
		}
	}
}

// awaitConsumer calls Consumer until it succeeds. It returns false once ctx
// is cancelled.
func (s *Stream) awaitConsumer(ctx context.Context) (jetstream.Consumer, bool) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return nil, false
		case <-timer.C:
		}

		opCtx, cancel := context.WithTimeout(ctx, s.cfg.SetupTimeout)
		cons, err := s.Consumer(opCtx)
		cancel()
		if err == nil {
			return cons, true
		}
		if ctx.Err() != nil {
			return nil, false
		}

		s.logger.Warn("stream consumer setup failed, retrying",
			"stream", s.cfg.StreamName,
			"attempt", attempt,
			"retryIn", s.cfg.SetupRetryWait,
			"error", err,
		)
		emitIteratorRestart(s.metrics, "setup")
		timer.Reset(s.cfg.SetupRetryWait)
	}
}

// drain consumes iter until it fails. It reports whether the iterator should
// be recreated.
func (s *Stream) drain(ctx context.Context, iter jetstream.MessagesContext, d Deliverer, backoff *retryBackoff) bool {
	for {
		msg, err := iter.Next()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, jetstream.ErrMsgIteratorClosed) {
				return ctx.Err() == nil
			}
			if errors.Is(err, jetstream.ErrNoHeartbeat) {
				s.logger.Warn("stream pull loop: no heartbeat", "error", err)
				emitIteratorRestart(s.metrics, "heartbeat")
			} else {
				s.logger.Warn("stream pull loop: iterator error, retrying", "error", err)
				emitIteratorRestart(s.metrics, "transient")
			}

			return s.sleep(ctx, backoff)
		}

		backoff.Reset()
		s.dispose(ctx, msg, d.Deliver(ctx, msg.Subject(), string(msg.Data())))
	}
}

func (s *Stream) dispose(ctx context.Context, msg jetstream.Msg, err error) {
	var ackErr error
	switch {
	case err == nil:
		ackErr = msg.Ack()
	case types.IsRejected(err), errors.Is(err, types.ErrComputationFailed):
		s.logger.Debug("terminating rejected message", "subject", msg.Subject(), "error", err)
		ackErr = msg.Term()
	default:
		s.logger.Warn("message failed, requesting redelivery", "subject", msg.Subject(), "error", err)
		ackErr = msg.Nak()
	}

	if ackErr != nil && ctx.Err() == nil {
		s.logger.Warn("failed to acknowledge message", "subject", msg.Subject(), "error", ackErr)
	}
}

// sleep waits for the next backoff delay. It returns false if ctx ended first.
func (s *Stream) sleep(ctx context.Context, backoff *retryBackoff) bool {
	delay := backoff.Next()
	emitRetryBackoff(s.metrics, delay.Seconds())

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
