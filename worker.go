package fibworker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/simmonson/fib-worker/internal/hooks"
	"github.com/simmonson/fib-worker/internal/kvutil"
	"github.com/simmonson/fib-worker/internal/logging"
	"github.com/simmonson/fib-worker/internal/metrics"
	"github.com/simmonson/fib-worker/internal/natsutil"
	"github.com/simmonson/fib-worker/sequence"
	"github.com/simmonson/fib-worker/store"
	"github.com/simmonson/fib-worker/subscription"
)

// Computation outcomes reported to the metrics collector.
const (
	outcomeStored       = "stored"
	outcomeWriteFailed  = "write_failed"
	outcomeInvalidIndex = "invalid_index"
	outcomeTooLarge     = "too_large"
	outcomeFailed       = "failed"
)

// Stats counts messages handled by a Worker since it was created.
type Stats struct {
	// Received is every message delivered on the worker's channel.
	Received uint64

	// Stored is messages whose value was written.
	Stored uint64

	// Rejected is messages skipped before the write (bad text, over the
	// ceiling or a failed computation).
	Rejected uint64

	// WriteFailures is messages whose value was computed but not written.
	WriteFailures uint64
}

// Worker consumes index payloads from a channel and stores computed values.
//
// Messages are handled one at a time: for each payload the worker parses
// the index, computes the sequence value and writes it into the result store
// under the original payload text. A payload that cannot be handled is
// skipped and logged; nothing stops the dispatch loop except Stop.
//
// Thread Safety:
//   - All public methods are safe for concurrent use
//   - Deliver calls are serialized; at most one message is in flight
type Worker struct {
	cfg  Config
	conn *nats.Conn

	calc    Calculator
	store   ResultStore
	source  Source
	hooks   Hooks
	metrics MetricsCollector
	logger  Logger

	state atomic.Int32 // State

	received      atomic.Uint64
	stored        atomic.Uint64
	rejected      atomic.Uint64
	writeFailures atomic.Uint64

	// setupRetryWait is the delay between attempts to open the bucket.
	setupRetryWait time.Duration

	// deliverMu serializes Deliver.
	deliverMu sync.Mutex

	mu       sync.Mutex
	starting bool
	cancel   context.CancelFunc
	done     chan struct{}
	runErr   error
}

// NewWorker creates a worker.
//
// The connection is required unless both the result store and the source are
// injected through options, in which case the worker never touches NATS.
//
// Parameters:
//   - cfg: Worker configuration (defaults are applied to unset fields)
//   - conn: NATS connection, owned by the caller
//   - opts: Optional dependencies (logger, metrics, hooks, store, calculator, source)
//
// Returns:
//   - *Worker: Initialized worker in the Idle state, not yet subscribed
//   - error: Validation error if configuration is invalid
//
// Example:
//
//	cfg := fibworker.DefaultConfig()
//	w, err := fibworker.NewWorker(&cfg, nc, fibworker.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	if err := w.Start(ctx); err != nil {
//	    return err
//	}
//	defer w.Stop(context.Background())
func NewWorker(cfg *Config, conn *nats.Conn, opts ...Option) (*Worker, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}

	options := &workerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if conn == nil && (options.store == nil || options.source == nil) {
		return nil, ErrNATSConnectionRequired
	}

	SetDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	metricsCollector := options.metrics
	if metricsCollector == nil {
		metricsCollector = metrics.NewNop()
	}

	loggerInstance := options.logger
	if loggerInstance == nil {
		loggerInstance = logging.NewNop()
	}

	cfg.ValidateWithWarnings(loggerInstance)

	calc := options.calculator
	if calc == nil {
		calc = sequence.New(
			sequence.WithMaxIndex(cfg.MaxIndex),
			sequence.WithCacheSize(cfg.CacheSize),
		)
	}

	w := &Worker{
		cfg:     *cfg,
		conn:    conn,
		calc:    calc,
		store:   options.store,
		source:  options.source,
		hooks:   hooks.Fill(options.hooks),
		metrics: metricsCollector,
		logger:  loggerInstance,

		setupRetryWait: natsutil.DefaultReconnectWait,
	}
	w.state.Store(int32(StateIdle))

	return w, nil
}

// Start opens the result store, subscribes to the channel and launches the
// dispatch loop.
//
// While the broker is unreachable, opening the results bucket is retried at
// the fixed reconnect delay, so Start blocks until the broker answers or ctx
// ends. Give it a context that ends on shutdown, not a short timeout.
//
// Parameters:
//   - ctx: Bounds store and subscription setup; it does not bound the loop
//
// Returns:
//   - error: ErrAlreadyStarted, or a setup failure
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel != nil || w.starting {
		w.mu.Unlock()
		return ErrAlreadyStarted
	}
	w.starting = true
	st, src := w.store, w.source
	w.mu.Unlock()

	// Setup runs unlocked so Done, Err and Stop stay responsive while the
	// broker is unreachable.
	var err error
	if st == nil {
		st, err = w.openStore(ctx)
	}
	if err == nil && src == nil {
		src, err = w.buildSource()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.starting = false
	if err != nil {
		return err
	}
	w.store, w.source = st, src

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w.cancel = cancel
	w.done = done
	w.runErr = nil

	go w.run(runCtx, w.source, done)

	w.logger.Info("worker started",
		"channel", w.cfg.Channel,
		"bucket", w.cfg.Bucket,
		"mode", w.cfg.Subscription.Mode,
		"maxIndex", w.cfg.MaxIndex,
	)

	return nil
}

// Stop cancels the dispatch loop and waits for it to exit.
//
// A message being handled when Stop is called is finished, including its
// store write, before the loop exits. The worker can be started again
// afterwards.
//
// Parameters:
//   - ctx: Bounds the wait for the loop to exit
//
// Returns:
//   - error: ErrNotStarted, or ctx.Err() on timeout
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()

		return ErrNotStarted
	}
	cancel, done := w.cancel, w.done
	w.cancel = nil
	w.mu.Unlock()

	cancel()

	select {
	case <-done:
		w.logger.Info("worker stopped gracefully", "stats", w.Processed())
		return nil
	case <-ctx.Done():
		w.logger.Error("shutdown timeout exceeded, dispatch loop still running")
		return ctx.Err()
	}
}

// Done returns a channel closed when the dispatch loop of the current run
// exits, either after Stop or because the source failed. It returns nil if
// the worker was never started.
func (w *Worker) Done() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.done
}

// Err returns the error the last dispatch loop exited with, if any.
func (w *Worker) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.runErr
}

// State returns the current handler state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Processed returns message counters.
func (w *Worker) Processed() Stats {
	return Stats{
		Received:      w.received.Load(),
		Stored:        w.stored.Load(),
		Rejected:      w.rejected.Load(),
		WriteFailures: w.writeFailures.Load(),
	}
}

// SetMaxIndex replaces the ceiling at runtime when the calculator supports it.
// It reports whether the new ceiling was applied.
func (w *Worker) SetMaxIndex(limit int64) bool {
	c, ok := w.calc.(interface{ SetMaxIndex(int64) })
	if !ok {
		return false
	}
	c.SetMaxIndex(limit)
	w.logger.Info("maxIndex updated", "maxIndex", limit)

	return true
}

// Deliver handles one payload received on channel.
//
// The payload is parsed as a base-10 index, the value is computed and
// exactly one write stores it under the unmodified payload text.
//
// Returns:
//   - nil: value stored, or computed but the write failed (logged, not retried)
//   - ErrInvalidIndex / ErrIndexTooLarge: payload skipped
//   - ErrComputationFailed: the computation panicked; payload skipped
func (w *Worker) Deliver(ctx context.Context, channel, payload string) error {
	if channel != w.cfg.Channel {
		w.logger.Debug("ignoring message from foreign channel", "channel", channel)
		return nil
	}

	w.deliverMu.Lock()
	defer w.deliverMu.Unlock()

	w.received.Add(1)
	w.metrics.RecordMessageReceived(channel)

	w.transitionState(ctx, StateIdle, StateComputing)
	defer w.transitionState(ctx, StateComputing, StateIdle)

	start := time.Now()
	value, err := w.compute(payload)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		w.reject(ctx, payload, err, elapsed)
		return err
	}

	// The write outlives a cancelled dispatch loop so that Stop never
	// abandons a computed value halfway.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.OperationTimeout)
	defer cancel()

	if err := w.store.Put(writeCtx, payload, value); err != nil {
		w.writeFailures.Add(1)
		w.metrics.RecordComputation(outcomeWriteFailed, elapsed)
		w.logger.Error("failed to store value",
			"field", payload,
			"reason", natsutil.FailureReason(err),
			"error", err,
		)
		if hookErr := w.hooks.OnWriteFailed(ctx, payload, err); hookErr != nil {
			w.logger.Error("write failed hook error", "field", payload, "error", hookErr)
		}

		return nil
	}

	w.stored.Add(1)
	w.metrics.RecordComputation(outcomeStored, elapsed)
	w.logger.Debug("value stored", "field", payload, "digits", len(value))
	if err := w.hooks.OnStored(ctx, payload, value); err != nil {
		w.logger.Error("stored hook error", "field", payload, "error", err)
	}

	return nil
}

// compute parses payload and returns f(index) as decimal text. A panic in
// the calculator is turned into ErrComputationFailed.
func (w *Worker) compute(payload string) (value string, err error) {
	defer func() {
		if r := recover(); r != nil {
			value, err = "", fmt.Errorf("%w: %v", ErrComputationFailed, r)
		}
	}()

	n, err := sequence.ParseIndex(payload)
	if err != nil {
		return "", err
	}

	// The payload text is the field name, so text the bucket cannot store
	// (such as "+5") is refused before any work is done.
	if !kvutil.IsValidKey(payload) {
		return "", fmt.Errorf("%w: %q cannot be used as a field: %w", ErrInvalidIndex, payload, ErrInvalidField)
	}

	v, err := w.calc.Compute(n)
	if err != nil {
		return "", err
	}

	return v.String(), nil
}

func (w *Worker) reject(ctx context.Context, payload string, err error, elapsed float64) {
	w.rejected.Add(1)

	outcome := outcomeFailed
	switch {
	case errors.Is(err, ErrInvalidIndex):
		outcome = outcomeInvalidIndex
	case errors.Is(err, ErrIndexTooLarge):
		outcome = outcomeTooLarge
	}
	w.metrics.RecordComputation(outcome, elapsed)

	if outcome == outcomeFailed {
		w.logger.Error("computation failed, message skipped", "payload", payload, "error", err)
	} else {
		w.logger.Warn("message skipped", "payload", payload, "reason", outcome, "error", err)
	}

	if hookErr := w.hooks.OnRejected(ctx, payload, err); hookErr != nil {
		w.logger.Error("rejected hook error", "payload", payload, "error", hookErr)
	}
}

// transitionState records a handler state change and triggers hooks.
func (w *Worker) transitionState(ctx context.Context, from, to State) {
	w.state.Store(int32(to)) //nolint:gosec // State values are controlled enum
	w.metrics.RecordStateTransition(from, to)

	if err := w.hooks.OnStateChanged(ctx, from, to); err != nil {
		w.logger.Error("state change hook error", "from", from, "to", to, "error", err)
	}
}

func (w *Worker) run(ctx context.Context, src Source, done chan struct{}) {
	defer close(done)

	err := src.Run(ctx, w)
	if err != nil {
		w.logger.Error("dispatch loop exited", "error", err)
	}

	w.mu.Lock()
	w.runErr = err
	w.mu.Unlock()
}

func (w *Worker) openStore(ctx context.Context) (ResultStore, error) {
	js, err := jetstream.New(w.conn)
	if err != nil {
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to open results bucket %s: %w", w.cfg.Bucket, ctx.Err())
		case <-timer.C:
		}

		setupCtx, cancel := context.WithTimeout(ctx, w.cfg.OperationTimeout)
		s, err := store.NewKV(setupCtx, js, store.KVConfig{Bucket: w.cfg.Bucket},
			store.WithLogger(w.logger),
			store.WithMetrics(w.metrics),
		)
		cancel()
		if err == nil {
			return s, nil
		}
		if errors.Is(err, jetstream.ErrInvalidBucketName) {
			return nil, err
		}

		w.logger.Warn("results bucket unavailable, retrying",
			"bucket", w.cfg.Bucket,
			"attempt", attempt,
			"retryIn", w.setupRetryWait,
			"error", err,
		)
		timer.Reset(w.setupRetryWait)
	}
}

func (w *Worker) buildSource() (Source, error) {
	switch w.cfg.Subscription.Mode {
	case ModeStream:
		js, err := jetstream.New(w.conn)
		if err != nil {
			return nil, fmt.Errorf("failed to create jetstream context: %w", err)
		}

		return subscription.NewStream(js, subscription.StreamConfig{
			Channel:         w.cfg.Channel,
			StreamName:      w.cfg.Subscription.StreamName,
			ConsumerName:    w.cfg.Subscription.ConsumerName,
			AckWait:         w.cfg.Subscription.AckWait,
			MaxDeliver:      w.cfg.Subscription.MaxDeliver,
			FetchTimeout:    w.cfg.Subscription.FetchTimeout,
			RetryBackoff:    w.cfg.Subscription.RetryBackoff,
			MaxRetryBackoff: w.cfg.Subscription.MaxRetryBackoff,
			Logger:          w.logger,
			Metrics:         w.metrics,
		})
	default:
		return subscription.NewSubject(w.conn, subscription.SubjectConfig{
			Channel: w.cfg.Channel,
			Logger:  w.logger,
			Metrics: w.metrics,
		})
	}
}

// Compile-time assertion that Worker can be fed by a Source.
var _ subscription.Deliverer = (*Worker)(nil)
