package fibworker

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simmonson/fib-worker/store"
	fibtest "github.com/simmonson/fib-worker/testing"
)

// idleSource blocks until cancelled; tests drive Deliver directly.
type idleSource struct{}

func (idleSource) Run(ctx context.Context, _ Deliverer) error {
	<-ctx.Done()
	return nil
}

// failingStore rejects every write.
type failingStore struct {
	err   error
	calls int
}

func (f *failingStore) Put(context.Context, string, string) error {
	f.calls++
	return f.err
}

func (f *failingStore) Get(context.Context, string) (string, error) {
	return "", ErrResultNotFound
}

type panickingCalculator struct{}

func (panickingCalculator) Compute(int64) (*big.Int, error) {
	panic("boom")
}

func newMemoryWorker(t *testing.T, opts ...Option) (*Worker, *store.Memory) {
	t.Helper()

	mem := store.NewMemory()
	cfg := TestConfig()
	opts = append([]Option{
		WithStore(mem),
		WithSource(idleSource{}),
		WithLogger(fibtest.NewTestLogger(t)),
	}, opts...)

	w, err := NewWorker(&cfg, nil, opts...)
	require.NoError(t, err)

	return w, mem
}

func TestNewWorker_Validation(t *testing.T) {
	cfg := TestConfig()

	_, err := NewWorker(nil, nil)
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewWorker(&cfg, nil)
	require.ErrorIs(t, err, ErrNATSConnectionRequired)

	_, err = NewWorker(&cfg, nil, WithStore(store.NewMemory()))
	require.ErrorIs(t, err, ErrNATSConnectionRequired)

	bad := TestConfig()
	bad.Subscription.Mode = "push"
	_, err = NewWorker(&bad, nil, WithStore(store.NewMemory()), WithSource(idleSource{}))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestWorker_DeliverStoresValueUnderPayloadText(t *testing.T) {
	w, mem := newMemoryWorker(t)
	ctx := context.Background()

	require.NoError(t, w.Deliver(ctx, "insert", "10"))

	v, err := mem.Get(ctx, "10")
	require.NoError(t, err)
	require.Equal(t, "89", v)
	require.Equal(t, StateIdle, w.State())
}

func TestWorker_BaseCases(t *testing.T) {
	w, mem := newMemoryWorker(t)
	ctx := context.Background()

	for _, p := range []string{"0", "1", "-4"} {
		require.NoError(t, w.Deliver(ctx, "insert", p))
	}

	require.Equal(t, map[string]string{"0": "1", "1": "1", "-4": "1"}, mem.Snapshot())
}

func TestWorker_Idempotent(t *testing.T) {
	w, mem := newMemoryWorker(t)
	ctx := context.Background()

	require.NoError(t, w.Deliver(ctx, "insert", "12"))
	first := mem.Snapshot()
	require.NoError(t, w.Deliver(ctx, "insert", "12"))

	require.Equal(t, first, mem.Snapshot())
	require.Equal(t, "233", first["12"])
	require.Equal(t, uint64(2), w.Processed().Stored)
}

func TestWorker_DistinctTextSameValue(t *testing.T) {
	w, mem := newMemoryWorker(t)
	ctx := context.Background()

	require.NoError(t, w.Deliver(ctx, "insert", "7"))
	require.NoError(t, w.Deliver(ctx, "insert", "007"))

	require.Equal(t, map[string]string{"7": "21", "007": "21"}, mem.Snapshot())
}

func TestWorker_InvalidPayloadIsSkippedAndLoopContinues(t *testing.T) {
	var rejected []string
	hooks := &Hooks{
		OnRejected: func(_ context.Context, payload string, err error) error {
			rejected = append(rejected, payload)
			return nil
		},
	}
	w, mem := newMemoryWorker(t, WithHooks(hooks))
	ctx := context.Background()

	err := w.Deliver(ctx, "insert", "abc")
	require.ErrorIs(t, err, ErrInvalidIndex)
	require.Equal(t, StateIdle, w.State())

	// The next message is still handled.
	require.NoError(t, w.Deliver(ctx, "insert", "5"))

	require.Equal(t, map[string]string{"5": "8"}, mem.Snapshot())
	require.Equal(t, []string{"abc"}, rejected)
	require.Equal(t, Stats{Received: 2, Stored: 1, Rejected: 1}, w.Processed())
}

// countingCalculator records how often it was asked to compute.
type countingCalculator struct {
	calls int
}

func (c *countingCalculator) Compute(int64) (*big.Int, error) {
	c.calls++
	return big.NewInt(1), nil
}

func TestWorker_PayloadThatCannotBeAFieldIsRejected(t *testing.T) {
	calc := &countingCalculator{}
	w, mem := newMemoryWorker(t, WithCalculator(calc))
	ctx := context.Background()

	// "+5" parses as 5 but '+' is not allowed in a bucket key.
	err := w.Deliver(ctx, "insert", "+5")
	require.ErrorIs(t, err, ErrInvalidIndex)
	require.ErrorIs(t, err, ErrInvalidField)
	require.Zero(t, calc.calls, "nothing is computed for a payload that cannot be stored")
	require.Empty(t, mem.Snapshot())
	require.Equal(t, Stats{Received: 1, Rejected: 1}, w.Processed())

	// A negative index is a valid key and is stored as 1.
	require.NoError(t, w.Deliver(ctx, "insert", "-5"))
	require.Equal(t, map[string]string{"-5": "1"}, mem.Snapshot())
	require.Equal(t, Stats{Received: 2, Stored: 1, Rejected: 1}, w.Processed())
}

func TestWorker_IndexOverCeilingIsSkipped(t *testing.T) {
	mem := store.NewMemory()
	cfg := TestConfig()
	cfg.MaxIndex = 20

	w, err := NewWorker(&cfg, nil, WithStore(mem), WithSource(idleSource{}))
	require.NoError(t, err)

	err = w.Deliver(context.Background(), "insert", "21")
	require.ErrorIs(t, err, ErrIndexTooLarge)
	require.NoError(t, w.Deliver(context.Background(), "insert", "20"))

	require.Equal(t, map[string]string{"20": "10946"}, mem.Snapshot())
}

func TestWorker_SetMaxIndex(t *testing.T) {
	w, mem := newMemoryWorker(t)
	ctx := context.Background()

	require.True(t, w.SetMaxIndex(5))
	require.ErrorIs(t, w.Deliver(ctx, "insert", "6"), ErrIndexTooLarge)

	require.True(t, w.SetMaxIndex(0))
	require.NoError(t, w.Deliver(ctx, "insert", "6"))
	require.Equal(t, "13", mem.Snapshot()["6"])

	custom, _ := newMemoryWorker(t, WithCalculator(panickingCalculator{}))
	require.False(t, custom.SetMaxIndex(5))
}

func TestWorker_PanicIsRecovered(t *testing.T) {
	w, mem := newMemoryWorker(t, WithCalculator(panickingCalculator{}))

	var err error
	require.NotPanics(t, func() {
		err = w.Deliver(context.Background(), "insert", "3")
	})
	require.ErrorIs(t, err, ErrComputationFailed)
	require.Equal(t, StateIdle, w.State())
	require.Equal(t, 0, mem.Len())
	require.Equal(t, uint64(1), w.Processed().Rejected)
}

func TestWorker_WriteFailureIsFireAndForget(t *testing.T) {
	fs := &failingStore{err: errors.New("bucket unavailable")}
	var failed []string
	hooks := &Hooks{
		OnWriteFailed: func(_ context.Context, field string, _ error) error {
			failed = append(failed, field)
			return nil
		},
	}

	cfg := TestConfig()
	w, err := NewWorker(&cfg, nil, WithStore(fs), WithSource(idleSource{}), WithHooks(hooks))
	require.NoError(t, err)

	require.NoError(t, w.Deliver(context.Background(), "insert", "8"))
	require.Equal(t, 1, fs.calls, "exactly one write, no retry")
	require.Equal(t, []string{"8"}, failed)
	require.Equal(t, Stats{Received: 1, WriteFailures: 1}, w.Processed())
}

func TestWorker_IgnoresForeignChannel(t *testing.T) {
	w, mem := newMemoryWorker(t)

	require.NoError(t, w.Deliver(context.Background(), "other", "3"))
	require.Equal(t, 0, mem.Len())
	require.Equal(t, uint64(0), w.Processed().Received)
}

func TestWorker_StateTransitions(t *testing.T) {
	var mu sync.Mutex
	var transitions []string
	hooks := &Hooks{
		OnStateChanged: func(_ context.Context, from, to State) error {
			mu.Lock()
			defer mu.Unlock()
			transitions = append(transitions, from.String()+"->"+to.String())
			return nil
		},
		OnStored: func(_ context.Context, _, _ string) error {
			return errors.New("hook errors are only logged")
		},
	}
	w, _ := newMemoryWorker(t, WithHooks(hooks))

	require.NoError(t, w.Deliver(context.Background(), "insert", "2"))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"Idle->Computing", "Computing->Idle"}, transitions)
}

func TestWorker_SerializesDeliveries(t *testing.T) {
	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0
	hooks := &Hooks{
		OnStateChanged: func(_ context.Context, _, to State) error {
			mu.Lock()
			defer mu.Unlock()
			if to == StateComputing {
				inFlight++
				maxInFlight = max(maxInFlight, inFlight)
			} else {
				inFlight--
			}
			return nil
		},
	}
	w, mem := newMemoryWorker(t, WithHooks(hooks))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, w.Deliver(context.Background(), "insert", "30"))
		}()
	}
	wg.Wait()

	require.Equal(t, 1, maxInFlight)
	require.Equal(t, "1346269", mem.Snapshot()["30"])
}

func TestWorker_StartStop(t *testing.T) {
	w, _ := newMemoryWorker(t)
	ctx := context.Background()

	require.ErrorIs(t, w.Stop(ctx), ErrNotStarted)
	require.Nil(t, w.Done())

	require.NoError(t, w.Start(ctx))
	require.ErrorIs(t, w.Start(ctx), ErrAlreadyStarted)

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, w.Stop(stopCtx))
	require.ErrorIs(t, w.Stop(stopCtx), ErrNotStarted)

	select {
	case <-w.Done():
	default:
		t.Fatal("dispatch loop still running after Stop")
	}
	require.NoError(t, w.Err())

	// A stopped worker can be started again.
	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.Stop(stopCtx))
}

func TestWorker_SourceFailureEndsRun(t *testing.T) {
	boom := errors.New("subscription lost")
	src := subscriptionFunc(func(context.Context, Deliverer) error { return boom })

	cfg := TestConfig()
	w, err := NewWorker(&cfg, nil, WithStore(store.NewMemory()), WithSource(src))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch loop did not exit")
	}
	require.ErrorIs(t, w.Err(), boom)
}

type subscriptionFunc func(ctx context.Context, d Deliverer) error

func (f subscriptionFunc) Run(ctx context.Context, d Deliverer) error { return f(ctx, d) }
