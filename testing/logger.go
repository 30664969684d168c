package testing

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/simmonson/fib-worker/internal/logging"
	"github.com/simmonson/fib-worker/types"
)

// NewTestLogger returns a debug-level text logger whose records go to t.Log,
// so output is attached to the test that produced it and shown only on
// failure or -v.
//
// Records emitted after the test has finished are dropped. NATS callbacks
// fire on their own goroutines and can outlive the test that set them up.
func NewTestLogger(t testing.TB) types.Logger {
	w := &testWriter{t: t}
	t.Cleanup(w.close)

	return &testLogger{
		SlogLogger: logging.NewHandlerLogger(w, "text", slog.LevelDebug),
		t:          t,
	}
}

// testLogger fails the test on Fatal instead of exiting the process.
type testLogger struct {
	*logging.SlogLogger
	t testing.TB
}

var _ types.Logger = (*testLogger)(nil)

// Fatal logs at error level and marks the test failed. It does not stop the
// calling goroutine, so it is safe from NATS callbacks.
func (l *testLogger) Fatal(msg string, keysAndValues ...any) {
	l.Error(msg, keysAndValues...)
	l.t.Errorf("fatal: %s", msg)
}

// testWriter forwards each slog record to t.Log until the test completes.
type testWriter struct {
	mu   sync.Mutex
	t    testing.TB
	done bool
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done {
		return len(p), nil
	}
	w.t.Log(string(bytes.TrimRight(p, "\n")))

	return len(p), nil
}

func (w *testWriter) close() {
	w.mu.Lock()
	w.done = true
	w.mu.Unlock()
}
