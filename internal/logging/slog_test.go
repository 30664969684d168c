package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simmonson/fib-worker/types"
)

func TestSlogLogger_ImplementsInterface(t *testing.T) {
	var _ types.Logger = (*SlogLogger)(nil)
	var _ types.Logger = (*NopLogger)(nil)
}

func TestNewSlogDefault(t *testing.T) {
	logger := NewSlogDefault()

	require.NotNil(t, logger)
	require.NotNil(t, logger.logger)
}

func TestSlogLogger_Levels(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := NewSlog(slog.New(handler))

	logger.Debug("debug message", "key", "value")
	logger.Info("stored result", "field", "10")
	logger.Warn("skipping message", "payload", "abc")
	logger.Error("store write failed", "error", "timeout")

	output := buf.String()
	assert.Contains(t, output, "level=DEBUG")
	assert.Contains(t, output, "key=value")
	assert.Contains(t, output, "level=INFO")
	assert.Contains(t, output, "field=10")
	assert.Contains(t, output, "level=WARN")
	assert.Contains(t, output, "payload=abc")
	assert.Contains(t, output, "level=ERROR")
	assert.Contains(t, output, "error=timeout")
}

func TestSlogLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	logger := NewSlog(slog.New(handler))

	// Debug and Info should be filtered out
	logger.Debug("debug message")
	logger.Info("info message")

	output := buf.String()
	assert.NotContains(t, output, "debug message")
	assert.NotContains(t, output, "info message")

	logger.Warn("warn message")
	logger.Error("error message")

	output = buf.String()
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")
}

func TestNewHandlerLogger_Formats(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewHandlerLogger(buf, "JSON", slog.LevelInfo)
		logger.Info("stored result", "field", "7")

		assert.Contains(t, buf.String(), `"msg":"stored result"`)
		assert.Contains(t, buf.String(), `"field":"7"`)
	})

	t.Run("text", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewHandlerLogger(buf, "", slog.LevelInfo)
		logger.Info("stored result", "field", "7")

		assert.Contains(t, buf.String(), "msg=\"stored result\"")
		assert.Contains(t, buf.String(), "field=7")
	})

	t.Run("level var can be raised at runtime", func(t *testing.T) {
		buf := &bytes.Buffer{}
		var lvl slog.LevelVar
		logger := NewHandlerLogger(buf, "text", &lvl)

		logger.Debug("hidden")
		lvl.Set(slog.LevelDebug)
		logger.Debug("visible")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "visible")
	})
}

func TestSlogLogger_With(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewHandlerLogger(buf, "text", slog.LevelInfo).With("worker", "w-1")
	logger.Info("started")

	assert.Contains(t, buf.String(), "worker=w-1")
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"-4", slog.LevelDebug},
		{"8", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, c := range cases {
		require.Equal(t, c.want, ParseLevel(c.in), "input %q", c.in)
	}
}

func TestNopLogger_DoesNotPanic(t *testing.T) {
	logger := NewNop()
	require.NotPanics(t, func() {
		logger.Debug("x", "k", 1)
		logger.Info("x")
		logger.Warn("x")
		logger.Error("x")
		logger.Fatal("x")
	})
}
