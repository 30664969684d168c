package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fibworker "github.com/simmonson/fib-worker"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := load("", noEnv)
	require.NoError(t, err)

	assert.Equal(t, ModeExternal, cfg.NATS.Mode)
	assert.Equal(t, "127.0.0.1", cfg.NATS.Host)
	assert.Equal(t, 4222, cfg.NATS.Port)
	assert.Equal(t, time.Second, cfg.NATS.ReconnectWait)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, fibworker.DefaultConfig(), cfg.Worker)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
nats:
  mode: embedded
  host: 0.0.0.0
  port: 4333
  reconnectWait: 2s
worker:
  channel: jobs
  bucket: results
  maxIndex: 500
  subscription:
    mode: stream
    ackWait: 45s
log:
  level: debug
  format: json
metrics:
  enabled: true
  addr: ":9191"
shutdownTimeout: 3s
`)

	cfg, err := load(path, noEnv)
	require.NoError(t, err)

	assert.Equal(t, ModeEmbedded, cfg.NATS.Mode)
	assert.Equal(t, "0.0.0.0", cfg.NATS.Host)
	assert.Equal(t, 4333, cfg.NATS.Port)
	assert.Equal(t, 2*time.Second, cfg.NATS.ReconnectWait)
	assert.Equal(t, "jobs", cfg.Worker.Channel)
	assert.Equal(t, "results", cfg.Worker.Bucket)
	assert.Equal(t, int64(500), cfg.Worker.MaxIndex)
	assert.Equal(t, fibworker.ModeStream, cfg.Worker.Subscription.Mode)
	assert.Equal(t, 45*time.Second, cfg.Worker.Subscription.AckWait)
	assert.Equal(t, fibworker.DefaultConfig().Subscription.ConsumerName, cfg.Worker.Subscription.ConsumerName)
	assert.Equal(t, fibworker.DefaultConfig().CacheSize, cfg.Worker.CacheSize)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9191", cfg.Metrics.Addr)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_ExplicitZeroMaxIndexDisablesCeiling(t *testing.T) {
	path := writeConfig(t, "worker:\n  maxIndex: 0\n")

	cfg, err := load(path, noEnv)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cfg.Worker.MaxIndex)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "nats:\n  host: file-host\n  port: 1111\nlog:\n  level: warn\n")

	cfg, err := load(path, envMap(map[string]string{
		EnvNATSHost:    "env-host",
		EnvNATSPort:    "5222",
		EnvLogLevel:    "debug",
		EnvMetricsAddr: ":9999",
	}))
	require.NoError(t, err)

	assert.Equal(t, "env-host", cfg.NATS.Host)
	assert.Equal(t, 5222, cfg.NATS.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9999", cfg.Metrics.Addr)

	url, err := cfg.NATS.Conn().ServerURL()
	require.NoError(t, err)
	assert.Equal(t, "nats://env-host:5222", url)
}

func TestLoad_EnvURLWinsOverHostPort(t *testing.T) {
	cfg, err := load("", envMap(map[string]string{
		EnvNATSHost: "ignored",
		EnvNATSURL:  "nats://broker:4000",
	}))
	require.NoError(t, err)

	url, err := cfg.NATS.Conn().ServerURL()
	require.NoError(t, err)
	assert.Equal(t, "nats://broker:4000", url)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "unknown nats mode", body: "nats:\n  mode: cluster\n"},
		{name: "port out of range", body: "nats:\n  port: 70000\n"},
		{name: "negative reconnect wait", body: "nats:\n  reconnectWait: -1s\n"},
		{name: "unknown log format", body: "log:\n  format: xml\n"},
		{name: "unknown subscription mode", body: "worker:\n  subscription:\n    mode: push\n"},
		{name: "negative max index", body: "worker:\n  maxIndex: -1\n"},
		{name: "negative shutdown timeout", body: "shutdownTimeout: -5s\n"},
		{name: "malformed yaml", body: "nats: [\n"},
		{name: "bad port env", body: "", env: map[string]string{EnvNATSPort: "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.body)
			_, err := load(path, envMap(tt.env))
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestWorkerValidationErrorIsWrapped(t *testing.T) {
	path := writeConfig(t, "worker:\n  cacheSize: -3\n")

	_, err := load(path, noEnv)
	require.ErrorIs(t, err, fibworker.ErrInvalidConfig)
}
