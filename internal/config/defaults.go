package config

import (
	"time"

	fibworker "github.com/simmonson/fib-worker"
	"github.com/simmonson/fib-worker/internal/natsutil"
)

// applyDefaults applies default values to configuration fields that are not set.
func applyDefaults(cfg *Config) {
	// NATS defaults
	if cfg.NATS.Mode == "" {
		cfg.NATS.Mode = ModeExternal
	}
	if cfg.NATS.Host == "" && cfg.NATS.URL == "" {
		cfg.NATS.Host = "127.0.0.1"
	}
	if cfg.NATS.Port == 0 {
		cfg.NATS.Port = 4222
	}
	if cfg.NATS.Name == "" {
		cfg.NATS.Name = "fib-worker"
	}
	if cfg.NATS.ReconnectWait == 0 {
		cfg.NATS.ReconnectWait = natsutil.DefaultReconnectWait
	}

	// Worker defaults
	fibworker.SetDefaults(&cfg.Worker)

	// Log defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	// Metrics defaults
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9090"
	}

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
}
