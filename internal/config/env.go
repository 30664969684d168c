package config

import (
	"fmt"
	"strconv"
)

// Environment variables that override file values.
const (
	EnvNATSHost    = "NATS_HOST"
	EnvNATSPort    = "NATS_PORT"
	EnvNATSURL     = "NATS_URL"
	EnvLogLevel    = "LOG_LEVEL"
	EnvMetricsAddr = "METRICS_ADDR"
)

// applyEnv overlays environment variables on cfg. Setting METRICS_ADDR also
// enables the metrics endpoint.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvNATSHost); ok && v != "" {
		cfg.NATS.Host = v
	}
	if v, ok := lookup(EnvNATSPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvNATSPort, v, err)
		}
		cfg.NATS.Port = port
	}
	if v, ok := lookup(EnvNATSURL); ok && v != "" {
		cfg.NATS.URL = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.Log.Level = v
	}
	if v, ok := lookup(EnvMetricsAddr); ok && v != "" {
		cfg.Metrics.Addr = v
		cfg.Metrics.Enabled = true
	}

	return nil
}
