// Package config loads the command-level configuration of the fib-worker
// process: broker connection, worker settings, logging and metrics.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	fibworker "github.com/simmonson/fib-worker"
	"github.com/simmonson/fib-worker/internal/natsutil"
	"gopkg.in/yaml.v3"
)

// NATS run modes.
const (
	// ModeExternal dials an existing server.
	ModeExternal = "external"

	// ModeEmbedded starts an in-process server with JetStream and dials it.
	ModeEmbedded = "embedded"
)

// Config is the root configuration structure.
type Config struct {
	NATS            NATSConfig       `yaml:"nats"`
	Worker          fibworker.Config `yaml:"worker"`
	Log             LogConfig        `yaml:"log"`
	Metrics         MetricsConfig    `yaml:"metrics"`
	ShutdownTimeout time.Duration    `yaml:"shutdownTimeout"` // e.g., "10s"
}

// NATSConfig configures the broker connection.
type NATSConfig struct {
	Mode          string        `yaml:"mode"`          // "external", "embedded"
	Host          string        `yaml:"host"`          // "127.0.0.1"
	Port          int           `yaml:"port"`          // 4222
	URL           string        `yaml:"url"`           // overrides host and port when set
	Name          string        `yaml:"name"`          // client connection name
	ReconnectWait time.Duration `yaml:"reconnectWait"` // fixed delay between attempts, e.g., "1s"
	StoreDir      string        `yaml:"storeDir"`      // JetStream directory in embedded mode
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error" or numeric
	Format string `yaml:"format"` // "text", "json"
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"` // ":9090"
}

// Conn returns the connection parameters for natsutil.Connect.
func (n NATSConfig) Conn() natsutil.ConnConfig {
	return natsutil.ConnConfig{
		URL:           n.URL,
		Host:          n.Host,
		Port:          n.Port,
		Name:          n.Name,
		ReconnectWait: n.ReconnectWait,
	}
}

// Default returns a Config with every field set to its default.
func Default() *Config {
	cfg := &Config{Worker: fibworker.DefaultConfig()}
	applyDefaults(cfg)

	return cfg
}

// Load reads configuration from a YAML file, applies defaults and
// environment overrides, then validates the result.
//
// An empty path skips the file, leaving defaults plus environment.
//
// Parameters:
//   - path: Path to the YAML configuration file, may be empty
//
// Returns:
//   - *Config: Loaded configuration
//   - error: Error if the file cannot be read, parsed or validated
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	// Worker defaults go in before decoding so that an explicit zero in the
	// file (maxIndex: 0) survives.
	cfg := &Config{Worker: fibworker.DefaultConfig()}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyDefaults(cfg)

	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validateConfig validates the configuration for logical consistency.
func validateConfig(cfg *Config) error {
	switch cfg.NATS.Mode {
	case ModeExternal, ModeEmbedded:
	default:
		return fmt.Errorf("invalid nats mode: %s (must be one of: %s, %s)", cfg.NATS.Mode, ModeExternal, ModeEmbedded)
	}

	if _, err := cfg.NATS.Conn().ServerURL(); err != nil {
		return err
	}
	if cfg.NATS.ReconnectWait < 0 {
		return errors.New("nats reconnect wait cannot be negative")
	}

	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s (must be one of: text, json)", cfg.Log.Format)
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		return errors.New("metrics address is required when metrics are enabled")
	}

	if cfg.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	return cfg.Worker.Validate()
}
