package natsutil

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/simmonson/fib-worker/internal/logging"
	"github.com/simmonson/fib-worker/internal/metrics"
	"github.com/simmonson/fib-worker/types"
)

// DefaultReconnectWait is the fixed delay between reconnect attempts.
const DefaultReconnectWait = time.Second

// ConnConfig holds the broker connection parameters.
type ConnConfig struct {
	// URL is the full server URL. When empty it is built from Host and Port.
	URL string

	// Host and Port locate the server when URL is empty.
	Host string
	Port int

	// Name is the client connection name reported to the server.
	Name string

	// ReconnectWait is the fixed delay before every reconnect attempt
	// (DefaultReconnectWait if zero).
	ReconnectWait time.Duration

	// Timeout bounds the initial dial (nats default if zero).
	Timeout time.Duration

	// OnClosed, if set, runs once the connection is closed for good, after
	// Close or a completed Drain.
	OnClosed func()
}

// ServerURL returns the URL to dial, preferring URL over Host and Port.
//
// Returns:
//   - string: nats://host:port, or URL verbatim when set
//   - error: when neither URL nor Host is set, or Port is out of range
func (c ConnConfig) ServerURL() (string, error) {
	if c.URL != "" {
		return c.URL, nil
	}
	if c.Host == "" {
		return "", errors.New("nats host or url is required")
	}
	port := c.Port
	if port == 0 {
		port = nats.DefaultPort
	}
	if port < 0 || port > 65535 {
		return "", fmt.Errorf("nats port %d out of range", port)
	}

	return "nats://" + net.JoinHostPort(c.Host, strconv.Itoa(port)), nil
}

// ReconnectDelay returns a reconnect delay function that always waits the
// same duration, regardless of how many attempts were already made.
//
// A non-positive wait falls back to DefaultReconnectWait.
//
// Parameters:
//   - wait: Delay before each reconnect attempt
//
// Returns:
//   - func(int) time.Duration: Delay callback for nats.CustomReconnectDelay
func ReconnectDelay(wait time.Duration) func(attempts int) time.Duration {
	if wait <= 0 {
		wait = DefaultReconnectWait
	}

	return func(_ int) time.Duration {
		return wait
	}
}

// Options builds the client options for the fixed reconnect policy.
//
// The policy retries forever (including the very first connect) with a
// constant delay and no jitter. Connection events are logged and recorded.
func Options(cfg ConnConfig, logger types.Logger, m types.ConnectionMetrics) []nats.Option {
	if logger == nil {
		logger = logging.NewNop()
	}
	if m == nil {
		m = metrics.NewNop()
	}

	delay := ReconnectDelay(cfg.ReconnectWait)

	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(true),
		nats.CustomReconnectDelay(func(attempts int) time.Duration {
			m.RecordReconnectAttempt()
			d := delay(attempts)
			logger.Debug("scheduling reconnect", "attempt", attempts, "delay", d)

			return d
		}),
		nats.ConnectHandler(func(nc *nats.Conn) {
			m.RecordConnectionEvent("connected")
			logger.Info("connected to nats", "url", nc.ConnectedUrlRedacted())
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			m.RecordConnectionEvent("disconnected")
			if err != nil {
				logger.Warn("disconnected from nats", "error", err)
			} else {
				logger.Info("disconnected from nats")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			m.RecordConnectionEvent("reconnected")
			logger.Info("reconnected to nats", "url", nc.ConnectedUrlRedacted())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			m.RecordConnectionEvent("closed")
			logger.Info("nats connection closed")
			if cfg.OnClosed != nil {
				cfg.OnClosed()
			}
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			logger.Error("nats async error", "subject", subject, "error", err)
		}),
	}

	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, nats.Timeout(cfg.Timeout))
	}

	return opts
}

// Connect dials the server with the fixed reconnect policy.
//
// Because the first connect is retried as well, Connect succeeds even when
// the server is not reachable yet; the returned connection stays in the
// reconnecting state until the server appears.
//
// Parameters:
//   - cfg: Connection parameters
//   - logger: Logger for connection events (no-op if nil)
//   - m: Metrics for connection events (no-op if nil)
//
// Returns:
//   - *nats.Conn: The connection, owned by the caller
//   - error: Invalid parameters or a non-retryable dial error
func Connect(cfg ConnConfig, logger types.Logger, m types.ConnectionMetrics) (*nats.Conn, error) {
	url, err := cfg.ServerURL()
	if err != nil {
		return nil, err
	}

	nc, err := nats.Connect(url, Options(cfg, logger, m)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}

	return nc, nil
}
