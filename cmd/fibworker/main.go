// Command fibworker subscribes to the index channel and stores computed
// sequence values in the results bucket until it is interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	fibworker "github.com/simmonson/fib-worker"
	"github.com/simmonson/fib-worker/internal/config"
	"github.com/simmonson/fib-worker/internal/logging"
	"github.com/simmonson/fib-worker/internal/metrics"
	"github.com/simmonson/fib-worker/internal/natsutil"
	"github.com/simmonson/fib-worker/types"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (defaults plus environment when empty)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "fibworker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level := new(slog.LevelVar)
	level.Set(logging.ParseLevel(cfg.Log.Level))
	logger := logging.NewHandlerLogger(os.Stderr, cfg.Log.Format, level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.NATS.Mode == config.ModeEmbedded {
		if cfg.NATS.StoreDir == "" {
			dir, err := os.MkdirTemp("", "fibworker-js-")
			if err != nil {
				return fmt.Errorf("failed to create store directory: %w", err)
			}
			defer func() { _ = os.RemoveAll(dir) }()
			cfg.NATS.StoreDir = dir
		}

		ns, err := startEmbeddedServer(cfg.NATS)
		if err != nil {
			return err
		}
		defer ns.Shutdown()
		logger.Info("embedded nats server started", "url", ns.ClientURL())
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewPrometheus(reg, "")

	closed := make(chan struct{})
	connCfg := cfg.NATS.Conn()
	connCfg.OnClosed = func() { close(closed) }

	nc, err := natsutil.Connect(connCfg, logger, collector)
	if err != nil {
		return err
	}
	defer nc.Close()

	w, err := fibworker.NewWorker(&cfg.Worker, nc,
		fibworker.WithLogger(logger),
		fibworker.WithMetrics(collector),
	)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.Addr, reg, healthCheck(w, nc), logger)
		go func() {
			if err := srv.ListenAndServe(ctx); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	// Start waits for the broker when it is down; only a signal ends the wait.
	if err := w.Start(ctx); err != nil {
		if ctx.Err() != nil {
			logger.Info("shutdown signal received before the worker started")
			return nil
		}

		return fmt.Errorf("failed to start worker: %w", err)
	}

	if configPath != "" {
		go func() {
			err := config.Watch(ctx, configPath, logger, func(next *config.Config) {
				level.Set(logging.ParseLevel(next.Log.Level))
				w.SetMaxIndex(next.Worker.MaxIndex)
			})
			if err != nil {
				logger.Warn("config hot reload disabled", "error", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case <-w.Done():
		logger.Error("dispatch loop exited", "error", w.Err())
	}

	return shutdown(w, nc, closed, cfg.ShutdownTimeout, logger)
}

func shutdown(w *fibworker.Worker, nc *nats.Conn, closed <-chan struct{}, timeout time.Duration, logger types.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	runErr := w.Err()
	if err := w.Stop(ctx); err != nil && !errors.Is(err, fibworker.ErrNotStarted) {
		logger.Error("worker stop failed", "error", err)
	}

	if err := nc.Drain(); err != nil {
		logger.Warn("connection drain failed", "error", err)
	} else {
		select {
		case <-closed:
		case <-ctx.Done():
			logger.Warn("connection drain did not finish before the shutdown timeout")
		}
	}

	logger.Info("shutdown complete", "stats", w.Processed())

	return runErr
}

// healthCheck is unhealthy while the connection is down or after the
// dispatch loop has exited.
func healthCheck(w *fibworker.Worker, nc *nats.Conn) metrics.HealthFunc {
	return func() error {
		select {
		case <-w.Done():
			return errors.New("dispatch loop exited")
		default:
		}

		if status := nc.Status(); status != nats.CONNECTED {
			return fmt.Errorf("nats connection %s", status)
		}

		return nil
	}
}

func startEmbeddedServer(cfg config.NATSConfig) (*server.Server, error) {
	opts := &server.Options{
		Host:      cfg.Host,
		Port:      cfg.Port,
		JetStream: true,
		StoreDir:  cfg.StoreDir,
		NoLog:     true,
		NoSigs:    true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedded nats server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		return nil, errors.New("embedded nats server not ready within timeout")
	}

	return ns, nil
}
