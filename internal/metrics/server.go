package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/simmonson/fib-worker/types"
)

// HealthFunc reports whether the process is healthy. A nil error means healthy.
type HealthFunc func() error

// Server serves Prometheus metrics and a health endpoint over HTTP.
type Server struct {
	gatherer prometheus.Gatherer
	health   HealthFunc
	logger   types.Logger
	server   *http.Server
}

// NewServer creates a metrics server listening on addr.
//
// Parameters:
//   - addr: Address to listen on (e.g., ":9090")
//   - gatherer: Registry to expose (prometheus.DefaultGatherer if nil)
//   - health: Health check for /health, always healthy if nil
//   - logger: Logger for server errors
//
// Returns:
//   - *Server: Initialized server, not yet listening
func NewServer(addr string, gatherer prometheus.Gatherer, health HealthFunc, logger types.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if health == nil {
		health = func() error { return nil }
	}

	s := &Server{gatherer: gatherer, health: health, logger: logger}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", s.healthHandler)

	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the HTTP handler serving /metrics and /health.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down.
//
// Returns:
//   - error: Listener or shutdown error, nil on clean shutdown
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.Info("metrics server started", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	return s.Shutdown()
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("metrics server listen: %w", err)
	}

	return s.Serve(ctx, ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	if err := s.health(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = fmt.Fprintf(w, "%v\n", err)

		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "OK\n")
}
