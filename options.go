package fibworker

import "math/big"

// Calculator computes sequence values for parsed indexes.
//
// *sequence.Calculator is the production implementation.
type Calculator interface {
	// Compute returns f(n), or an error wrapping ErrIndexTooLarge.
	Compute(n int64) (*big.Int, error)
}

// Option configures a Worker with optional dependencies.
type Option func(*workerOptions)

// workerOptions holds optional Worker configuration.
type workerOptions struct {
	hooks      *Hooks
	metrics    MetricsCollector
	logger     Logger
	store      ResultStore
	calculator Calculator
	source     Source
}

// WithHooks sets message event hooks.
//
// Parameters:
//   - hooks: Hooks structure with callback functions
//
// Returns:
//   - Option: Functional option for NewWorker
//
// Example:
//
//	hooks := &fibworker.Hooks{
//	    OnStored: func(ctx context.Context, field, value string) error {
//	        return audit(field, value)
//	    },
//	}
//	w, err := fibworker.NewWorker(&cfg, conn, fibworker.WithHooks(hooks))
func WithHooks(hooks *Hooks) Option {
	return func(o *workerOptions) {
		o.hooks = hooks
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewWorker
//
// Example:
//
//	collector := metrics.NewPrometheus(prometheus.DefaultRegisterer, "fibworker")
//	w, err := fibworker.NewWorker(&cfg, conn, fibworker.WithMetrics(collector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *workerOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation
//
// Returns:
//   - Option: Functional option for NewWorker
//
// Example:
//
//	w, err := fibworker.NewWorker(&cfg, conn, fibworker.WithLogger(logging.NewSlogDefault()))
func WithLogger(logger Logger) Option {
	return func(o *workerOptions) {
		o.logger = logger
	}
}

// WithStore replaces the JetStream bucket with another result store.
//
// Example:
//
//	w, err := fibworker.NewWorker(&cfg, conn, fibworker.WithStore(store.NewMemory()))
func WithStore(s ResultStore) Option {
	return func(o *workerOptions) {
		o.store = s
	}
}

// WithCalculator replaces the default calculator built from Config.MaxIndex
// and Config.CacheSize.
func WithCalculator(c Calculator) Option {
	return func(o *workerOptions) {
		o.calculator = c
	}
}

// WithSource replaces the subscription built from Config.Subscription.
func WithSource(src Source) Option {
	return func(o *workerOptions) {
		o.source = src
	}
}
