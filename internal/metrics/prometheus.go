package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/simmonson/fib-worker/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Collectors are created and registered lazily on first use, so constructing
// a collector that is never exercised does not touch the registerer.
type PrometheusCollector struct {
	*NopMetrics

	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	// Worker metrics
	messagesReceived    *prometheus.CounterVec
	computations        *prometheus.CounterVec
	computationDuration prometheus.Histogram
	stateTransitions    *prometheus.CounterVec
	computing           prometheus.Gauge

	// Store metrics
	storeOperations *prometheus.CounterVec
	storeLatency    *prometheus.HistogramVec

	// Connection metrics
	connectionEvents  *prometheus.CounterVec
	reconnectAttempts prometheus.Counter

	// Stream consumer metrics
	iteratorRestarts *prometheus.CounterVec
	backoffHistogram prometheus.Histogram
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "fibworker" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "fibworker"
	}

	return &PrometheusCollector{NopMetrics: NewNop(), reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.messagesReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "worker",
			Name:      "messages_received_total",
			Help:      "Total messages delivered to the handler by channel.",
		}, []string{"channel"})

		p.computations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "worker",
			Name:      "computations_total",
			Help:      "Total handler runs by outcome (stored,write_failed,invalid_index,too_large,failed).",
		}, []string{"outcome"})

		p.computationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "worker",
			Name:      "computation_duration_seconds",
			Help:      "Time spent computing a sequence value in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us .. ~2.6s
		})

		p.stateTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "worker",
			Name:      "state_transitions_total",
			Help:      "Total handler state transitions.",
		}, []string{"from", "to"})

		p.computing = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "worker",
			Name:      "computing",
			Help:      "Number of handlers currently in the Computing state.",
		})

		p.storeOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Total result store operations by operation and result (success,failure).",
		}, []string{"operation", "result"})

		p.storeLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Latency of result store operations in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms .. ~1s
		}, []string{"operation"})

		p.connectionEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "connection",
			Name:      "events_total",
			Help:      "Total broker connection events (disconnected,reconnected,closed).",
		}, []string{"event"})

		p.reconnectAttempts = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "connection",
			Name:      "reconnect_attempts_total",
			Help:      "Total scheduled reconnect attempts.",
		})

		p.iteratorRestarts = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "stream_consumer",
			Name:      "iterator_restarts_total",
			Help:      "Total iterator restarts by reason (transient,heartbeat).",
		}, []string{"reason"})

		p.backoffHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "stream_consumer",
			Name:      "retry_backoff_seconds",
			Help:      "Observed iterator retry backoff durations in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.15, 0.25, 0.5, 1, 2, 5},
		})

		p.reg.MustRegister(p.messagesReceived)
		p.reg.MustRegister(p.computations)
		p.reg.MustRegister(p.computationDuration)
		p.reg.MustRegister(p.stateTransitions)
		p.reg.MustRegister(p.computing)
		p.reg.MustRegister(p.storeOperations)
		p.reg.MustRegister(p.storeLatency)
		p.reg.MustRegister(p.connectionEvents)
		p.reg.MustRegister(p.reconnectAttempts)
		p.reg.MustRegister(p.iteratorRestarts)
		p.reg.MustRegister(p.backoffHistogram)
	})
}

// WorkerMetrics implementation

// RecordMessageReceived increments the received counter for channel.
func (p *PrometheusCollector) RecordMessageReceived(channel string) {
	p.ensureRegistered()
	p.messagesReceived.WithLabelValues(channel).Inc()
}

// RecordComputation counts the outcome and observes the computation time.
func (p *PrometheusCollector) RecordComputation(outcome string, duration float64) {
	p.ensureRegistered()
	p.computations.WithLabelValues(outcome).Inc()
	if duration > 0 {
		p.computationDuration.Observe(duration)
	}
}

// RecordStateTransition counts the transition and tracks the Computing gauge.
func (p *PrometheusCollector) RecordStateTransition(from, to types.State) {
	p.ensureRegistered()
	p.stateTransitions.WithLabelValues(from.String(), to.String()).Inc()
	switch {
	case to == types.StateComputing:
		p.computing.Inc()
	case from == types.StateComputing:
		p.computing.Dec()
	}
}

// StoreMetrics implementation

// RecordStoreOperation records the store operation result and latency.
func (p *PrometheusCollector) RecordStoreOperation(operation string, success bool, duration float64) {
	p.ensureRegistered()
	result := "success"
	if !success {
		result = "failure"
	}
	p.storeOperations.WithLabelValues(operation, result).Inc()
	p.storeLatency.WithLabelValues(operation).Observe(duration)
}

// ConnectionMetrics implementation

// RecordConnectionEvent increments the connection event counter.
func (p *PrometheusCollector) RecordConnectionEvent(event string) {
	p.ensureRegistered()
	p.connectionEvents.WithLabelValues(event).Inc()
}

// RecordReconnectAttempt increments the reconnect attempt counter.
func (p *PrometheusCollector) RecordReconnectAttempt() {
	p.ensureRegistered()
	p.reconnectAttempts.Inc()
}

// ConsumerMetrics implementation

// RecordIteratorRestart increments iterator restart reason.
func (p *PrometheusCollector) RecordIteratorRestart(reason string) {
	p.ensureRegistered()
	p.iteratorRestarts.WithLabelValues(reason).Inc()
}

// RecordRetryBackoff observes a backoff delay in seconds.
func (p *PrometheusCollector) RecordRetryBackoff(seconds float64) {
	p.ensureRegistered()
	p.backoffHistogram.Observe(seconds)
}
