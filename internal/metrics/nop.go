package metrics

import "github.com/simmonson/fib-worker/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A new no-op metrics collector instance
//
// Example:
//
//	metrics := metrics.NewNop()
//	w, err := fibworker.NewWorker(&cfg, conn, fibworker.WithMetrics(metrics))
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// WorkerMetrics implementation

// RecordMessageReceived discards the received message metric.
func (n *NopMetrics) RecordMessageReceived(_ /* channel */ string) {
	// No-op
}

// RecordComputation discards the computation metric.
func (n *NopMetrics) RecordComputation(_ /* outcome */ string, _ /* duration */ float64) {
	// No-op
}

// RecordStateTransition discards the state transition metric.
func (n *NopMetrics) RecordStateTransition(_ /* from */, _ /* to */ types.State) {
	// No-op
}

// StoreMetrics implementation

// RecordStoreOperation discards the store operation metric.
func (n *NopMetrics) RecordStoreOperation(_ /* operation */ string, _ /* success */ bool, _ /* duration */ float64) {
	// No-op
}

// ConnectionMetrics implementation

// RecordConnectionEvent discards the connection event metric.
func (n *NopMetrics) RecordConnectionEvent(_ /* event */ string) {
	// No-op
}

// RecordReconnectAttempt discards the reconnect attempt metric.
func (n *NopMetrics) RecordReconnectAttempt() {
	// No-op
}

// ConsumerMetrics implementation

// RecordIteratorRestart discards the iterator restart metric.
func (n *NopMetrics) RecordIteratorRestart(_ /* reason */ string) {
	// No-op
}

// RecordRetryBackoff discards the retry backoff metric.
func (n *NopMetrics) RecordRetryBackoff(_ /* seconds */ float64) {
	// No-op
}
