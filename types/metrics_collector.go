package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// Connection callbacks are invoked from the NATS client goroutines, so all
// methods must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	WorkerMetrics
	StoreMetrics
	ConnectionMetrics
	ConsumerMetrics
}

// WorkerMetrics defines metrics for the message handler.
type WorkerMetrics interface {
	// RecordMessageReceived records a message delivered on channel.
	RecordMessageReceived(channel string)

	// RecordComputation records a finished handler run.
	//
	// Parameters:
	//   - outcome: "stored", "write_failed", "invalid_index", "too_large" or "failed"
	//   - duration: Time spent computing in seconds
	RecordComputation(outcome string, duration float64)

	// RecordStateTransition records a handler state transition.
	RecordStateTransition(from, to State)
}

// StoreMetrics defines metrics for result store operations.
type StoreMetrics interface {
	// RecordStoreOperation records a store operation latency and result.
	//
	// Parameters:
	//   - operation: "put" or "get"
	//   - success: true if the operation succeeded
	//   - duration: Time taken in seconds
	RecordStoreOperation(operation string, success bool, duration float64)
}

// ConnectionMetrics defines metrics for the broker connection lifecycle.
type ConnectionMetrics interface {
	// RecordConnectionEvent records a connection event
	// ("disconnected", "reconnected", "closed").
	RecordConnectionEvent(event string)

	// RecordReconnectAttempt records that a reconnect attempt is scheduled.
	RecordReconnectAttempt()
}

// ConsumerMetrics defines metrics for the JetStream stream consumer transport.
type ConsumerMetrics interface {
	// RecordIteratorRestart records a pull iterator restart by reason
	// ("transient", "heartbeat").
	RecordIteratorRestart(reason string)

	// RecordRetryBackoff observes a backoff delay in seconds.
	RecordRetryBackoff(seconds float64)
}
