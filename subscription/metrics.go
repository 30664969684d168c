package subscription

import "github.com/simmonson/fib-worker/types"

// emitIteratorRestart delegates the restart count to the metrics collector if provided.
func emitIteratorRestart(mc types.ConsumerMetrics, reason string) {
	if mc == nil {
		return
	}
	mc.RecordIteratorRestart(reason)
}

// emitRetryBackoff delegates backoff observation to the metrics collector if provided.
func emitRetryBackoff(mc types.ConsumerMetrics, dSec float64) {
	if mc == nil {
		return
	}
	mc.RecordRetryBackoff(dSec)
}
