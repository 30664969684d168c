// Package testing provides test utilities for the fib-worker module.
//
// This package offers helpers for setting up test environments, particularly
// embedded NATS servers for integration testing. It follows Go's convention
// of providing testing utilities in a dedicated package (similar to net/http/httptest).
//
// Key utilities:
//   - StartEmbeddedNATS: Single NATS server with JetStream and a connected client
//   - StartEmbeddedNATSWithStore / RestartEmbeddedNATS: Broker outage simulation
//   - CreateJetStreamKV: Convenience wrapper for KV bucket creation
//   - NewTestLogger: Logger that writes through t.Logf
//
// Example usage:
//
//	import (
//	    "testing"
//	    fibtest "github.com/simmonson/fib-worker/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    _, nc := fibtest.StartEmbeddedNATS(t)
//	    // Use nc for your tests
//	}
package testing
