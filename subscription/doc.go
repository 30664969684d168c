// Package subscription delivers channel messages to the worker one at a time.
//
// A Source owns the subscription and runs the single dispatch loop: it waits
// for the next message, hands it to a Deliverer and only then asks for the
// following message. Two sources are provided:
//
//   - Subject: a core NATS subscription on the channel subject. Every running
//     worker receives every message (fan-out), and messages published while
//     no worker is connected are lost.
//   - Stream: a JetStream stream capturing the channel subject plus a durable
//     pull consumer shared by all workers. Each message is handled by one
//     worker and survives worker restarts.
//
// Both sources keep running across broker reconnects and across Deliverer
// errors; only context cancellation or a closed connection ends Run.
package subscription
