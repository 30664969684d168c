// Package fibworker provides a NATS worker that computes sequence values for
// index payloads and stores them in a shared key-value bucket.
//
// Clients publish an index as plain text on a channel subject (default
// "insert"). The worker parses each payload as a base-10 integer n, computes
//
//	f(n) = 1 for n < 2, otherwise f(n-1) + f(n-2)
//
// and writes the decimal value into a JetStream key-value bucket (default
// "values") under the original payload text. "7" and "007" therefore produce
// two entries with the same value.
//
// # Quick Start
//
//	nc, err := nats.Connect("nats://localhost:4222",
//	    nats.MaxReconnects(-1),
//	    nats.ReconnectWait(time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer nc.Drain()
//
//	cfg := fibworker.DefaultConfig()
//	w, err := fibworker.NewWorker(&cfg, nc, fibworker.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop(context.Background())
//
// # Message Handling
//
// Each message moves the worker from Idle to Computing and back. Messages are
// handled strictly one at a time, in arrival order. A payload that is not an
// integer, or whose index exceeds Config.MaxIndex, is logged and skipped; a
// failed store write is logged and dropped without retry. Neither stops the
// dispatch loop.
//
// # Transports
//
// The default core mode subscribes to the channel subject directly, so every
// running worker handles every message. Stream mode captures the channel in
// a JetStream stream consumed through one durable consumer shared by all
// workers, which adds redelivery across worker restarts.
//
// # Connection Loss
//
// The fibworker command connects with a policy that retries forever with a
// fixed delay of one second. The subscription is restored after every reconnect; messages
// published while the worker is disconnected are lost in core mode.
//
// See the examples/ directory for complete working examples.
package fibworker
