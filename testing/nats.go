package testing

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// StartEmbeddedNATS starts an embedded NATS server with JetStream enabled for testing.
//
// The server runs in-process with JetStream enabled and stores data in a temporary
// directory that is automatically cleaned up when the test completes.
//
// The server uses a random available port to avoid conflicts in parallel tests.
//
// Parameters:
//   - t: Testing context for logging and cleanup
//
// Returns:
//   - *server.Server: The embedded NATS server instance
//   - *nats.Conn: Connected NATS client (closed automatically on test completion)
//
// Example:
//
//	func TestWorker(t *testing.T) {
//	    _, nc := fibtest.StartEmbeddedNATS(t)
//	    // Use nc for your tests
//	    // Server and connection are automatically cleaned up
//	}
func StartEmbeddedNATS(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()

	ns := StartEmbeddedNATSWithStore(t, t.TempDir(), -1)

	nc, err := nats.Connect(ns.ClientURL(),
		nats.Timeout(2*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(3),
	)
	if err != nil {
		t.Fatalf("Failed to connect to embedded NATS server: %v", err)
	}

	t.Cleanup(nc.Close)

	return ns, nc
}

// StartEmbeddedNATSWithStore starts an embedded server on a fixed port and
// JetStream store directory, without a client connection.
//
// Use it together with RestartEmbeddedNATS to simulate a broker outage: the
// restarted server listens on the same address and recovers the same
// JetStream state. A port of -1 picks a random available port.
//
// Parameters:
//   - t: Testing context for logging and cleanup
//   - storeDir: JetStream store directory
//   - port: Client port, or -1 for a random one
//
// Returns:
//   - *server.Server: The running server, shut down automatically on test completion
func StartEmbeddedNATSWithStore(t *testing.T, storeDir string, port int) *server.Server {
	t.Helper()

	opts := &server.Options{
		Host:      "127.0.0.1",
		Port:      port,
		JetStream: true,     // Enable JetStream for KV stores and streams
		StoreDir:  storeDir, // Survives RestartEmbeddedNATS
		NoLog:     true,     // Suppress all server logs in tests
		NoSigs:    true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		t.Fatalf("Failed to create embedded NATS server: %v", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		t.Fatal("Embedded NATS server not ready within timeout")
	}

	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	return ns
}

// RestartEmbeddedNATS shuts ns down and starts a replacement on the same port
// with the same JetStream store directory.
//
// Clients connected to ns observe a disconnect followed, once their reconnect
// policy fires, by a reconnect to the replacement.
//
// Parameters:
//   - t: Testing context for logging and cleanup
//   - ns: Running server started with StartEmbeddedNATSWithStore
//   - storeDir: The store directory ns was started with
//   - downtime: How long to keep the address closed before restarting
//
// Returns:
//   - *server.Server: The replacement server
func RestartEmbeddedNATS(t *testing.T, ns *server.Server, storeDir string, downtime time.Duration) *server.Server {
	t.Helper()

	port := ServerPort(t, ns)

	ns.Shutdown()
	ns.WaitForShutdown()

	if downtime > 0 {
		time.Sleep(downtime)
	}

	return StartEmbeddedNATSWithStore(t, storeDir, port)
}

// ServerPort returns the client port a running server listens on.
func ServerPort(t *testing.T, ns *server.Server) int {
	t.Helper()

	addr, ok := ns.Addr().(*net.TCPAddr)
	if !ok || addr == nil {
		t.Fatalf("Embedded NATS server has no TCP listen address")
	}

	return addr.Port
}

// FreePort returns a TCP port on 127.0.0.1 that nothing listens on, for
// tests that dial a server before starting it.
func FreePort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to reserve a port: %v", err)
	}
	defer func() { _ = ln.Close() }()

	addr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		t.Fatal("Listener has no TCP address")
	}

	return addr.Port
}

// CreateJetStreamKV creates a JetStream KV bucket for testing.
//
// Parameters:
//   - t: Testing context
//   - nc: NATS connection (from StartEmbeddedNATS)
//   - bucketName: Name of the KV bucket to create
//
// Returns:
//   - jetstream.KeyValue: The created KV bucket interface
//
// Example:
//
//	func TestStore(t *testing.T) {
//	    _, nc := fibtest.StartEmbeddedNATS(t)
//	    kv := fibtest.CreateJetStreamKV(t, nc, "values")
//	    // Use kv for testing
//	}
func CreateJetStreamKV(t *testing.T, nc *nats.Conn, bucketName string) jetstream.KeyValue {
	t.Helper()

	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatalf("Failed to get JetStream context: %v", err)
	}

	kv, err := js.CreateKeyValue(t.Context(), jetstream.KeyValueConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Test KV bucket: %s", bucketName),
		Storage:     jetstream.MemoryStorage,
		Replicas:    1,
	})
	if err != nil {
		t.Fatalf("Failed to create KV bucket %s: %v", bucketName, err)
	}

	return kv
}
