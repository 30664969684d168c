// Package types provides core type definitions and interfaces for the fib-worker module.
//
// This package contains shared types that are used across multiple packages in the
// module. By keeping these types in a separate package, we avoid import cycles
// between the root fibworker package and its internal implementations.
//
// Key types:
//   - State: Message handler state (Idle, Computing)
//   - Logger: Structured logging interface
//   - MetricsCollector: Metrics recording interface
//   - Hooks: Optional callbacks for handler events
package types
