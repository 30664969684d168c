package fibworker

import (
	"github.com/simmonson/fib-worker/store"
	"github.com/simmonson/fib-worker/subscription"
	"github.com/simmonson/fib-worker/types"
)

// Re-export types from the internal types package.
//
// Internal packages depend on `types` rather than on the root package, which
// keeps the import graph acyclic while users still get `fibworker.State`,
// `fibworker.Logger`, etc.
type (
	State            = types.State
	MetricsCollector = types.MetricsCollector
	Logger           = types.Logger
	Hooks            = types.Hooks
)

// Re-export the pluggable worker dependencies.
type (
	ResultStore = store.ResultStore
	Source      = subscription.Source
	Deliverer   = subscription.Deliverer
)

// Re-export State constants from the internal types package.
const (
	StateIdle      = types.StateIdle
	StateComputing = types.StateComputing
)
