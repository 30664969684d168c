package natsutil

import (
	"context"
	"errors"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/simmonson/fib-worker/types"
)

// Write failure reasons reported by FailureReason.
const (
	ReasonConnectivity = "connectivity"
	ReasonTimeout      = "timeout"
	ReasonInvalidField = "invalid_field"
	ReasonOther        = "other"
)

// IsConnectivityError reports whether err means the broker could not be
// reached, including while the client is reconnecting.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrDisconnected) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrConnectionReconnecting) ||
		errors.Is(err, jetstream.ErrNoStreamResponse) ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "i/o timeout")
}

// FailureReason classifies a failed store write for logs.
//
// A write that ran out of its own deadline is a timeout even though the
// broker may be fine; a rejected key never reached the broker at all.
//
// Returns:
//   - string: one of ReasonConnectivity, ReasonTimeout, ReasonInvalidField, ReasonOther
func FailureReason(err error) string {
	switch {
	case errors.Is(err, types.ErrInvalidField):
		return ReasonInvalidField
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case IsConnectivityError(err):
		return ReasonConnectivity
	default:
		return ReasonOther
	}
}
