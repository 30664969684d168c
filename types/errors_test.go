package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSentinelErrors(t *testing.T) {
	t.Run("errors.Is works correctly", func(t *testing.T) {
		require.True(t, errors.Is(ErrInvalidIndex, ErrInvalidIndex))
		require.False(t, errors.Is(ErrInvalidIndex, ErrIndexTooLarge))

		// Wrapped errors maintain identity
		wrapped := fmt.Errorf("parse %q: %w", "abc", ErrInvalidIndex)
		require.True(t, errors.Is(wrapped, ErrInvalidIndex))
	})

	t.Run("all errors are distinct", func(t *testing.T) {
		allErrors := []error{
			ErrInvalidConfig,
			ErrNATSConnectionRequired,
			ErrAlreadyStarted,
			ErrNotStarted,
			ErrInvalidIndex,
			ErrIndexTooLarge,
			ErrComputationFailed,
			ErrResultNotFound,
			ErrInvalidField,
		}

		for i, a := range allErrors {
			for j, b := range allErrors {
				if i == j {
					continue
				}
				require.False(t, errors.Is(a, b), "%v should not match %v", a, b)
			}
		}
	})
}

func TestIsRejected(t *testing.T) {
	require.True(t, IsRejected(fmt.Errorf("wrap: %w", ErrInvalidIndex)))
	require.True(t, IsRejected(ErrIndexTooLarge))
	require.False(t, IsRejected(ErrComputationFailed))
	require.False(t, IsRejected(errors.New("nats: timeout")))
	require.False(t, IsRejected(nil))
}
