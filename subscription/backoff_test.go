package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJitterBackoff_BoundsAndCap(t *testing.T) {
	base := 200 * time.Millisecond
	capDur := 500 * time.Millisecond
	rng := newRetryRNG(42)

	prev := time.Duration(0)
	for i := 0; i < 10; i++ {
		next := jitterBackoff(prev, base, 1.6, capDur, rng)
		require.GreaterOrEqual(t, next, base)
		require.LessOrEqual(t, next, capDur)
		prev = next
	}
}

func TestJitterBackoff_FirstAttemptIsBase(t *testing.T) {
	require.Equal(t, 100*time.Millisecond, jitterBackoff(0, 100*time.Millisecond, 2, time.Second, nil))
}

func TestJitterBackoff_CapLessThanBase(t *testing.T) {
	base := 200 * time.Millisecond
	capDur := 100 * time.Millisecond
	rng := newRetryRNG(1)

	require.Equal(t, capDur, jitterBackoff(0, base, 1.6, capDur, rng))
	require.Equal(t, capDur, jitterBackoff(base, base, 1.6, capDur, rng))
}

func TestJitterBackoff_DefaultsForInvalidInputs(t *testing.T) {
	// base <= 0 falls back to 50ms, mult < 1 is clamped to 1
	next := jitterBackoff(0, 0, 0.5, 0, nil)
	require.Equal(t, 50*time.Millisecond, next)

	next = jitterBackoff(50*time.Millisecond, 0, 0.5, 0, nil)
	require.GreaterOrEqual(t, next, 50*time.Millisecond)
	require.Less(t, next, 100*time.Millisecond)
}

func TestNewRetryRNG(t *testing.T) {
	require.Nil(t, newRetryRNG(0))

	a, b := newRetryRNG(7), newRetryRNG(7)
	require.Equal(t, a.Int64(), b.Int64())
}

func TestRetryBackoff_GrowsAndResets(t *testing.T) {
	b := newRetryBackoff(100*time.Millisecond, time.Second, 3)

	first := b.Next()
	require.Equal(t, 100*time.Millisecond, first)

	for i := 0; i < 20; i++ {
		d := b.Next()
		require.GreaterOrEqual(t, d, 100*time.Millisecond)
		require.LessOrEqual(t, d, time.Second)
	}

	b.Reset()
	require.Equal(t, 100*time.Millisecond, b.Next())
}

func TestRetryBackoff_DeterministicWithSeed(t *testing.T) {
	a := newRetryBackoff(50*time.Millisecond, 2*time.Second, 11)
	b := newRetryBackoff(50*time.Millisecond, 2*time.Second, 11)

	for i := 0; i < 8; i++ {
		require.Equal(t, a.Next(), b.Next())
	}
}
