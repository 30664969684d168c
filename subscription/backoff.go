package subscription

import (
	rand "math/rand/v2"
	"time"
)

// jitterBackoff computes the next retry delay using decorrelated jitter with a cap.
// See: https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter/
//
//	next = min(cap, base + rand[0, prev*mult - base))
//
// Behavior:
//   - If prev <= 0, start from base
//   - Multiplier < 1.0 falls back to 1.0 (no growth)
//   - Cap below base returns cap
func jitterBackoff(prev, base time.Duration, mult float64, capDur time.Duration, rng *rand.Rand) time.Duration {
	if base <= 0 {
		base = 50 * time.Millisecond
	}
	if mult < 1.0 {
		mult = 1.0
	}
	if capDur > 0 && capDur < base {
		return capDur
	}

	if prev <= 0 {
		return base
	}
	spread := time.Duration(float64(prev)*mult) - base
	if spread <= 0 {
		spread = base
	}

	var jitter int64
	if rng != nil {
		jitter = rng.Int64N(int64(spread))
	} else {
		jitter = rand.Int64N(int64(spread)) //nolint:gosec // non-crypto backoff jitter
	}
	next := base + time.Duration(jitter)
	if capDur > 0 && next > capDur {
		return capDur
	}

	return next
}

// newRetryRNG returns a deterministic RNG only when a non-zero seed is provided.
// When seed == 0 it returns nil so callers use the package-level PRNG instead.
//
//nolint:gosec
func newRetryRNG(seed int64) *rand.Rand {
	if seed == 0 {
		return nil
	}
	s1 := uint64(seed)
	s2 := s1 ^ 0x9e3779b97f4a7c15

	return rand.New(rand.NewPCG(s1, s2))
}

// retryBackoff tracks consecutive failures of one retry loop.
// Not safe for concurrent use.
type retryBackoff struct {
	base   time.Duration
	capDur time.Duration
	rng    *rand.Rand
	prev   time.Duration
}

func newRetryBackoff(base, capDur time.Duration, seed int64) *retryBackoff {
	return &retryBackoff{base: base, capDur: capDur, rng: newRetryRNG(seed)}
}

// Next returns the delay before the next attempt and remembers it.
func (b *retryBackoff) Next() time.Duration {
	b.prev = jitterBackoff(b.prev, b.base, retryMultiplier, b.capDur, b.rng)

	return b.prev
}

// Reset starts the next failure sequence from base again.
func (b *retryBackoff) Reset() {
	b.prev = 0
}
