package sequence

import (
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/simmonson/fib-worker/types"
)

const (
	// DefaultMaxIndex is the largest index computed unless configured otherwise.
	DefaultMaxIndex int64 = 10000

	// DefaultCacheSize is the number of leading sequence values kept in memory.
	DefaultCacheSize = 1024
)

// Calculator computes sequence values with a shared memo of the leading terms.
//
// The memo always holds a contiguous prefix f(0..high), so a computation
// resumes from the nearest memoized pair instead of starting over. Memoized
// values are never handed out directly; callers get their own copy.
//
// Calculator is safe for concurrent use.
type Calculator struct {
	maxIndex  atomic.Int64
	cacheSize int64

	memo *xsync.Map[int64, *big.Int]
	high atomic.Int64 // highest memoized index; -1 when empty
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithMaxIndex sets the largest index Compute accepts. Zero or a negative
// value disables the ceiling.
func WithMaxIndex(limit int64) Option {
	return func(c *Calculator) {
		c.maxIndex.Store(limit)
	}
}

// WithCacheSize sets how many leading values are memoized. Zero disables
// the memo.
func WithCacheSize(size int) Option {
	return func(c *Calculator) {
		if size < 0 {
			size = 0
		}
		c.cacheSize = int64(size)
	}
}

// New creates a calculator with DefaultMaxIndex and DefaultCacheSize unless
// overridden by opts.
func New(opts ...Option) *Calculator {
	c := &Calculator{
		cacheSize: DefaultCacheSize,
		memo:      xsync.NewMap[int64, *big.Int](),
	}
	c.maxIndex.Store(DefaultMaxIndex)
	c.high.Store(-1)

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// MaxIndex returns the current ceiling (0 when disabled).
func (c *Calculator) MaxIndex() int64 {
	limit := c.maxIndex.Load()
	if limit < 0 {
		return 0
	}

	return limit
}

// SetMaxIndex replaces the ceiling at runtime. Zero or a negative value
// disables it.
func (c *Calculator) SetMaxIndex(limit int64) {
	c.maxIndex.Store(limit)
}

// Compute returns f(n).
//
// Negative indexes are valid and yield 1, like every n < 2.
//
// Returns:
//   - *big.Int: f(n), owned by the caller
//   - error: wraps types.ErrIndexTooLarge when n exceeds the ceiling
func (c *Calculator) Compute(n int64) (*big.Int, error) {
	if limit := c.maxIndex.Load(); limit > 0 && n > limit {
		return nil, fmt.Errorf("%w: %d exceeds %d", types.ErrIndexTooLarge, n, limit)
	}

	if n < 2 {
		return big.NewInt(1), nil
	}

	if v, ok := c.memo.Load(n); ok {
		return new(big.Int).Set(v), nil
	}

	// Resume from the highest memoized pair at or below n.
	k := min(c.high.Load(), n)
	var prev, cur *big.Int
	if k >= 1 {
		p, okPrev := c.memo.Load(k - 1)
		q, okCur := c.memo.Load(k)
		if okPrev && okCur {
			prev, cur = new(big.Int).Set(p), new(big.Int).Set(q)
		}
	}
	if cur == nil {
		k = 1
		prev, cur = big.NewInt(1), big.NewInt(1)
		c.remember(0, prev)
		c.remember(1, cur)
	}

	for ; k < n; k++ {
		prev.Add(prev, cur)
		prev, cur = cur, prev
		c.remember(k+1, cur)
	}

	return cur, nil
}

// CacheLen returns the number of memoized values.
func (c *Calculator) CacheLen() int {
	return c.memo.Size()
}

// remember memoizes f(k) when k is inside the cache window. Entries are
// only appended at high+1 so the memo stays a contiguous prefix.
func (c *Calculator) remember(k int64, v *big.Int) {
	if k >= c.cacheSize {
		return
	}

	for {
		high := c.high.Load()
		if k != high+1 {
			return
		}
		c.memo.LoadOrStore(k, new(big.Int).Set(v))
		if c.high.CompareAndSwap(high, k) {
			return
		}
	}
}
