package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/simmonson/fib-worker/types"
)

func TestMemory_PutGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Put(ctx, "10", "89"))

	v, err := s.Get(ctx, "10")
	require.NoError(t, err)
	require.Equal(t, "89", v)
	require.Equal(t, 1, s.Len())
}

func TestMemory_Overwrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Put(ctx, "7", "13"))
	require.NoError(t, s.Put(ctx, "7", "21"))

	v, err := s.Get(ctx, "7")
	require.NoError(t, err)
	require.Equal(t, "21", v)
	require.Equal(t, 1, s.Len())
}

func TestMemory_DistinctFields(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Put(ctx, "7", "21"))
	require.NoError(t, s.Put(ctx, "007", "21"))

	require.Equal(t, map[string]string{"7": "21", "007": "21"}, s.Snapshot())
}

func TestMemory_NotFound(t *testing.T) {
	_, err := NewMemory().Get(context.Background(), "42")
	require.ErrorIs(t, err, types.ErrResultNotFound)
}

func TestMemory_InvalidField(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	for _, field := range []string{"", "1 2", "a*", ".7"} {
		require.ErrorIs(t, s.Put(ctx, field, "1"), types.ErrInvalidField, "field %q", field)
	}
	require.Equal(t, 0, s.Len())
}

func TestMemory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, NewMemory().Put(ctx, "1", "1"), context.Canceled)
}
