package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReserveReturnsOwnRowKeyFirstTime(t *testing.T) {
	guard := NewInMemory(time.Hour)

	got, err := guard.Reserve(context.Background(), "req-1", "row-a")
	require.NoError(t, err)
	require.Equal(t, "row-a", got)
}

func TestReplayedKeyReturnsOriginalRowKey(t *testing.T) {
	guard := NewInMemory(time.Hour)
	ctx := context.Background()

	_, err := guard.Reserve(ctx, "req-1", "row-a")
	require.NoError(t, err)

	got, err := guard.Reserve(ctx, "req-1", "row-b")
	require.NoError(t, err)
	require.Equal(t, "row-a", got, "replay must return the first attempt's row key")
}

func TestDistinctKeysAreIndependent(t *testing.T) {
	guard := NewInMemory(time.Hour)
	ctx := context.Background()

	a, err := guard.Reserve(ctx, "req-1", "row-a")
	require.NoError(t, err)
	b, err := guard.Reserve(ctx, "req-2", "row-b")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestExpiredReservationIsReplaced(t *testing.T) {
	now := time.Now()
	guard := NewInMemory(time.Minute).WithClock(func() time.Time { return now })
	ctx := context.Background()

	_, err := guard.Reserve(ctx, "req-1", "row-a")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	got, err := guard.Reserve(ctx, "req-1", "row-b")
	require.NoError(t, err)
	require.Equal(t, "row-b", got, "expired reservation should be retaken")
}
