package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	_, found, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	value, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v", value)

	require.NoError(t, c.Invalidate(ctx, "k"))
	_, found, err = c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, found)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	require.NoError(t, c.Set(ctx, "k", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, found)
}

func TestNoopCache(t *testing.T) {
	ctx := context.Background()
	c := NewNoop()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, found)
	require.NoError(t, c.Invalidate(ctx, "k"))
}
