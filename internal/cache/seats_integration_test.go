//go:build integration

package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestSeatCache_Redis(t *testing.T) {
	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7.4-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })

	c := NewSeatCache(rdb, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, ok := c.Get(ctx, 9)
	assert.False(t, ok)

	c.Set(ctx, 9, []string{"A1", "A2"})
	seats, ok := c.Get(ctx, 9)
	require.True(t, ok)
	assert.Equal(t, []string{"A1", "A2"}, seats)

	ttl, err := rdb.TTL(ctx, "cinema:seats:9").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	c.Set(ctx, 10, []string{})
	seats, ok = c.Get(ctx, 10)
	require.True(t, ok)
	assert.Empty(t, seats)

	c.Invalidate(ctx, 9)
	_, ok = c.Get(ctx, 9)
	assert.False(t, ok)
}
