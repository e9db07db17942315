//go:build integration

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisClient(t *testing.T) redis.UniversalClient {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, client.Ping(context.Background()).Err(), "failed to connect to Redis")

	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

type target struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

func TestRedis_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewRedis[target](newTestRedisClient(t), "shortly-test-"+t.Name(), time.Minute)

	_, err := c.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	want := target{ID: 7, URL: "https://example.com"}
	require.NoError(t, c.Set(ctx, "abc", want, 0))

	got, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, c.Delete(ctx, "abc"))
	_, err = c.Get(ctx, "abc")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedis_TTL(t *testing.T) {
	ctx := context.Background()
	c := NewRedis[string](newTestRedisClient(t), "shortly-test-ttl", time.Minute)

	require.NoError(t, c.Set(ctx, "k", "v", 50*time.Millisecond))
	time.Sleep(150 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
}
