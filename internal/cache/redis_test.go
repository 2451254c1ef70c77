package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "taskbot/internal/errors"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)

	backend := NewRedisWithClient(redis.NewClient(&redis.Options{Addr: server.Addr()}))
	require.NoError(t, backend.Ping(context.Background()))
	t.Cleanup(func() { _ = backend.Close() })
	return backend, server
}

func TestRedisBackend(t *testing.T) {
	ctx := context.Background()
	backend, server := newTestRedis(t)

	_, err := backend.Get(ctx, "tasks:1")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, backend.Set(ctx, "tasks:1", []byte(`[]`), 0))
	assert.True(t, server.Exists("tasks:1"))
	assert.Equal(t, time.Duration(0), server.TTL("tasks:1"))

	got, err := backend.Get(ctx, "tasks:1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got)

	require.NoError(t, backend.Del(ctx, "tasks:1"))
	assert.False(t, server.Exists("tasks:1"))
}

func TestRedisBackendTTL(t *testing.T) {
	ctx := context.Background()
	backend, server := newTestRedis(t)

	require.NoError(t, backend.Set(ctx, "k", []byte("v"), time.Minute))
	assert.Equal(t, time.Minute, server.TTL("k"))

	server.FastForward(2 * time.Minute)
	_, err := backend.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestTaskCacheOverRedis(t *testing.T) {
	ctx := context.Background()
	backend, server := newTestRedis(t)
	c := NewTaskCache(backend, Options{OpTimeout: time.Second})

	c.Put(ctx, 42, sampleTasks())
	got, ok := c.Get(ctx, 42)
	require.True(t, ok)
	assert.Equal(t, sampleTasks(), got)

	// Server loss degrades to misses.
	server.Close()
	_, ok = c.Get(ctx, 42)
	assert.False(t, ok)
	c.Invalidate(ctx, 42)
}

func TestNewRedisUnreachable(t *testing.T) {
	ctx := context.Background()
	backend := NewRedis(RedisOptions{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		OpTimeout:   200 * time.Millisecond,
	})
	defer backend.Close()

	err := backend.Ping(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeUnavailable))

	c := NewTaskCache(backend, Options{OpTimeout: time.Second})
	c.Put(ctx, 1, sampleTasks())
	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)
}

func TestRedisReconnectsAfterStartupOutage(t *testing.T) {
	ctx := context.Background()
	server := miniredis.RunT(t)
	server.Close()

	backend := NewRedis(RedisOptions{
		Addr:        server.Addr(),
		DialTimeout: 200 * time.Millisecond,
		OpTimeout:   200 * time.Millisecond,
	})
	defer backend.Close()
	require.Error(t, backend.Ping(ctx))

	require.NoError(t, server.Restart())
	require.NoError(t, backend.Ping(ctx))
	require.NoError(t, backend.Set(ctx, "k", []byte("v"), 0))
	assert.True(t, server.Exists("k"))
}
