package cache

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskbot/internal/domain"
)

type failingBackend struct {
	err   error
	calls int
}

func (f *failingBackend) Get(context.Context, string) ([]byte, error) {
	f.calls++
	return nil, f.err
}

func (f *failingBackend) Set(context.Context, string, []byte, time.Duration) error {
	f.calls++
	return f.err
}

func (f *failingBackend) Del(context.Context, string) error {
	f.calls++
	return f.err
}

func (f *failingBackend) Close() error { return nil }

func sampleTasks() []domain.Task {
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	return []domain.Task{
		{OwnerID: 42, Position: 1, Text: "buy milk", CreatedAt: created},
		{OwnerID: 42, Position: 2, Text: "call mom", Done: true, CreatedAt: created.Add(time.Minute)},
	}
}

func TestTaskCacheKey(t *testing.T) {
	c := NewTaskCache(NewMemory(), Options{})
	assert.Equal(t, "tasks:42", c.Key(42))

	custom := NewTaskCache(NewMemory(), Options{KeyPrefix: "bot:tasks:"})
	assert.Equal(t, "bot:tasks:-7", custom.Key(-7))
}

func TestTaskCachePutGetInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewTaskCache(NewMemory(), Options{})

	_, ok := c.Get(ctx, 42)
	assert.False(t, ok)

	c.Put(ctx, 42, sampleTasks())
	got, ok := c.Get(ctx, 42)
	require.True(t, ok)
	assert.Equal(t, sampleTasks(), got)

	_, ok = c.Get(ctx, 43)
	assert.False(t, ok, "entries are per owner")

	c.Invalidate(ctx, 42)
	_, ok = c.Get(ctx, 42)
	assert.False(t, ok)
}

func TestTaskCacheEmptyListIsAHit(t *testing.T) {
	ctx := context.Background()
	c := NewTaskCache(NewMemory(), Options{})

	c.Put(ctx, 1, nil)
	got, ok := c.Get(ctx, 1)
	require.True(t, ok)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestTaskCacheUndecodablePayloadIsEvicted(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	var logs bytes.Buffer
	c := NewTaskCache(mem, Options{Logger: slog.New(slog.NewTextHandler(&logs, nil))})

	require.NoError(t, mem.Set(ctx, c.Key(42), []byte("{not json"), 0))

	_, ok := c.Get(ctx, 42)
	assert.False(t, ok)
	assert.Equal(t, 0, mem.Len())
	assert.Contains(t, logs.String(), "undecodable")
}

func TestTaskCacheForeignOrInvalidEntriesAreEvicted(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	c := NewTaskCache(mem, Options{})

	for name, payload := range map[string]string{
		"other owner": `[{"owner_id":7,"position":1,"text":"a"}]`,
		"empty text":  `[{"owner_id":42,"position":1,"text":""}]`,
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, mem.Set(ctx, c.Key(42), []byte(payload), 0))

			_, ok := c.Get(ctx, 42)
			assert.False(t, ok)
			assert.Equal(t, 0, mem.Len())
		})
	}
}

func TestTaskCacheSwallowsBackendErrors(t *testing.T) {
	ctx := context.Background()
	backend := &failingBackend{err: errors.New("connection refused")}
	var logs bytes.Buffer
	c := NewTaskCache(backend, Options{Logger: slog.New(slog.NewTextHandler(&logs, nil))})

	_, ok := c.Get(ctx, 42)
	assert.False(t, ok)

	c.Put(ctx, 42, sampleTasks())
	c.Invalidate(ctx, 42)

	assert.Equal(t, 3, backend.calls)
	assert.Contains(t, logs.String(), "cache read failed")
	assert.Contains(t, logs.String(), "cache write failed")
	assert.Contains(t, logs.String(), "cache invalidate failed")
}

func TestTaskCacheMissIsNotLogged(t *testing.T) {
	var logs bytes.Buffer
	c := NewTaskCache(NewMemory(), Options{Logger: slog.New(slog.NewTextHandler(&logs, nil))})

	_, ok := c.Get(context.Background(), 5)
	assert.False(t, ok)
	assert.Empty(t, logs.String())
}

func TestTaskCacheNilBackendIsNoop(t *testing.T) {
	ctx := context.Background()
	c := NewTaskCache(nil, Options{})

	c.Put(ctx, 1, sampleTasks())
	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)
	c.Invalidate(ctx, 1)
	assert.NoError(t, c.Close())
}

type slowBackend struct{ Noop }

func (slowBackend) Get(ctx context.Context, _ string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestTaskCacheOpTimeout(t *testing.T) {
	c := NewTaskCache(slowBackend{}, Options{OpTimeout: 10 * time.Millisecond})

	start := time.Now()
	_, ok := c.Get(context.Background(), 1)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}
