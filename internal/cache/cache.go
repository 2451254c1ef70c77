// Package cache holds the per-owner task list cache that sits in front of
// the durable store. The store is always authoritative; every cache failure
// degrades to a miss.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"taskbot/internal/domain"
	"taskbot/internal/logging"
)

// ErrMiss is returned by Backend.Get when the key is absent.
var ErrMiss = errors.New("cache: miss")

// DefaultKeyPrefix matches the key layout used by earlier deployments.
const DefaultKeyPrefix = "tasks:"

// Backend is a byte-oriented key/value store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value; a zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Close() error
}

// Options configures a TaskCache.
type Options struct {
	KeyPrefix string
	TTL       time.Duration
	// OpTimeout bounds each backend call. Zero leaves the caller's deadline alone.
	OpTimeout time.Duration
	Logger    *slog.Logger
}

// TaskCache stores each owner's ordered task list as one JSON value.
type TaskCache struct {
	backend Backend
	prefix  string
	ttl     time.Duration
	timeout time.Duration
	logger  *slog.Logger
}

// NewTaskCache wraps backend. A nil backend behaves as Noop.
func NewTaskCache(backend Backend, opts Options) *TaskCache {
	if backend == nil {
		backend = Noop{}
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &TaskCache{
		backend: backend,
		prefix:  prefix,
		ttl:     opts.TTL,
		timeout: opts.OpTimeout,
		logger:  logging.OrDiscard(opts.Logger),
	}
}

// Key returns the cache key for ownerID.
func (c *TaskCache) Key(ownerID int64) string {
	return c.prefix + strconv.FormatInt(ownerID, 10)
}

func (c *TaskCache) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// Get returns the cached list and true on a hit. Errors and undecodable
// payloads are logged and reported as a miss; a bad payload is also evicted.
func (c *TaskCache) Get(ctx context.Context, ownerID int64) ([]domain.Task, bool) {
	key := c.Key(ownerID)
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	data, err := c.backend.Get(opCtx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.logger.Warn("cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	tasks := []domain.Task{}
	if err := decodeTasks(data, ownerID, &tasks); err != nil {
		c.logger.Warn("discarding undecodable cache entry", "key", key, "error", err)
		if delErr := c.backend.Del(opCtx, key); delErr != nil {
			c.logger.Warn("cache evict failed", "key", key, "error", delErr)
		}
		return nil, false
	}
	return tasks, true
}

// decodeTasks unmarshals a cached list and rejects entries that do not
// belong to ownerID.
func decodeTasks(data []byte, ownerID int64, tasks *[]domain.Task) error {
	if err := json.Unmarshal(data, tasks); err != nil {
		return err
	}
	for i, task := range *tasks {
		if !task.IsValid() || task.OwnerID != ownerID {
			return fmt.Errorf("invalid task at index %d", i)
		}
	}
	return nil
}

// Put stores tasks for ownerID. Failures are logged and dropped.
func (c *TaskCache) Put(ctx context.Context, ownerID int64, tasks []domain.Task) {
	key := c.Key(ownerID)
	if tasks == nil {
		tasks = []domain.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		c.logger.Warn("cache encode failed", "key", key, "error", err)
		return
	}

	opCtx, cancel := c.opContext(ctx)
	defer cancel()
	if err := c.backend.Set(opCtx, key, data, c.ttl); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// Invalidate drops the entry for ownerID. Failures are logged and dropped.
func (c *TaskCache) Invalidate(ctx context.Context, ownerID int64) {
	key := c.Key(ownerID)
	opCtx, cancel := c.opContext(ctx)
	defer cancel()
	if err := c.backend.Del(opCtx, key); err != nil {
		c.logger.Warn("cache invalidate failed", "key", key, "error", err)
	}
}

// Close releases the backend.
func (c *TaskCache) Close() error {
	return c.backend.Close()
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (Noop) Del(context.Context, string) error { return nil }

func (Noop) Close() error { return nil }
