package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskbot/internal/errors"
	"taskbot/internal/repository"
)

func setupTestDB(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := New(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func positions(tasks []*repository.Task) []int64 {
	out := make([]int64, len(tasks))
	for i, task := range tasks {
		out[i] = task.Position
	}
	return out
}

func texts(tasks []*repository.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.Text
	}
	return out
}

func insertAll(t *testing.T, repo *SQLiteRepository, ownerID int64, items ...string) {
	t.Helper()
	for _, text := range items {
		_, err := repo.InsertTask(context.Background(), ownerID, text)
		require.NoError(t, err)
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	repo := setupTestDB(t)
	assert.NoError(t, repo.EnsureSchema(context.Background()))
}

func TestInsertTask_AssignsSequentialPositions(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	first, err := repo.InsertTask(ctx, 1, "buy milk")
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Position)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	second, err := repo.InsertTask(ctx, 1, "call mom")
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Position)
	assert.NotEqual(t, first.ID, second.ID)

	other, err := repo.InsertTask(ctx, 2, "other owner")
	require.NoError(t, err)
	assert.Equal(t, int64(1), other.Position)
}

func TestListTasks(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	t.Run("empty owner returns empty slice", func(t *testing.T) {
		tasks, err := repo.ListTasks(ctx, 42)
		require.NoError(t, err)
		assert.NotNil(t, tasks)
		assert.Empty(t, tasks)
	})

	t.Run("returns rows in position order with all fields", func(t *testing.T) {
		insertAll(t, repo, 1, "a", "b", "c")

		tasks, err := repo.ListTasks(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3}, positions(tasks))
		assert.Equal(t, []string{"a", "b", "c"}, texts(tasks))
		for _, task := range tasks {
			assert.Equal(t, int64(1), task.OwnerID)
			assert.False(t, task.Done)
		}
	})
}

func TestMarkDone(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	insertAll(t, repo, 1, "buy milk", "call mom")

	ok, err := repo.MarkDone(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkDone(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, ok, "completing twice is still a match")

	ok, err = repo.MarkDone(ctx, 1, 99)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.MarkDone(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, ok, "other owner's position must not match")

	tasks, err := repo.ListTasks(ctx, 1)
	require.NoError(t, err)
	assert.False(t, tasks[0].Done)
	assert.True(t, tasks[1].Done)
}

func TestDeleteTask_RenumbersSurvivors(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	insertAll(t, repo, 1, "first", "second", "third", "fourth")
	insertAll(t, repo, 2, "untouched")

	ok, err := repo.DeleteTask(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	tasks, err := repo.ListTasks(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, positions(tasks))
	assert.Equal(t, []string{"first", "third", "fourth"}, texts(tasks))

	ok, err = repo.DeleteTask(ctx, 1, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	tasks, err = repo.ListTasks(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, positions(tasks))
	assert.Equal(t, []string{"third", "fourth"}, texts(tasks))

	others, err := repo.ListTasks(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, positions(others))
}

func TestDeleteTask_NotFound(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	insertAll(t, repo, 1, "a", "b")

	ok, err := repo.DeleteTask(ctx, 1, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	tasks, err := repo.ListTasks(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, positions(tasks))
}

func TestDeleteTask_EqualTimestampsKeepInsertionOrder(t *testing.T) {
	frozen := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	orig := timeNow
	timeNow = func() time.Time { return frozen }
	t.Cleanup(func() { timeNow = orig })

	repo := setupTestDB(t)
	ctx := context.Background()
	insertAll(t, repo, 1, "a", "b", "c", "d")

	ok, err := repo.DeleteTask(ctx, 1, 1)
	require.NoError(t, err)
	require.True(t, ok)

	tasks, err := repo.ListTasks(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d"}, texts(tasks))
	assert.Equal(t, []int64{1, 2, 3}, positions(tasks))
}

func TestInsertTask_ClockStepBackKeepsOrder(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := []time.Time{t0, t0.Add(-time.Minute), t0.Add(time.Minute)}
	orig := timeNow
	timeNow = func() time.Time {
		now := clock[0]
		clock = clock[1:]
		return now
	}
	t.Cleanup(func() { timeNow = orig })

	repo := setupTestDB(t)
	ctx := context.Background()
	insertAll(t, repo, 1, "A", "B", "C")

	tasks, err := repo.ListTasks(ctx, 1)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.False(t, tasks[1].CreatedAt.Before(tasks[0].CreatedAt))

	ok, err := repo.DeleteTask(ctx, 1, 3)
	require.NoError(t, err)
	require.True(t, ok)

	tasks, err = repo.ListTasks(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, texts(tasks))
	assert.Equal(t, []int64{1, 2}, positions(tasks))
}

func TestDeleteAll(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	insertAll(t, repo, 1, "a", "b", "c", "d", "e")
	insertAll(t, repo, 2, "keep")

	n, err := repo.DeleteAll(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	n, err = repo.DeleteAll(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	tasks, err := repo.ListTasks(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	next, err := repo.InsertTask(ctx, 1, "fresh start")
	require.NoError(t, err)
	assert.Equal(t, int64(1), next.Position)

	others, err := repo.ListTasks(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, others, 1)
}

func TestMarkAllDone(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	insertAll(t, repo, 1, "a", "b", "c")

	_, err := repo.MarkDone(ctx, 1, 1)
	require.NoError(t, err)

	n, err := repo.MarkAllDone(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "only pending tasks are counted")

	n, err = repo.MarkAllDone(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestConcurrentInsertsSameOwner(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.InsertTask(ctx, 1, fmt.Sprintf("task %d", i))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	tasks, err := repo.ListTasks(ctx, 1)
	require.NoError(t, err)
	require.Len(t, tasks, workers)
	for i, task := range tasks {
		assert.Equal(t, int64(i+1), task.Position)
		if i > 0 {
			assert.False(t, task.CreatedAt.Before(tasks[i-1].CreatedAt))
		}
	}
}

func TestCancelledContextIsTimeout(t *testing.T) {
	repo := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.InsertTask(ctx, 1, "never stored")
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeTimeout))
}

func TestPing(t *testing.T) {
	repo := setupTestDB(t)
	assert.NoError(t, repo.Ping(context.Background()))
}

func TestClosedDatabaseReturnsDatabaseError(t *testing.T) {
	repo, err := New(filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, repo.Close())

	_, err = repo.ListTasks(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeDatabase))
}

func TestBuildDSN(t *testing.T) {
	assert.Equal(t, ":memory:", buildDSN(":memory:"))
	assert.Equal(t, "tasks.db?_pragma=busy_timeout(5000)", buildDSN("tasks.db"))
	assert.Equal(t, "file:tasks.db?mode=rwc&_pragma=busy_timeout(5000)", buildDSN("file:tasks.db?mode=rwc"))
}
