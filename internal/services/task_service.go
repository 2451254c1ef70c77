package services

import (
	"context"
	"log/slog"
	"time"

	"taskbot/internal/cache"
	"taskbot/internal/domain"
	"taskbot/internal/errors"
	"taskbot/internal/logging"
	"taskbot/internal/repository"
	"taskbot/internal/validation"
)

const (
	DefaultQueryTimeout = 10 * time.Second
	DefaultWriteTimeout = 5 * time.Second
)

// Options tunes a TaskService. Zero values select the defaults.
type Options struct {
	QueryTimeout  time.Duration
	WriteTimeout  time.Duration
	MaxTextLength int
	Logger        *slog.Logger
}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	repo          repository.Repository
	cache         *cache.TaskCache
	mapper        *domain.Mapper
	taskValidator *validation.TaskValidator
	queryTimeout  time.Duration
	writeTimeout  time.Duration
	logger        *slog.Logger
}

// NewTaskService creates a TaskService over repo. A nil taskCache disables caching.
func NewTaskService(repo repository.Repository, taskCache *cache.TaskCache, opts Options) TaskService {
	if taskCache == nil {
		taskCache = cache.NewTaskCache(cache.Noop{}, cache.Options{Logger: opts.Logger})
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = DefaultQueryTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	return &taskServiceImpl{
		repo:          repo,
		cache:         taskCache,
		mapper:        domain.NewMapper(),
		taskValidator: validation.NewTaskValidatorWithMaxLength(opts.MaxTextLength),
		queryTimeout:  opts.QueryTimeout,
		writeTimeout:  opts.WriteTimeout,
		logger:        logging.OrDiscard(opts.Logger),
	}
}

// fail logs err once and returns it as an AppError.
func (t *taskServiceImpl) fail(operation string, ownerID int64, err error) error {
	err = errors.FromStoreError(operation, err)
	if errors.ShouldLogError(err) {
		t.logger.Error("task operation failed",
			"operation", operation,
			"owner_id", ownerID,
			"code", errors.GetErrorCode(err),
			"error", err)
	}
	return err
}

func validationFailure(err error) error {
	if ve, ok := err.(*validation.ValidationError); ok {
		return errors.NewValidationError(ve.GetUserFriendlyMessage(), ve)
	}
	return errors.NewValidationError("invalid input", err)
}

// write runs a store mutation under the write timeout and drops the owner's
// cache entry once it has committed.
func (t *taskServiceImpl) write(ctx context.Context, ownerID int64, operation string, fn func(ctx context.Context) error) error {
	writeCtx, cancel := context.WithTimeout(ctx, t.writeTimeout)
	defer cancel()

	err := fn(writeCtx)
	// A failed call may still have committed, and the caller going away must
	// not leave a stale entry either way.
	t.cache.Invalidate(context.WithoutCancel(ctx), ownerID)
	if err != nil {
		return t.fail(operation, ownerID, err)
	}
	return nil
}

// Add validates text and appends it to the owner's list.
func (t *taskServiceImpl) Add(ctx context.Context, ownerID int64, text string) (*domain.Task, error) {
	trimmed, err := t.taskValidator.GetValidTaskText(text)
	if err != nil {
		return nil, validationFailure(err)
	}

	var row *repository.Task
	err = t.write(ctx, ownerID, "add task", func(ctx context.Context) error {
		var err error
		row, err = t.repo.InsertTask(ctx, ownerID, trimmed)
		return err
	})
	if err != nil {
		return nil, err
	}

	task := t.mapper.Task.FromDatabase(*row)
	logging.Debugf("added task %d for owner %d", task.Position, ownerID)
	return &task, nil
}

// List returns the owner's tasks, served from the cache when possible.
func (t *taskServiceImpl) List(ctx context.Context, ownerID int64) ([]domain.Task, error) {
	if tasks, ok := t.cache.Get(ctx, ownerID); ok {
		return tasks, nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, t.queryTimeout)
	defer cancel()

	rows, err := t.repo.ListTasks(queryCtx, ownerID)
	if err != nil {
		return nil, t.fail("list tasks", ownerID, err)
	}

	tasks := t.mapper.Task.FromDatabaseSlice(rows)
	t.cache.Put(ctx, ownerID, tasks)
	return tasks, nil
}

func (t *taskServiceImpl) validatePosition(position int64) error {
	if err := t.taskValidator.ValidatePosition(position); err != nil {
		return validationFailure(err)
	}
	return nil
}

// Complete marks the task at position as done.
func (t *taskServiceImpl) Complete(ctx context.Context, ownerID, position int64) (bool, error) {
	if err := t.validatePosition(position); err != nil {
		return false, err
	}

	var found bool
	err := t.write(ctx, ownerID, "complete task", func(ctx context.Context) error {
		var err error
		found, err = t.repo.MarkDone(ctx, ownerID, position)
		return err
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// Delete removes the task at position; later tasks move up by one.
func (t *taskServiceImpl) Delete(ctx context.Context, ownerID, position int64) (bool, error) {
	if err := t.validatePosition(position); err != nil {
		return false, err
	}

	var found bool
	err := t.write(ctx, ownerID, "delete task", func(ctx context.Context) error {
		var err error
		found, err = t.repo.DeleteTask(ctx, ownerID, position)
		return err
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// ClearAll deletes every task of the owner.
func (t *taskServiceImpl) ClearAll(ctx context.Context, ownerID int64) (int64, error) {
	var count int64
	err := t.write(ctx, ownerID, "clear all tasks", func(ctx context.Context) error {
		var err error
		count, err = t.repo.DeleteAll(ctx, ownerID)
		return err
	})
	if err != nil {
		return 0, err
	}
	logging.Debugf("cleared %d tasks for owner %d", count, ownerID)
	return count, nil
}

// CompleteAll marks every pending task of the owner as done.
func (t *taskServiceImpl) CompleteAll(ctx context.Context, ownerID int64) (int64, error) {
	var count int64
	err := t.write(ctx, ownerID, "complete all tasks", func(ctx context.Context) error {
		var err error
		count, err = t.repo.MarkAllDone(ctx, ownerID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
