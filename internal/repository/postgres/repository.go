// Package postgres is the production task store.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskbot/internal/errors"
	"taskbot/internal/repository"
)

// Options tunes the connection pool.
type Options struct {
	MaxConns       int32
	ConnectTimeout time.Duration
}

// Repository implements repository.Repository on PostgreSQL.
//
// Every write runs in its own transaction and first takes a transaction
// scoped advisory lock keyed by owner id, so writes for one owner are
// serialized while different owners proceed in parallel.
type Repository struct {
	pool *pgxpool.Pool
}

var _ repository.Repository = (*Repository)(nil)

// New connects to databaseURL and fails fast if the server is unreachable.
func New(ctx context.Context, databaseURL string, opts Options) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.NewInvalidInputError("database url", "<redacted>", err.Error())
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.ConnectTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = opts.ConnectTimeout
	}

	connectCtx := ctx
	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}

	pool, err := pgxpool.NewWithConfig(connectCtx, cfg)
	if err != nil {
		return nil, errors.NewUnavailableError("postgres", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, errors.NewUnavailableError("postgres", err)
	}

	return NewWithPool(pool), nil
}

// NewWithPool wraps an existing pool. The repository takes ownership of it.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Close releases all pooled connections.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// Ping checks connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return errors.FromStoreError("ping", err)
	}
	return nil
}

// withOwnerTx runs fn in a transaction holding the owner's advisory lock.
// The pooled connection is released when the transaction ends, on every path.
func (r *Repository) withOwnerTx(ctx context.Context, ownerID int64, operation string, fn func(pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.FromStoreError("begin "+operation, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, ownerID); err != nil {
		return errors.FromStoreError("lock owner for "+operation, err)
	}

	if err := fn(tx); err != nil {
		return errors.FromStoreError(operation, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.FromStoreError("commit "+operation, err)
	}
	return nil
}

// InsertTask appends a task at position max+1. created_at is read from the
// clock after the lock is held and never precedes the owner's latest task,
// so creation order matches position order.
func (r *Repository) InsertTask(ctx context.Context, ownerID int64, text string) (*repository.Task, error) {
	task := &repository.Task{
		ID:      uuid.Must(uuid.NewV7()).String(),
		OwnerID: ownerID,
		Text:    text,
	}

	err := r.withOwnerTx(ctx, ownerID, "insert task", func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `
			INSERT INTO tasks (id, owner_id, text, done, created_at, display_position)
			SELECT $1, $2, $3, FALSE, GREATEST(clock_timestamp(), MAX(created_at)), COALESCE(MAX(display_position), 0) + 1
			FROM tasks WHERE owner_id = $2
			RETURNING created_at, display_position`,
			task.ID, ownerID, text,
		).Scan(&task.CreatedAt, &task.Position)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ListTasks returns the owner's tasks ordered by position.
func (r *Repository) ListTasks(ctx context.Context, ownerID int64) ([]*repository.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+repository.TaskColumns+`
		FROM tasks
		WHERE owner_id = $1
		ORDER BY display_position ASC`, ownerID)
	if err != nil {
		return nil, errors.FromStoreError("list tasks", err)
	}
	defer rows.Close()

	tasks, err := repository.ScanTasks(rows, repository.ScanTask)
	if err != nil {
		return nil, errors.FromStoreError("scan tasks", err)
	}
	return tasks, nil
}

// MarkDone sets done on the task at position.
func (r *Repository) MarkDone(ctx context.Context, ownerID, position int64) (bool, error) {
	var affected int64
	err := r.withOwnerTx(ctx, ownerID, "mark task done", func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE tasks SET done = TRUE WHERE owner_id = $1 AND display_position = $2`,
			ownerID, position)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteTask removes the task at position and renumbers the survivors.
func (r *Repository) DeleteTask(ctx context.Context, ownerID, position int64) (bool, error) {
	var deleted bool
	err := r.withOwnerTx(ctx, ownerID, "delete task", func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM tasks WHERE owner_id = $1 AND display_position = $2`,
			ownerID, position)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		deleted = true
		return renumber(ctx, tx, ownerID)
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// renumber reassigns 1..N in creation order. The unique constraint on
// (owner_id, display_position) is deferred to commit, so one statement suffices.
func renumber(ctx context.Context, tx pgx.Tx, ownerID int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE tasks SET display_position = r.pos
		FROM (
			SELECT id, ROW_NUMBER() OVER (ORDER BY created_at, display_position) AS pos
			FROM tasks
			WHERE owner_id = $1
		) AS r
		WHERE tasks.id = r.id AND tasks.display_position <> r.pos`, ownerID)
	if err != nil {
		return fmt.Errorf("renumber: %w", err)
	}
	return nil
}

// DeleteAll removes every task of the owner. No renumbering is needed.
func (r *Repository) DeleteAll(ctx context.Context, ownerID int64) (int64, error) {
	var affected int64
	err := r.withOwnerTx(ctx, ownerID, "delete all tasks", func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM tasks WHERE owner_id = $1`, ownerID)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// MarkAllDone sets done on every pending task of the owner.
func (r *Repository) MarkAllDone(ctx context.Context, ownerID int64) (int64, error) {
	var affected int64
	err := r.withOwnerTx(ctx, ownerID, "mark all tasks done", func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE tasks SET done = TRUE WHERE owner_id = $1 AND NOT done`, ownerID)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}
