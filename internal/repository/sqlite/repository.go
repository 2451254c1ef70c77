package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskbot/internal/errors"
	"taskbot/internal/repository"
	"taskbot/internal/repository/sqlite/migrations"

	_ "modernc.org/sqlite"
)

// timeNow is a variable that can be replaced in tests
var timeNow = time.Now

// SQLiteRepository implements repository.Repository on an embedded SQLite file.
//
// The pool is limited to a single connection, which serializes every
// statement and therefore every same-owner write.
type SQLiteRepository struct {
	db *sql.DB
}

var _ repository.Repository = (*SQLiteRepository)(nil)

// New opens the database at dbPath. The schema is not touched; call EnsureSchema.
func New(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", buildDSN(dbPath))
	if err != nil {
		return nil, errors.NewDatabaseError("open database", err)
	}
	db.SetMaxOpenConns(1)

	return &SQLiteRepository{db: db}, nil
}

// buildDSN adds a busy timeout so a locked file waits instead of failing at once.
func buildDSN(dbPath string) string {
	if dbPath == ":memory:" || strings.Contains(dbPath, "_pragma=busy_timeout") {
		return dbPath
	}
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_pragma=busy_timeout(5000)"
}

// EnsureSchema applies any pending migrations
func (r *SQLiteRepository) EnsureSchema(ctx context.Context) error {
	if err := migrations.RunMigrations(ctx, r.db); err != nil {
		return errors.NewDatabaseError("run migrations", err)
	}
	return nil
}

// Ping checks that the database file is reachable
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return HandleDatabaseError("ping", err)
	}
	return nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// InsertTask appends a task for ownerID at position max+1
func (r *SQLiteRepository) InsertTask(ctx context.Context, ownerID int64, text string) (*repository.Task, error) {
	task := &repository.Task{
		ID:      uuid.Must(uuid.NewV7()).String(),
		OwnerID: ownerID,
		Text:    text,
	}

	err := withTx(ctx, r.db, "insert task", func(tx *sql.Tx) error {
		createdAt, err := nextCreatedAt(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		task.CreatedAt = createdAt
		query := `
		INSERT INTO tasks (id, owner_id, text, done, created_at, display_position)
		SELECT ?, ?, ?, 0, ?, COALESCE(MAX(display_position), 0) + 1
		FROM tasks WHERE owner_id = ?
		RETURNING display_position`

		return tx.QueryRowContext(ctx, query,
			task.ID, ownerID, text, FormatTimeForDB(task.CreatedAt), ownerID,
		).Scan(&task.Position)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// nextCreatedAt returns the current time, raised to the owner's latest
// created_at so a clock step backwards cannot reorder the list.
func nextCreatedAt(ctx context.Context, tx *sql.Tx, ownerID int64) (time.Time, error) {
	now := timeNow().UTC()

	var latest sql.NullString
	err := tx.QueryRowContext(ctx,
		`SELECT MAX(created_at) FROM tasks WHERE owner_id = ?`, ownerID,
	).Scan(&latest)
	if err != nil || !latest.Valid {
		return now, err
	}

	last, err := ParseTimeFromDB(latest.String)
	if err != nil {
		return time.Time{}, err
	}
	if last.After(now) {
		return last, nil
	}
	return now, nil
}

// ListTasks retrieves the owner's tasks ordered by position
func (r *SQLiteRepository) ListTasks(ctx context.Context, ownerID int64) ([]*repository.Task, error) {
	query := `SELECT ` + repository.TaskColumns + `
	FROM tasks
	WHERE owner_id = ?
	ORDER BY display_position ASC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, HandleDatabaseError("query tasks", err)
	}
	defer rows.Close()

	tasks, err := repository.ScanTasks(rows, scanTask)
	if err != nil {
		return nil, HandleDatabaseError("scan tasks", err)
	}
	return tasks, nil
}

// MarkDone sets done on the task at position
func (r *SQLiteRepository) MarkDone(ctx context.Context, ownerID, position int64) (bool, error) {
	n, err := execCount(ctx, r.db, "mark task done",
		`UPDATE tasks SET done = 1 WHERE owner_id = ? AND display_position = ?`,
		ownerID, position)
	return n > 0, err
}

// DeleteTask removes the task at position and closes the gap it leaves
func (r *SQLiteRepository) DeleteTask(ctx context.Context, ownerID, position int64) (bool, error) {
	var deleted bool
	err := withTx(ctx, r.db, "delete task", func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM tasks WHERE owner_id = ? AND display_position = ?`,
			ownerID, position)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		if err != nil || n == 0 {
			return err
		}
		deleted = true
		return renumber(ctx, tx, ownerID)
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// renumber reassigns 1..N in creation order. The unique index on
// (owner_id, display_position) is checked per row, so positions are first
// written negated and then flipped back.
func renumber(ctx context.Context, tx *sql.Tx, ownerID int64) error {
	_, err := tx.ExecContext(ctx, `
	UPDATE tasks SET display_position = -r.pos
	FROM (
		SELECT id, ROW_NUMBER() OVER (ORDER BY created_at, display_position) AS pos
		FROM tasks
		WHERE owner_id = ?
	) AS r
	WHERE tasks.id = r.id`, ownerID)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE tasks SET display_position = -display_position WHERE owner_id = ? AND display_position < 0`,
		ownerID)
	return err
}

// DeleteAll removes every task of the owner
func (r *SQLiteRepository) DeleteAll(ctx context.Context, ownerID int64) (int64, error) {
	return execCount(ctx, r.db, "delete all tasks", `DELETE FROM tasks WHERE owner_id = ?`, ownerID)
}

// MarkAllDone sets done on every pending task of the owner
func (r *SQLiteRepository) MarkAllDone(ctx context.Context, ownerID int64) (int64, error) {
	return execCount(ctx, r.db, "mark all tasks done",
		`UPDATE tasks SET done = 1 WHERE owner_id = ? AND done = 0`, ownerID)
}
