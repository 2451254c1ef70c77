package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	apperrors "taskbot/internal/errors"
)

// schemaStatements are idempotent and run in order on every start.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id               TEXT PRIMARY KEY,
		owner_id         BIGINT NOT NULL,
		text             TEXT NOT NULL CHECK (text <> ''),
		done             BOOLEAN NOT NULL DEFAULT FALSE,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
		display_position BIGINT NOT NULL CHECK (display_position > 0),
		CONSTRAINT tasks_owner_position_key UNIQUE (owner_id, display_position) DEFERRABLE INITIALLY DEFERRED
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_owner_created ON tasks (owner_id, created_at)`,
}

// duplicateObject is raised when two processes race on CREATE ... IF NOT EXISTS.
const duplicateObject = "42P07"

// EnsureSchema creates the tasks table and its indexes if absent.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == duplicateObject {
				continue
			}
			return apperrors.FromStoreError("ensure schema", err)
		}
	}
	return nil
}
