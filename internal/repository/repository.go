// Package repository defines the durable task store contract shared by the
// postgres and sqlite backends.
package repository

import (
	"context"
	"time"
)

// Task is a row of the tasks table.
type Task struct {
	ID        string // surrogate key, never shown to users
	OwnerID   int64
	Text      string
	Done      bool
	CreatedAt time.Time
	Position  int64 // dense 1..N per owner
}

// Repository is the authoritative task store.
//
// All write methods are atomic per call and serialized per owner. A missing
// (owner, position) pair is reported as false or 0 with a nil error; only
// storage failures produce an error, always an *errors.AppError.
type Repository interface {
	// EnsureSchema creates the tasks relation if it does not exist.
	EnsureSchema(ctx context.Context) error

	// InsertTask appends a task at position max+1 and returns the stored row.
	InsertTask(ctx context.Context, ownerID int64, text string) (*Task, error)

	// ListTasks returns the owner's tasks ordered by position.
	ListTasks(ctx context.Context, ownerID int64) ([]*Task, error)

	// MarkDone sets done on the task at position.
	MarkDone(ctx context.Context, ownerID, position int64) (bool, error)

	// DeleteTask removes the task at position and renumbers the survivors
	// in the same transaction.
	DeleteTask(ctx context.Context, ownerID, position int64) (bool, error)

	// DeleteAll removes every task of the owner and returns how many were removed.
	DeleteAll(ctx context.Context, ownerID int64) (int64, error)

	// MarkAllDone sets done on every pending task and returns how many changed.
	MarkAllDone(ctx context.Context, ownerID int64) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}
