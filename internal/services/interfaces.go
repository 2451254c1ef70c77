package services

import (
	"context"

	"taskbot/internal/domain"
)

// TaskService is the only entry point the conversational layer uses.
// All errors are *errors.AppError. A missing position is reported as
// false or 0 with a nil error.
type TaskService interface {
	// Add validates text and appends it to the owner's list.
	Add(ctx context.Context, ownerID int64, text string) (*domain.Task, error)

	// List returns the owner's tasks ordered by position, never nil.
	List(ctx context.Context, ownerID int64) ([]domain.Task, error)

	Complete(ctx context.Context, ownerID, position int64) (bool, error)
	Delete(ctx context.Context, ownerID, position int64) (bool, error)

	// ClearAll and CompleteAll return how many tasks changed.
	ClearAll(ctx context.Context, ownerID int64) (int64, error)
	CompleteAll(ctx context.Context, ownerID int64) (int64, error)
}
