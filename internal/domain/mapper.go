package domain

import (
	"taskbot/internal/repository"
)

// TaskMapper handles conversion between domain and database Task models.
type TaskMapper struct{}

// NewTaskMapper creates a new TaskMapper instance.
func NewTaskMapper() *TaskMapper {
	return &TaskMapper{}
}

// FromDatabase converts a database Task to a domain Task.
func (m *TaskMapper) FromDatabase(dbTask repository.Task) Task {
	return Task{
		OwnerID:   dbTask.OwnerID,
		Position:  dbTask.Position,
		Text:      dbTask.Text,
		Done:      dbTask.Done,
		CreatedAt: dbTask.CreatedAt,
	}
}

// FromDatabaseSlice converts database rows to domain Tasks, preserving order.
// A nil input yields an empty, non-nil slice.
func (m *TaskMapper) FromDatabaseSlice(dbTasks []*repository.Task) []Task {
	domainTasks := make([]Task, 0, len(dbTasks))
	for _, task := range dbTasks {
		if task == nil {
			continue
		}
		domainTasks = append(domainTasks, m.FromDatabase(*task))
	}
	return domainTasks
}

// Mapper provides a unified interface for all mapping operations.
type Mapper struct {
	Task *TaskMapper
}

// NewMapper creates a new Mapper instance with all sub-mappers.
func NewMapper() *Mapper {
	return &Mapper{
		Task: NewTaskMapper(),
	}
}
