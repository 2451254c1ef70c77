package sqlite

import (
	"taskbot/internal/repository"
)

// scanTask reads a row selected with repository.TaskColumns. created_at is
// stored as TEXT, so it is parsed here rather than by the driver.
func scanTask(scanner repository.Scanner) (*repository.Task, error) {
	task := &repository.Task{}
	var createdAt string

	err := scanner.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Text,
		&task.Done,
		&createdAt,
		&task.Position,
	)
	if err != nil {
		return nil, err
	}

	task.CreatedAt, err = ParseTimeFromDB(createdAt)
	if err != nil {
		return nil, err
	}
	return task, nil
}
