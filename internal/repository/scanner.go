package repository

// Scanner is satisfied by database/sql and pgx rows alike.
type Scanner interface {
	Scan(dest ...interface{}) error
}

// Rows is the iteration surface shared by *sql.Rows and pgx.Rows.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// TaskColumns is the column list every scan function expects, in order.
const TaskColumns = "id, owner_id, text, done, created_at, display_position"

// ScanTask scans a single task from a row selected with TaskColumns.
func ScanTask(scanner Scanner) (*Task, error) {
	task := &Task{}
	err := scanner.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Text,
		&task.Done,
		&task.CreatedAt,
		&task.Position,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ScanTasks collects every row using scanFunc. The result is never nil.
func ScanTasks(rows Rows, scanFunc func(Scanner) (*Task, error)) ([]*Task, error) {
	tasks := []*Task{}
	for rows.Next() {
		task, err := scanFunc(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}
