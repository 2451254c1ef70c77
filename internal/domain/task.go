package domain

import "time"

// Task is one entry of an owner's list as seen by callers of the service.
// The storage identifier is deliberately absent: users refer to tasks by Position.
type Task struct {
	OwnerID   int64     `json:"owner_id"`
	Position  int64     `json:"position"`
	Text      string    `json:"text"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
}

// IsValid checks if the task has valid data.
func (t Task) IsValid() bool {
	return t.OwnerID != 0 && t.Text != ""
}

// String returns the task text for display purposes.
func (t Task) String() string {
	return t.Text
}

// CountPending returns how many tasks in the list are not done.
func CountPending(tasks []Task) int {
	n := 0
	for _, t := range tasks {
		if !t.Done {
			n++
		}
	}
	return n
}
