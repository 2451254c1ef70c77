package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"taskbot/internal/repository"
)

func TestTaskMapper_FromDatabase(t *testing.T) {
	mapper := NewTaskMapper()
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	result := mapper.FromDatabase(repository.Task{
		ID:        "0190f1c2-0000-7000-8000-000000000001",
		OwnerID:   7,
		Position:  1,
		Text:      "call mom",
		CreatedAt: created,
	})

	assert.Equal(t, Task{OwnerID: 7, Position: 1, Text: "call mom", CreatedAt: created}, result)
}

func TestTaskMapper_FromDatabaseSlice(t *testing.T) {
	mapper := NewTaskMapper()

	t.Run("preserves order and skips nil rows", func(t *testing.T) {
		rows := []*repository.Task{
			{ID: "a", OwnerID: 1, Position: 1, Text: "first"},
			nil,
			{ID: "b", OwnerID: 1, Position: 2, Text: "second"},
		}

		result := mapper.FromDatabaseSlice(rows)

		assert.Equal(t, []Task{
			{OwnerID: 1, Position: 1, Text: "first"},
			{OwnerID: 1, Position: 2, Text: "second"},
		}, result)
	})

	t.Run("nil input yields empty slice", func(t *testing.T) {
		result := mapper.FromDatabaseSlice(nil)
		assert.NotNil(t, result)
		assert.Empty(t, result)
	})
}

func TestNewMapper(t *testing.T) {
	mapper := NewMapper()
	assert.NotNil(t, mapper.Task)
}
