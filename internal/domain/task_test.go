package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTask_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		task     Task
		expected bool
	}{
		{"valid task", Task{OwnerID: 1, Text: "call mom"}, true},
		{"missing owner", Task{Text: "call mom"}, false},
		{"empty text", Task{OwnerID: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.task.IsValid())
		})
	}
}

func TestTask_String(t *testing.T) {
	assert.Equal(t, "buy milk", Task{Text: "buy milk"}.String())
}

func TestCountPending(t *testing.T) {
	tasks := []Task{
		{Position: 1, Done: true},
		{Position: 2},
		{Position: 3},
	}

	assert.Equal(t, 2, CountPending(tasks))
	assert.Equal(t, 0, CountPending(nil))
}
