package domain

import (
	"fmt"
	"strings"
	"time"
)

// Priority bounds. Lower numbers are more urgent.
const (
	PriorityHighest = 1
	PriorityLowest  = 5

	// DefaultPriority is applied when a task is created without an explicit priority.
	DefaultPriority = 3
)

// Task represents a single tracked task.
//
// ID, CreatedAt, and UpdatedAt are storage-assigned: they are zero on a new
// task and populated by the repository on insert.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    int        `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTask creates a task with the default priority
func NewTask(title string) *Task {
	return &Task{
		Title:    title,
		Priority: DefaultPriority,
	}
}

// Validate checks the client-supplied fields of the task.
// Storage-assigned fields (ID, timestamps) are not validated here.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if t.Priority < PriorityHighest || t.Priority > PriorityLowest {
		return fmt.Errorf("%w: priority %d out of range [%d, %d]",
			ErrValidation, t.Priority, PriorityHighest, PriorityLowest)
	}
	return nil
}

// MarkCompleted sets the completed flag
func (t *Task) MarkCompleted() {
	t.Completed = true
}
