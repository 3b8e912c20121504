// Package repository defines the data access interface for tasks.
//
// The sqlite subpackage provides the only implementation, backed by the
// embedded SQLite database. Absence of a record is reported through return
// values, not errors: FindByID returns (nil, false, nil) and Delete returns
// (false, nil) for an unknown ID. Update is the exception, since the caller
// handed over a record it believed existed.
package repository

import (
	"context"

	"taskvault/internal/domain"
)

// TaskRepository is the persistence contract for tasks
type TaskRepository interface {
	// CreateTable creates the tasks table if it does not exist
	CreateTable(ctx context.Context) error

	// Insert persists a new task, assigns its ID and timestamps, and
	// returns the generated ID
	Insert(ctx context.Context, task *domain.Task) (int64, error)

	// InsertMany persists all tasks in a single transaction; any invalid
	// task aborts the whole batch
	InsertMany(ctx context.Context, tasks []*domain.Task) error

	// FindByID returns the task with the given ID. The bool reports
	// whether it exists; absence is not an error.
	FindByID(ctx context.Context, id int64) (*domain.Task, bool, error)

	// FindAll returns every task ordered by ID ascending
	FindAll(ctx context.Context) ([]domain.Task, error)

	// FindByCriteria returns tasks matching all column = value pairs.
	// An empty criteria map behaves like FindAll. Unknown columns are a
	// schema error; a nil value matches NULL.
	FindByCriteria(ctx context.Context, criteria map[string]any) ([]domain.Task, error)

	// FindByTitleContains returns tasks whose title contains fragment,
	// with LIKE metacharacters in fragment treated literally
	FindByTitleContains(ctx context.Context, fragment string) ([]domain.Task, error)

	// Update persists all fields of an existing task. Updating a task
	// that does not exist is a not-found error.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes the task with the given ID and reports whether a
	// record was removed
	Delete(ctx context.Context, id int64) (bool, error)

	// Count returns the number of stored tasks
	Count(ctx context.Context) (int64, error)
}
