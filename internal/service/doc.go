// Package service implements business logic over the task repository.
//
// TaskService validates input, applies defaults, converts the repository's
// not-found sentinel into ErrNotFound for point lookups, and implements the
// date-window queries (due within N days, overdue) by filtering in memory.
//
// Mutations publish events via EventBus so embedding applications can react
// to changes without polling.
package service
