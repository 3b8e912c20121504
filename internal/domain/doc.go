// Package domain defines the core types for the taskvault task tracker.
//
// Task is the single record model: a titled unit of work with a priority,
// an optional date-only due date, and a completion flag. Identity and
// timestamps are assigned by the storage layer, never by callers.
//
// The package also defines the error taxonomy shared by every layer:
// ErrConnection, ErrSchema, ErrValidation, and ErrNotFound. Layers wrap
// these sentinels with context and callers match them with errors.Is,
// so the category of a failure survives wrapping.
//
// # Design Principles
//
// - No database or external dependencies
// - Pure domain logic without infrastructure concerns
// - Date arithmetic is calendar-based, normalized to UTC midnight
package domain
