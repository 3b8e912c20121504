package domain

import "errors"

// Sentinel errors for the four failure categories of the data layer.
// Callers match them with errors.Is; layers wrap them with fmt.Errorf("...: %w").
var (
	// ErrConnection covers failures opening, pinging, or talking to the database.
	ErrConnection = errors.New("connection error")

	// ErrSchema covers DDL failures and references to unknown tables or columns.
	ErrSchema = errors.New("schema error")

	// ErrValidation covers client-supplied data that violates model rules.
	ErrValidation = errors.New("validation error")

	// ErrNotFound is returned when an operation targets a record that does not exist.
	ErrNotFound = errors.New("not found")
)
