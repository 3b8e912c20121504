package sqlite

import (
	"database/sql"
	"strings"
	"time"

	"taskvault/internal/domain"
)

// taskColumns is the SELECT column list for task queries.
// Order must match taskRow.scanArgs exactly.
const taskColumns = "task_id, title, description, priority, due_date, completed, created_at, updated_at"

// knownColumns is the set of columns accepted in FindByCriteria
var knownColumns = map[string]bool{
	"task_id":     true,
	"title":       true,
	"description": true,
	"priority":    true,
	"due_date":    true,
	"completed":   true,
	"created_at":  true,
	"updated_at":  true,
}

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// dateToNull converts an optional due date to its date-only storage text
func dateToNull(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: domain.DateOnly(*t).Format(domain.DateLayout), Valid: true}
}

// boolToInt converts bool to the 0/1 stored in BOOLEAN columns
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// escapeLike escapes LIKE metacharacters so a fragment matches literally.
// Pairs with ESCAPE '\' in the query.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// criterionValue converts a criteria value to its bound-parameter form
func criterionValue(v any) any {
	switch val := v.(type) {
	case bool:
		return boolToInt(val)
	case time.Time:
		return domain.DateOnly(val).Format(domain.DateLayout)
	case *time.Time:
		if val == nil {
			return nil
		}
		return domain.DateOnly(*val).Format(domain.DateLayout)
	default:
		return v
	}
}

// ============================================================================
// Task Row Scanner
// ============================================================================

// taskRow holds all columns from a task query for scanning.
// Date and timestamp columns scan as sql.NullTime: the driver converts
// declared DATE/TIMESTAMP columns to time.Time on read.
type taskRow struct {
	ID          int64
	Title       string
	Description sql.NullString
	Priority    sql.NullInt64
	DueDate     sql.NullTime
	Completed   sql.NullInt64
	CreatedAt   sql.NullTime
	UpdatedAt   sql.NullTime
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match taskColumns order exactly
func (r *taskRow) scanArgs() []any {
	return []any{
		&r.ID,          // 1 task_id
		&r.Title,       // 2 title
		&r.Description, // 3 description
		&r.Priority,    // 4 priority
		&r.DueDate,     // 5 due_date
		&r.Completed,   // 6 completed
		&r.CreatedAt,   // 7 created_at
		&r.UpdatedAt,   // 8 updated_at
	}
}

// toDomain converts the scanned row to a domain.Task
func (r *taskRow) toDomain() *domain.Task {
	task := &domain.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: nullToString(r.Description),
		Priority:    domain.DefaultPriority,
		Completed:   r.Completed.Valid && r.Completed.Int64 != 0,
		CreatedAt:   r.CreatedAt.Time,
		UpdatedAt:   r.UpdatedAt.Time,
	}

	if r.Priority.Valid {
		task.Priority = int(r.Priority.Int64)
	}

	if r.DueDate.Valid {
		due := domain.DateOnly(r.DueDate.Time)
		task.DueDate = &due
	}

	return task
}
