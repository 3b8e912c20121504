// Package sqlite implements repository.TaskRepository over the embedded
// SQLite database. All queries use bound parameters; identifier names that
// reach SQL text are validated by the schema package first.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"taskvault/internal/database"
	"taskvault/internal/domain"
	"taskvault/internal/repository"
	"taskvault/internal/schema"
)

var _ repository.TaskRepository = (*Repository)(nil)

// TasksTable is the name of the backing table
const TasksTable = "tasks"

// taskTableColumns is the canonical tasks DDL, in column order.
// Order matters: Go maps would randomize it, so this is a slice.
var taskTableColumns = []schema.Column{
	{Name: "task_id", Def: "INTEGER PRIMARY KEY AUTOINCREMENT"},
	{Name: "title", Def: "TEXT NOT NULL"},
	{Name: "description", Def: "TEXT"},
	{Name: "priority", Def: "INTEGER DEFAULT 3"},
	{Name: "due_date", Def: "DATE"},
	{Name: "completed", Def: "BOOLEAN DEFAULT 0"},
	{Name: "created_at", Def: "TIMESTAMP DEFAULT CURRENT_TIMESTAMP"},
	{Name: "updated_at", Def: "TIMESTAMP DEFAULT CURRENT_TIMESTAMP"},
}

// Repository implements repository.TaskRepository using SQLite.
// A Repository is either bound to a database handle (via New) or to an open
// transaction (inside WithTx); the operations are identical in both shapes.
type Repository struct {
	db     *database.DB // nil when transaction-bound
	tx     *sql.Tx      // nil when database-bound
	q      database.Queryer
	schema *schema.Manager
}

// New creates a repository over an open database handle
func New(db *database.DB) *Repository {
	h := db.Handle()
	return &Repository{
		db:     db,
		q:      h,
		schema: schema.NewManager(h),
	}
}

// CreateTable creates the tasks table if it does not exist
func (r *Repository) CreateTable(ctx context.Context) error {
	return r.schema.CreateTable(ctx, TasksTable, taskTableColumns)
}

// Schema exposes the schema manager bound to the same handle, for callers
// that evolve the table (add columns) alongside repository use
func (r *Repository) Schema() *schema.Manager {
	return r.schema
}

// Insert persists a new task. The task must not already have an ID; its ID
// and storage-assigned timestamps are filled in on success.
func (r *Repository) Insert(ctx context.Context, task *domain.Task) (int64, error) {
	if task.ID != 0 {
		return 0, fmt.Errorf("%w: task already has ID %d", domain.ErrValidation, task.ID)
	}
	if task.Priority == 0 {
		task.Priority = domain.DefaultPriority
	}
	if err := task.Validate(); err != nil {
		return 0, err
	}

	res, err := r.q.ExecContext(ctx, `
		INSERT INTO tasks (title, description, priority, due_date, completed)
		VALUES (?, ?, ?, ?, ?)`,
		task.Title,
		stringToNull(task.Description),
		task.Priority,
		dateToNull(task.DueDate),
		boolToInt(task.Completed),
	)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert task: last insert id: %w", err)
	}
	task.ID = id

	// Reload storage-assigned timestamps
	stored, ok, err := r.FindByID(ctx, id)
	if err != nil {
		return id, err
	}
	if ok {
		task.CreatedAt = stored.CreatedAt
		task.UpdatedAt = stored.UpdatedAt
	}

	return id, nil
}

// InsertMany persists all tasks in one transaction. Any failure rolls the
// whole batch back.
func (r *Repository) InsertMany(ctx context.Context, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	insert := func(repo *Repository) error {
		for _, task := range tasks {
			if _, err := repo.Insert(ctx, task); err != nil {
				return err
			}
		}
		return nil
	}

	if r.tx != nil {
		// Already transaction-bound, join the open transaction
		return insert(r)
	}
	return r.WithTx(ctx, insert)
}

// FindByID returns the task with the given ID; the bool reports existence
func (r *Repository) FindByID(ctx context.Context, id int64) (*domain.Task, bool, error) {
	var row taskRow
	err := r.q.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE task_id = ?", id).Scan(row.scanArgs()...)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("find task %d: %w", id, err)
	}

	return row.toDomain(), true, nil
}

// FindAll returns every task ordered by ID ascending
func (r *Repository) FindAll(ctx context.Context) ([]domain.Task, error) {
	return r.queryTasks(ctx,
		"SELECT "+taskColumns+" FROM tasks ORDER BY task_id")
}

// FindByCriteria returns tasks matching all column = value pairs, ANDed.
// Criteria keys are checked against the table's column set; the clause
// order is deterministic (sorted keys). An empty map matches everything.
func (r *Repository) FindByCriteria(ctx context.Context, criteria map[string]any) ([]domain.Task, error) {
	if len(criteria) == 0 {
		return r.FindAll(ctx)
	}

	keys := make([]string, 0, len(criteria))
	for k := range criteria {
		if !knownColumns[k] {
			return nil, fmt.Errorf("%w: unknown column %q in criteria", domain.ErrSchema, k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		v := criteria[k]
		if v == nil {
			clauses = append(clauses, k+" IS NULL")
			continue
		}
		clauses = append(clauses, k+" = ?")
		args = append(args, criterionValue(v))
	}

	query := "SELECT " + taskColumns + " FROM tasks WHERE " +
		strings.Join(clauses, " AND ") + " ORDER BY task_id"
	return r.queryTasks(ctx, query, args...)
}

// FindByTitleContains returns tasks whose title contains fragment.
// LIKE metacharacters in fragment match themselves.
func (r *Repository) FindByTitleContains(ctx context.Context, fragment string) ([]domain.Task, error) {
	pattern := "%" + escapeLike(fragment) + "%"
	return r.queryTasks(ctx,
		"SELECT "+taskColumns+` FROM tasks WHERE title LIKE ? ESCAPE '\' ORDER BY task_id`,
		pattern)
}

// Update persists all fields of an existing task and refreshes updated_at.
// Updating an unknown ID is ErrNotFound.
func (r *Repository) Update(ctx context.Context, task *domain.Task) error {
	if task.ID == 0 {
		return fmt.Errorf("%w: task has no ID", domain.ErrValidation)
	}
	if err := task.Validate(); err != nil {
		return err
	}

	res, err := r.q.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, priority = ?, due_date = ?, completed = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE task_id = ?`,
		task.Title,
		stringToNull(task.Description),
		task.Priority,
		dateToNull(task.DueDate),
		boolToInt(task.Completed),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task %d: %w", task.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task %d: rows affected: %w", task.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: task %d", domain.ErrNotFound, task.ID)
	}

	stored, ok, err := r.FindByID(ctx, task.ID)
	if err != nil {
		return err
	}
	if ok {
		task.CreatedAt = stored.CreatedAt
		task.UpdatedAt = stored.UpdatedAt
	}

	return nil
}

// Delete removes the task with the given ID and reports whether a record
// was removed. Deleting an unknown ID is not an error.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.q.ExecContext(ctx, "DELETE FROM tasks WHERE task_id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete task %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete task %d: rows affected: %w", id, err)
	}
	return n > 0, nil
}

// Count returns the number of stored tasks
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks").Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

// queryTasks runs a SELECT using taskColumns and scans all rows
func (r *Repository) queryTasks(ctx context.Context, query string, args ...any) ([]domain.Task, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var row taskRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	return tasks, nil
}
