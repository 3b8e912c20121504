package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskvault/internal/database"
	"taskvault/internal/domain"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := database.Open(database.MemoryPath)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := New(db)
	if err := repo.CreateTable(context.Background()); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return repo
}

func mustInsert(t *testing.T, repo *Repository, task *domain.Task) *domain.Task {
	t.Helper()
	if _, err := repo.Insert(context.Background(), task); err != nil {
		t.Fatalf("insert %q: %v", task.Title, err)
	}
	return task
}

func daysFromNow(n int) *time.Time {
	d := time.Now().AddDate(0, 0, n)
	return &d
}

func TestCreateTableIdempotent(t *testing.T) {
	repo := newTestRepo(t)

	// Second create must be a no-op
	if err := repo.CreateTable(context.Background()); err != nil {
		t.Errorf("CreateTable() on existing table error: %v", err)
	}

	exists, err := repo.Schema().TableExists(context.Background(), TasksTable)
	if err != nil {
		t.Fatalf("TableExists() error: %v", err)
	}
	if !exists {
		t.Error("tasks table should exist")
	}
}

func TestInsertAndFindByID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	task := domain.NewTask("write report")
	task.Description = "quarterly numbers"
	task.Priority = 2
	task.DueDate = daysFromNow(3)

	id, err := repo.Insert(ctx, task)
	if err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	if id == 0 {
		t.Fatal("Insert() should assign a non-zero ID")
	}
	if task.ID != id {
		t.Errorf("task.ID = %d, want %d", task.ID, id)
	}
	if task.CreatedAt.IsZero() || task.UpdatedAt.IsZero() {
		t.Error("Insert() should populate storage-assigned timestamps")
	}

	got, ok, err := repo.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID() error: %v", err)
	}
	if !ok {
		t.Fatal("FindByID() should find the inserted task")
	}

	if got.Title != "write report" {
		t.Errorf("Title = %q, want %q", got.Title, "write report")
	}
	if got.Description != "quarterly numbers" {
		t.Errorf("Description = %q", got.Description)
	}
	if got.Priority != 2 {
		t.Errorf("Priority = %d, want 2", got.Priority)
	}
	if got.Completed {
		t.Error("Completed should default to false")
	}
	if got.DueDate == nil {
		t.Fatal("DueDate should round-trip")
	}
	want := domain.DateOnly(*task.DueDate)
	if !got.DueDate.Equal(want) {
		t.Errorf("DueDate = %v, want %v", got.DueDate, want)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be populated from storage")
	}
}

func TestDueDateRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Past, present, and future dates must all survive the reload after
	// insert; the DATE column comes back from the driver as time.Time
	for _, offset := range []int{-10, 0, 3, 365} {
		task := domain.NewTask("offset task")
		task.DueDate = daysFromNow(offset)

		if _, err := repo.Insert(ctx, task); err != nil {
			t.Fatalf("Insert() with due date %+d days error: %v", offset, err)
		}

		got, ok, err := repo.FindByID(ctx, task.ID)
		if err != nil || !ok {
			t.Fatalf("FindByID() after insert (%+d days): ok=%v err=%v", offset, ok, err)
		}
		if got.DueDate == nil {
			t.Fatalf("DueDate lost for offset %+d", offset)
		}
		want := domain.DateOnly(*task.DueDate)
		if !got.DueDate.Equal(want) {
			t.Errorf("DueDate (%+d days) = %v, want %v", offset, got.DueDate, want)
		}
		if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
			t.Errorf("timestamps not populated for offset %+d", offset)
		}
	}
}

func TestInsertValidation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tests := []struct {
		name string
		task *domain.Task
	}{
		{"empty title", &domain.Task{Title: ""}},
		{"whitespace title", &domain.Task{Title: "   "}},
		{"priority too high", &domain.Task{Title: "x", Priority: 6}},
		{"priority negative", &domain.Task{Title: "x", Priority: -1}},
		{"preassigned id", &domain.Task{ID: 7, Title: "x", Priority: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := repo.Insert(ctx, tt.task); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("Insert() error = %v, want ErrValidation", err)
			}
		})
	}

	// Nothing may have been persisted
	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if n != 0 {
		t.Errorf("Count() = %d, want 0 after rejected inserts", n)
	}
}

func TestInsertDefaultsPriority(t *testing.T) {
	repo := newTestRepo(t)

	task := mustInsert(t, repo, &domain.Task{Title: "no explicit priority"})
	if task.Priority != domain.DefaultPriority {
		t.Errorf("Priority = %d, want default %d", task.Priority, domain.DefaultPriority)
	}
}

func TestFindByIDAbsent(t *testing.T) {
	repo := newTestRepo(t)

	task, ok, err := repo.FindByID(context.Background(), 12345)
	if err != nil {
		t.Fatalf("FindByID() on absent id error: %v", err)
	}
	if ok || task != nil {
		t.Errorf("FindByID() = (%v, %v), want (nil, false)", task, ok)
	}
}

func TestFindAllOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		mustInsert(t, repo, domain.NewTask(title))
	}

	tasks, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll() error: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("FindAll() returned %d tasks, want 3", len(tasks))
	}

	for i := 1; i < len(tasks); i++ {
		if tasks[i-1].ID >= tasks[i].ID {
			t.Errorf("FindAll() not ordered by id: %d before %d", tasks[i-1].ID, tasks[i].ID)
		}
	}
	if tasks[0].Title != "first" || tasks[2].Title != "third" {
		t.Errorf("unexpected order: %q ... %q", tasks[0].Title, tasks[2].Title)
	}
}

func TestFindByCriteria(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := domain.NewTask("alpha")
	a.Priority = 1
	mustInsert(t, repo, a)

	b := domain.NewTask("beta")
	b.Priority = 1
	b.Completed = true
	mustInsert(t, repo, b)

	c := domain.NewTask("gamma")
	c.Priority = 4
	c.DueDate = daysFromNow(1)
	mustInsert(t, repo, c)

	t.Run("single criterion", func(t *testing.T) {
		tasks, err := repo.FindByCriteria(ctx, map[string]any{"priority": 1})
		if err != nil {
			t.Fatalf("FindByCriteria() error: %v", err)
		}
		if len(tasks) != 2 {
			t.Errorf("got %d tasks, want 2", len(tasks))
		}
	})

	t.Run("criteria are ANDed", func(t *testing.T) {
		tasks, err := repo.FindByCriteria(ctx, map[string]any{
			"priority":  1,
			"completed": false,
		})
		if err != nil {
			t.Fatalf("FindByCriteria() error: %v", err)
		}
		if len(tasks) != 1 || tasks[0].Title != "alpha" {
			t.Errorf("got %+v, want only alpha", tasks)
		}
	})

	t.Run("nil matches NULL", func(t *testing.T) {
		tasks, err := repo.FindByCriteria(ctx, map[string]any{"due_date": nil})
		if err != nil {
			t.Fatalf("FindByCriteria() error: %v", err)
		}
		if len(tasks) != 2 {
			t.Errorf("got %d tasks without due date, want 2", len(tasks))
		}
	})

	t.Run("empty criteria matches all", func(t *testing.T) {
		tasks, err := repo.FindByCriteria(ctx, map[string]any{})
		if err != nil {
			t.Fatalf("FindByCriteria() error: %v", err)
		}
		if len(tasks) != 3 {
			t.Errorf("got %d tasks, want 3", len(tasks))
		}
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := repo.FindByCriteria(ctx, map[string]any{"owner": "me"})
		if !errors.Is(err, domain.ErrSchema) {
			t.Errorf("FindByCriteria() error = %v, want ErrSchema", err)
		}
	})
}

func TestFindByTitleContains(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustInsert(t, repo, domain.NewTask("buy groceries"))
	mustInsert(t, repo, domain.NewTask("buy 100% juice"))
	mustInsert(t, repo, domain.NewTask("sell bike"))

	tasks, err := repo.FindByTitleContains(ctx, "buy")
	if err != nil {
		t.Fatalf("FindByTitleContains() error: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("got %d tasks containing 'buy', want 2", len(tasks))
	}

	// Metacharacters match literally, not as wildcards
	tasks, err = repo.FindByTitleContains(ctx, "100%")
	if err != nil {
		t.Fatalf("FindByTitleContains() error: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "buy 100% juice" {
		t.Errorf("got %+v, want only the juice task", tasks)
	}

	tasks, err = repo.FindByTitleContains(ctx, "%")
	if err != nil {
		t.Fatalf("FindByTitleContains() error: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("bare %% matched %d tasks, want 1 literal match", len(tasks))
	}
}

func TestUpdate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	task := mustInsert(t, repo, domain.NewTask("original"))

	task.Title = "renamed"
	task.Priority = 1
	task.Completed = true
	if err := repo.Update(ctx, task); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	got, ok, err := repo.FindByID(ctx, task.ID)
	if err != nil || !ok {
		t.Fatalf("FindByID() after update: ok=%v err=%v", ok, err)
	}
	if got.Title != "renamed" || got.Priority != 1 || !got.Completed {
		t.Errorf("update not persisted: %+v", got)
	}
}

func TestUpdateNotFound(t *testing.T) {
	repo := newTestRepo(t)

	ghost := domain.NewTask("ghost")
	ghost.ID = 999
	err := repo.Update(context.Background(), ghost)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Update() on absent task error = %v, want ErrNotFound", err)
	}
}

func TestUpdateValidation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	task := mustInsert(t, repo, domain.NewTask("valid"))

	task.Title = ""
	if err := repo.Update(ctx, task); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Update() with empty title error = %v, want ErrValidation", err)
	}

	// The stored record must be untouched
	got, _, _ := repo.FindByID(ctx, task.ID)
	if got.Title != "valid" {
		t.Errorf("stored title = %q, want %q", got.Title, "valid")
	}

	noID := domain.NewTask("no id")
	if err := repo.Update(ctx, noID); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Update() without ID error = %v, want ErrValidation", err)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	task := mustInsert(t, repo, domain.NewTask("doomed"))

	deleted, err := repo.Delete(ctx, task.ID)
	if err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if !deleted {
		t.Error("first Delete() should report true")
	}

	deleted, err = repo.Delete(ctx, task.ID)
	if err != nil {
		t.Fatalf("second Delete() error: %v", err)
	}
	if deleted {
		t.Error("second Delete() should report false, not error")
	}
}

func TestInsertMany(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tasks := []*domain.Task{
		domain.NewTask("one"),
		domain.NewTask("two"),
		domain.NewTask("three"),
	}
	if err := repo.InsertMany(ctx, tasks); err != nil {
		t.Fatalf("InsertMany() error: %v", err)
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}
	for _, task := range tasks {
		if task.ID == 0 {
			t.Errorf("task %q has no ID after InsertMany", task.Title)
		}
	}
}

func TestInsertManyAtomic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tasks := []*domain.Task{
		domain.NewTask("good"),
		{Title: "", Priority: 3}, // invalid, must sink the batch
		domain.NewTask("also good"),
	}
	err := repo.InsertMany(ctx, tasks)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("InsertMany() error = %v, want ErrValidation", err)
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if n != 0 {
		t.Errorf("Count() = %d, want 0 after rolled-back batch", n)
	}
}

func TestInjectionAttemptStoredLiterally(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	hostile := "x'); DROP TABLE tasks;--"
	task := mustInsert(t, repo, domain.NewTask(hostile))

	got, ok, err := repo.FindByID(ctx, task.ID)
	if err != nil || !ok {
		t.Fatalf("FindByID() after hostile insert: ok=%v err=%v", ok, err)
	}
	if got.Title != hostile {
		t.Errorf("Title = %q, want the literal input back", got.Title)
	}

	// Table must have survived, both for values and for criteria
	exists, err := repo.Schema().TableExists(ctx, TasksTable)
	if err != nil || !exists {
		t.Fatalf("tasks table gone after hostile title: exists=%v err=%v", exists, err)
	}

	if _, err := repo.FindByCriteria(ctx, map[string]any{"title": hostile}); err != nil {
		t.Errorf("FindByCriteria() with hostile value error: %v", err)
	}
}
