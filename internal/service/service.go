package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"taskvault/internal/domain"
	"taskvault/internal/repository"
)

// TaskService provides business logic over the task repository
type TaskService struct {
	repo     repository.TaskRepository
	eventBus *EventBus
}

// NewTaskService creates a new task service. The event bus may be nil when
// no subscriber exists.
func NewTaskService(repo repository.TaskRepository, eventBus *EventBus) *TaskService {
	return &TaskService{
		repo:     repo,
		eventBus: eventBus,
	}
}

// NewTask describes one task to create in a batch
type NewTask struct {
	Title       string
	Description string
	Priority    int
	DueDate     *time.Time
}

func (s *TaskService) publish(event Event) {
	if s.eventBus != nil {
		s.eventBus.Publish(event)
	}
}

// CreateTask validates and persists a new task. A zero priority means the
// default; nothing is persisted when validation fails.
func (s *TaskService) CreateTask(ctx context.Context, title, description string, priority int, due *time.Time) (*domain.Task, error) {
	task := domain.NewTask(title)
	task.Description = description
	if priority != 0 {
		task.Priority = priority
	}
	task.DueDate = due

	if _, err := s.repo.Insert(ctx, task); err != nil {
		return nil, err
	}

	s.publish(Event{
		Type:    EventTaskCreated,
		Payload: map[string]any{"task_id": task.ID, "title": task.Title},
	})

	return task, nil
}

// CreateTasks persists a batch of tasks in one transaction; any invalid
// entry aborts the whole batch
func (s *TaskService) CreateTasks(ctx context.Context, items []NewTask) ([]domain.Task, error) {
	tasks := make([]*domain.Task, 0, len(items))
	for _, item := range items {
		task := domain.NewTask(item.Title)
		task.Description = item.Description
		if item.Priority != 0 {
			task.Priority = item.Priority
		}
		task.DueDate = item.DueDate
		tasks = append(tasks, task)
	}

	if err := s.repo.InsertMany(ctx, tasks); err != nil {
		return nil, err
	}

	created := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		created = append(created, *task)
		s.publish(Event{
			Type:    EventTaskCreated,
			Payload: map[string]any{"task_id": task.ID, "title": task.Title},
		})
	}

	return created, nil
}

// GetTask retrieves a single task. Unlike the repository, a missing ID is
// an error here: the caller asked for a specific record.
func (s *TaskService) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	task, ok, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: task %d", domain.ErrNotFound, id)
	}
	return task, nil
}

// GetAllTasks returns every task ordered by ID
func (s *TaskService) GetAllTasks(ctx context.Context) ([]domain.Task, error) {
	return s.repo.FindAll(ctx)
}

// GetIncompleteTasks returns tasks not yet completed
func (s *TaskService) GetIncompleteTasks(ctx context.Context) ([]domain.Task, error) {
	return s.repo.FindByCriteria(ctx, map[string]any{"completed": false})
}

// GetTasksByPriority returns tasks with the given priority
func (s *TaskService) GetTasksByPriority(ctx context.Context, priority int) ([]domain.Task, error) {
	if priority < domain.PriorityHighest || priority > domain.PriorityLowest {
		return nil, fmt.Errorf("%w: priority %d out of range [%d, %d]",
			domain.ErrValidation, priority, domain.PriorityHighest, domain.PriorityLowest)
	}
	return s.repo.FindByCriteria(ctx, map[string]any{"priority": priority})
}

// SearchTasks returns tasks whose title contains fragment
func (s *TaskService) SearchTasks(ctx context.Context, fragment string) ([]domain.Task, error) {
	return s.repo.FindByTitleContains(ctx, fragment)
}

// CompleteTask marks a task as completed. Completing an already completed
// task succeeds without a second update.
func (s *TaskService) CompleteTask(ctx context.Context, id int64) (*domain.Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Completed {
		return task, nil
	}

	task.MarkCompleted()
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}

	s.publish(Event{
		Type:    EventTaskCompleted,
		Payload: map[string]any{"task_id": task.ID},
	})

	return task, nil
}

// UpdateTask persists all fields of an existing task
func (s *TaskService) UpdateTask(ctx context.Context, task *domain.Task) error {
	if err := s.repo.Update(ctx, task); err != nil {
		return err
	}

	s.publish(Event{
		Type:    EventTaskUpdated,
		Payload: map[string]any{"task_id": task.ID},
	})

	return nil
}

// DeleteTask removes a task and reports whether a record was removed
func (s *TaskService) DeleteTask(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}

	if deleted {
		s.publish(Event{
			Type:    EventTaskDeleted,
			Payload: map[string]any{"task_id": id},
		})
	}

	return deleted, nil
}

// GetTasksDueWithinDays returns tasks due in [today, today+days], both ends
// inclusive, sorted ascending by due date. Tasks without a due date are
// excluded; days must be >= 0 (0 means due today). Completed tasks are
// included; combine with GetIncompleteTasks semantics at the call site if
// needed.
func (s *TaskService) GetTasksDueWithinDays(ctx context.Context, days int) ([]domain.Task, error) {
	if days < 0 {
		return nil, fmt.Errorf("%w: days must be >= 0, got %d", domain.ErrValidation, days)
	}

	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var due []domain.Task
	for _, task := range all {
		if task.DueWithin(now, days) {
			due = append(due, task)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].DueDate.Before(*due[j].DueDate)
	})

	return due, nil
}

// GetOverdueTasks returns incomplete tasks whose due date has passed,
// sorted ascending by due date (oldest debt first)
func (s *TaskService) GetOverdueTasks(ctx context.Context) ([]domain.Task, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var overdue []domain.Task
	for _, task := range all {
		if task.IsOverdue(now) {
			overdue = append(overdue, task)
		}
	}

	sort.SliceStable(overdue, func(i, j int) bool {
		return overdue[i].DueDate.Before(*overdue[j].DueDate)
	})

	return overdue, nil
}
