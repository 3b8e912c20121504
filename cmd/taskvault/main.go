// Command taskvault is an example runner for the task data-access library.
// It wires config, database, repository, and service together, seeds a few
// tasks, and walks through the main queries.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"taskvault/internal/config"
	"taskvault/internal/database"
	"taskvault/internal/repository/sqlite"
	"taskvault/internal/service"
)

func main() {
	configPath := flag.String("config", "", "config file path (default: search standard locations)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	logJSON := flag.Bool("log-json", false, "log as JSON")
	flag.Parse()

	cfg, cfgFile, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	level := cfg.Logging.Level
	if *logLevel != "" {
		level = *logLevel
	}
	logger := newLogger(level, *logJSON || cfg.Logging.JSON)
	slog.SetDefault(logger)

	if cfgFile != "" {
		logger.Info("config loaded", "path", cfgFile)
	} else {
		logger.Info("no config file found, using defaults")
	}

	path := cfg.Database.Path
	if *dbPath != "" {
		path = *dbPath
	}

	if err := run(path, cfg, logger); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig(explicit string) (*config.Config, string, error) {
	if explicit != "" {
		return config.LoadFromPath(explicit)
	}
	return config.Load()
}

func newLogger(level string, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func run(dbPath string, cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	db, err := database.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database opened", "path", db.Path())

	repo := sqlite.New(db)
	if err := repo.CreateTable(ctx); err != nil {
		return err
	}

	eventBus := service.NewEventBus()
	events := make(chan service.Event, 100)
	eventBus.Subscribe(events)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range events {
			logger.Debug("event", "type", event.Type, "payload", event.Payload)
		}
	}()

	svc := service.NewTaskService(repo, eventBus)

	n, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		if err := seed(ctx, svc); err != nil {
			return err
		}
		logger.Info("seeded sample tasks")
	}

	dueSoon, err := svc.GetTasksDueWithinDays(ctx, cfg.Defaults.DueSoonDays)
	if err != nil {
		return err
	}
	logger.Info("tasks due soon", "window_days", cfg.Defaults.DueSoonDays, "count", len(dueSoon))
	for _, task := range dueSoon {
		logger.Info("due", "id", task.ID, "title", task.Title,
			"due_date", task.DueDate.Format("2006-01-02"), "priority", task.Priority)
	}

	overdue, err := svc.GetOverdueTasks(ctx)
	if err != nil {
		return err
	}
	for _, task := range overdue {
		logger.Warn("overdue", "id", task.ID, "title", task.Title,
			"due_date", task.DueDate.Format("2006-01-02"))
	}

	open, err := svc.GetIncompleteTasks(ctx)
	if err != nil {
		return err
	}
	if len(open) > 0 {
		completed, err := svc.CompleteTask(ctx, open[0].ID)
		if err != nil {
			return err
		}
		logger.Info("completed task", "id", completed.ID, "title", completed.Title)
	}

	all, err := svc.GetAllTasks(ctx)
	if err != nil {
		return err
	}
	logger.Info("task list", "count", len(all))
	for _, task := range all {
		status := "open"
		if task.Completed {
			status = "done"
		}
		logger.Info("task", "id", task.ID, "title", task.Title, "status", status, "priority", task.Priority)
	}

	close(events)
	<-done
	return nil
}

// seed inserts a small batch of tasks in one transaction
func seed(ctx context.Context, svc *service.TaskService) error {
	today := time.Now()
	in := func(days int) *time.Time {
		d := today.AddDate(0, 0, days)
		return &d
	}

	_, err := svc.CreateTasks(ctx, []service.NewTask{
		{Title: "review pull requests", Priority: 2, DueDate: in(1)},
		{Title: "write release notes", Description: "v0.3 changes", Priority: 3, DueDate: in(3)},
		{Title: "rotate backups", Priority: 1, DueDate: in(0)},
		{Title: "clean up branches", Priority: 5},
		{Title: "renew domain", Priority: 2, DueDate: in(30)},
	})
	return err
}
