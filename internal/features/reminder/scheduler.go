package reminder

import (
	"context"
	"errors"
	"time"

	"taskpilot/internal/features/notification"
	"taskpilot/internal/features/project"
	"taskpilot/internal/features/task"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const dueWindow = 24 * time.Hour

// Scheduler runs the hourly deadline scan. Tasks due within the window
// that have no reminder on record get one DEADLINE_REMINDER per
// assignee; the reminder_sent_at stamp keeps the next scan from
// repeating it.
type Scheduler struct {
	TaskRepo    task.TaskRepository
	ProjectRepo project.ProjectRepository
	Dispatcher  notification.Dispatcher
	Logger      *zap.Logger

	cron *cron.Cron
}

func NewScheduler(taskRepo task.TaskRepository, projectRepo project.ProjectRepository, dispatcher notification.Dispatcher, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		TaskRepo:    taskRepo,
		ProjectRepo: projectRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
		cron:        cron.New(),
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@hourly", func() {
		s.Scan(context.Background())
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.Logger.Info("deadline reminder scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Scan is one pass over due-soon tasks. Exported so the seed and tests
// can trigger it directly.
func (s *Scheduler) Scan(ctx context.Context) {
	tasks, err := s.TaskRepo.FindDueWithin(ctx, dueWindow)
	if err != nil {
		s.Logger.Error("deadline scan failed", zap.Error(err))
		return
	}

	for _, t := range tasks {
		if len(t.Assignees) == 0 {
			continue
		}

		projectName := ""
		p, err := s.ProjectRepo.FindByID(ctx, t.ProjectID.Hex())
		if err == nil {
			projectName = p.Name
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			s.Logger.Warn("project lookup failed during deadline scan", zap.Error(err), zap.String("task_id", t.ID.Hex()))
		}

		s.Dispatcher.DeadlineReminder(ctx, notification.TaskInfo{
			ID:        t.ID,
			Title:     t.Title,
			ProjectID: t.ProjectID,
			Assignees: t.Assignees,
		}, projectName)

		if err := s.TaskRepo.MarkReminderSent(ctx, t.ID); err != nil {
			s.Logger.Warn("reminder stamp failed", zap.Error(err), zap.String("task_id", t.ID.Hex()))
		}
	}
}

// RegisterLifecycle ties the scheduler to the application lifecycle.
func RegisterLifecycle(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.Start()
		},
		OnStop: func(ctx context.Context) error {
			s.Stop()
			return nil
		},
	})
}
