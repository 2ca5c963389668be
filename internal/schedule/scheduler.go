// Package schedule runs aggregation periodically for `subdocs daemon`.
package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/dlp3d-ai/subdocs/internal/foundation/errors"
)

// Scheduler wraps a gocron scheduler.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// New creates a scheduler instance.
func New() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.InternalError("failed to create gocron scheduler").WithCause(err).Build()
	}
	return &Scheduler{scheduler: s}, nil
}

// Every registers task to run immediately and then every interval. Runs never
// overlap: a tick that arrives while the task is still running is dropped.
// It returns the job ID.
func (s *Scheduler) Every(interval time.Duration, name string, task func(ctx context.Context)) (string, error) {
	if interval <= 0 {
		return "", errors.ValidationError("schedule interval must be positive").WithContext("interval", interval.String()).Build()
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return "", errors.InternalError("failed to create periodic job").WithCause(err).WithContext("job", name).Build()
	}
	slog.Info("Scheduled periodic job", slog.String("job", name), slog.Duration("interval", interval))
	return job.ID().String(), nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop waits for running jobs and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	if err := s.scheduler.Shutdown(); err != nil {
		return errors.InternalError("failed to stop scheduler").WithCause(err).Build()
	}
	return nil
}
