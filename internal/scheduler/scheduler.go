// Package scheduler manages recurring background jobs using gocron.
// The only job today is store maintenance for the SQLite backend.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// JobFunc is a scheduled job body. It receives a context and reports its
// outcome; failures are logged, never fatal.
type JobFunc func(ctx context.Context) error

// Scheduler wraps a gocron scheduler with structured logging around jobs.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// New creates a stopped scheduler; register jobs with AddCronJob, then Start.
func New(logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    logger.With("component", "scheduler"),
	}, nil
}

// AddCronJob registers fn to run on the given cron expression.
func (s *Scheduler) AddCronJob(name, cronExpr string, fn JobFunc) error {
	log := s.logger.With("job", name)

	wrapped := func() {
		ctx := context.Background()
		start := time.Now()
		log.InfoContext(ctx, "Scheduled job starting")

		if err := fn(ctx); err != nil {
			log.ErrorContext(ctx, "Scheduled job failed", "error", err, "duration", time.Since(start))
			return
		}
		log.InfoContext(ctx, "Scheduled job completed", "duration", time.Since(start))
	}

	if _, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(wrapped),
		gocron.WithName(name),
	); err != nil {
		return fmt.Errorf("failed to schedule job %q: %w", name, err)
	}

	log.Info("Scheduled job registered", "schedule", cronExpr)
	return nil
}

// Start begins executing registered jobs.
func (s *Scheduler) Start() {
	s.scheduler.Start()
	s.logger.Info("Scheduler started")
}

// Stop shuts the scheduler down, waiting for running jobs to finish.
func (s *Scheduler) Stop() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("scheduler shutdown failed: %w", err)
	}
	s.logger.Info("Scheduler stopped")
	return nil
}
