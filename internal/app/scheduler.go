/**
 * @description
 * Cron scheduler setup for the ledger-service background jobs.
 */
package app

import (
	"context"
	"log/slog"

	"github.com/ledgerdesk/ledger-service/internal/config"
	"github.com/robfig/cron/v3"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron   *cron.Cron
	jobs   *Jobs
	logger *slog.Logger
	config config.Config
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(jobs *Jobs, logger *slog.Logger, cfg config.Config) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:   c,
		jobs:   jobs,
		logger: logger,
		config: cfg,
	}
}

// Start registers the jobs and starts the cron scheduler. It returns the number of
// jobs that were scheduled.
func (s *Scheduler) Start() int {
	scheduled := 0
	if s.config.SnapshotJobSchedule != "" {
		if _, err := s.cron.AddFunc(s.config.SnapshotJobSchedule, s.jobs.SnapshotCollections); err != nil {
			s.logger.Error("failed to schedule snapshot job", "error", err)
		} else {
			scheduled++
			s.logger.Info("scheduled snapshot job", "schedule", s.config.SnapshotJobSchedule)
		}
	}

	if s.config.OverdueSweepEnabled {
		if _, err := s.cron.AddFunc(s.config.OverdueSweepSchedule, s.jobs.MarkOverdueInvoices); err != nil {
			s.logger.Error("failed to schedule overdue invoice job", "error", err)
		} else {
			scheduled++
			s.logger.Info("scheduled overdue invoice job", "schedule", s.config.OverdueSweepSchedule)
		}
	}

	s.cron.Start()
	return scheduled
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
