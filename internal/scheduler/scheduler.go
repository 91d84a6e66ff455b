package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"velorent-backend/internal/jobs"
	"velorent-backend/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a scheduler with seconds precision in the rental time zone.
func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
	c := cron.New(
		cron.WithLocation(jobRunner.Config().Location()),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

// registerJobs registers all scheduled jobs with the cron scheduler. An empty
// spec leaves that job unscheduled.
func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	entries := []struct {
		name string
		spec string
		run  func()
	}{
		{jobs.JobAuditBookings, cfg.AuditBookings, s.jobs.AuditBookings},
		{jobs.JobSendPaymentReminders, cfg.SendPaymentReminders, s.jobs.SendPaymentReminders},
		{jobs.JobSendReturnReminders, cfg.SendReturnReminders, s.jobs.SendReturnReminders},
	}

	for _, e := range entries {
		if e.spec == "" {
			logger.Warn("Job has no schedule, skipping", "job", e.name)
			continue
		}
		if _, err := s.cron.AddFunc(e.spec, e.run); err != nil {
			logger.Error("Failed to register job", "job", e.name, "spec", e.spec, "error", err)
			return fmt.Errorf("register %s: %w", e.name, err)
		}
		logger.Debug("Registered job", "job", e.name, "spec", e.spec)
	}

	logger.Info("All cron jobs registered successfully", "count", len(s.cron.Entries()))
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler has any jobs registered
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
