package jobs

import (
	"fmt"
	"sort"

	"velorent-backend/internal/config"
	"velorent-backend/internal/logger"
	"velorent-backend/internal/service"
	"velorent-backend/internal/utils"
)

// Job names accepted by the scheduler and by cronjob --run-once.
const (
	JobSendPaymentReminders = "send-payment-reminders"
	JobSendReturnReminders  = "send-return-reminders"
	JobAuditBookings        = "audit-bookings"
	JobAllNightly           = "all-nightly"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
	clock    utils.Clock
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Email         service.EmailService
	Rentals       service.RentalService
	Dashboard     service.DashboardService
	Notifications service.NotificationService
	Fleet         service.FleetService
	Customers     service.CustomerService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config, clock utils.Clock) *JobRunner {
	if clock == nil {
		clock = utils.SystemClock()
	}
	return &JobRunner{
		services: services,
		config:   cfg,
		clock:    clock,
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	log := logger.WithJob(jobName)
	log.Info("Starting job")
	jobFunc()
	log.Info("Job completed")
}

// RunAllNightlyJobs runs all nightly jobs (for manual execution)
func (jr *JobRunner) RunAllNightlyJobs() {
	jr.AuditBookings()
	jr.SendPaymentReminders()
	jr.SendReturnReminders()
}

func (jr *JobRunner) jobs() map[string]func() {
	return map[string]func(){
		JobSendPaymentReminders: jr.SendPaymentReminders,
		JobSendReturnReminders:  jr.SendReturnReminders,
		JobAuditBookings:        jr.AuditBookings,
		JobAllNightly:           jr.RunAllNightlyJobs,
	}
}

// JobNames lists every job RunJob accepts, sorted.
func (jr *JobRunner) JobNames() []string {
	names := make([]string, 0, 4)
	for name := range jr.jobs() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunJob runs one job by name.
func (jr *JobRunner) RunJob(name string) error {
	job, ok := jr.jobs()[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	job()
	return nil
}
