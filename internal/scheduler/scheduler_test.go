package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velorent-backend/internal/config"
	"velorent-backend/internal/jobs"
)

func TestNewScheduler(t *testing.T) {
	cfg := &config.Config{
		Rentals: config.RentalsConfig{Timezone: "Asia/Kuala_Lumpur"},
		Scheduler: config.SchedulerConfig{
			SendPaymentReminders: "0 0 9 * * *",
			SendReturnReminders:  "0 0 8 * * *",
			AuditBookings:        "0 30 2 * * *",
		},
	}
	s, err := NewScheduler(jobs.NewJobRunner(&jobs.Services{}, cfg, nil))
	require.NoError(t, err)
	assert.True(t, s.IsRunning())
	assert.Len(t, s.cron.Entries(), 3)
}

func TestNewScheduler_SkipsEmptySpec(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{AuditBookings: "0 30 2 * * *"}}
	s, err := NewScheduler(jobs.NewJobRunner(&jobs.Services{}, cfg, nil))
	require.NoError(t, err)
	assert.Len(t, s.cron.Entries(), 1)
}

func TestNewScheduler_RejectsBadSpec(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{AuditBookings: "every night"}}
	_, err := NewScheduler(jobs.NewJobRunner(&jobs.Services{}, cfg, nil))
	assert.Error(t, err)
}
