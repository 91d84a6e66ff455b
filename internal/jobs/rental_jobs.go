package jobs

import (
	"context"
	"sort"
	"strings"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/logger"
)

// AuditBookings reports stored rentals that break a booking invariant. It
// never repairs them; each finding becomes one high-priority notification and,
// when email.admin_alerts is set, one admin email.
func (jr *JobRunner) AuditBookings() {
	jr.runWithRecovery(JobAuditBookings, func() {
		ctx := context.Background()

		report, err := jr.services.Rentals.IntegrityReport(ctx)
		if err != nil {
			logger.Error("Failed to build integrity report", "error", err)
			return
		}

		alerted := 0
		for i := range report {
			finding := &report[i]
			ids := append([]string(nil), finding.RentalIDs...)
			sort.Strings(ids)
			logger.Error("Booking integrity violation", "rental_ids", ids, "message", finding.Message)

			n := &domain.Notification{
				Type:     domain.NotificationTypeBooking,
				Priority: domain.PriorityHigh,
				Title:    "Booking integrity violation",
				Message:  finding.Message,
				DedupKey: "integrity:" + strings.Join(ids, ","),
				Attributes: map[string]string{
					"rental_ids": strings.Join(ids, ","),
				},
			}
			if len(ids) > 0 {
				n.RentalID = ids[0]
			}
			created, err := jr.services.Notifications.Notify(ctx, n)
			if err != nil {
				logger.Error("Failed to record integrity violation", "rental_ids", ids, "error", err)
				continue
			}
			if !created {
				continue
			}

			to := jr.config.Email.AdminAlerts
			if to == "" {
				continue
			}
			if err := jr.services.Email.SendAdminAlert(ctx, to, n.Title, finding.Message); err != nil {
				logger.Error("Failed to send integrity alert", "rental_ids", ids, "error", err)
				continue
			}
			alerted++
		}

		logger.Info("Booking audit finished", "violations", len(report), "alerted", alerted)
	})
}
