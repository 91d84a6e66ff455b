package jobs

import (
	"context"
	"fmt"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/logger"
	"velorent-backend/internal/utils"
)

type recipient struct {
	email    string
	name     string
	carLabel string
}

// recipientFor resolves who to email about a rental. Either lookup failing
// skips the email but keeps the notification.
func (jr *JobRunner) recipientFor(ctx context.Context, r *domain.Rental) (*recipient, error) {
	customer, err := jr.services.Customers.GetCustomer(ctx, r.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("load customer %s: %w", r.CustomerID, err)
	}
	car, err := jr.services.Fleet.GetCar(ctx, r.CarID)
	if err != nil {
		return nil, fmt.Errorf("load car %s: %w", r.CarID, err)
	}
	return &recipient{email: customer.Email, name: customer.FullName, carLabel: car.Label()}, nil
}

// SendPaymentReminders records an alert and emails the customer for every
// overdue balance. The dedup key carries the date, so each rental is chased
// at most once per business day.
func (jr *JobRunner) SendPaymentReminders() {
	jr.runWithRecovery(JobSendPaymentReminders, func() {
		ctx := context.Background()
		now := jr.clock.Now()
		today := utils.FormatDate(utils.DateOf(now, jr.config.Location()))

		settings, err := jr.services.Notifications.Settings(ctx)
		if err != nil {
			logger.Error("Failed to load notification settings", "error", err)
			return
		}
		if !settings.PaymentReminders {
			logger.Info("Payment reminders are switched off, skipping")
			return
		}

		due, err := jr.services.Dashboard.PaymentsDue(ctx, now)
		if err != nil {
			logger.Error("Failed to load payments due", "error", err)
			return
		}

		count := 0
		for i := range due {
			d := &due[i]
			if !d.Overdue {
				continue
			}

			created, err := jr.services.Notifications.Notify(ctx, &domain.Notification{
				Type:     domain.NotificationTypePayment,
				Priority: domain.PriorityHigh,
				Title:    "Payment overdue",
				Message:  fmt.Sprintf("Rental %s has %s outstanding", d.Rental.ID, d.AmountDue.StringFixed(2)),
				RentalID: d.Rental.ID,
				DedupKey: fmt.Sprintf("payment-overdue:%s:%s", d.Rental.ID, today),
				Attributes: map[string]string{
					"amount_due":     d.AmountDue.StringFixed(2),
					"payment_status": string(d.PaymentStatus),
				},
			})
			if err != nil {
				logger.Error("Failed to record payment reminder", "rental_id", d.Rental.ID, "error", err)
				continue
			}
			if !created || !settings.EmailNotifications {
				continue
			}

			rcpt, err := jr.recipientFor(ctx, &d.Rental)
			if err != nil {
				logger.Error("Failed to resolve payment reminder recipient", "rental_id", d.Rental.ID, "error", err)
				continue
			}
			if err := jr.services.Email.SendPaymentReminder(ctx, rcpt.email, rcpt.name, rcpt.carLabel, d.AmountDue, d.Rental.ID); err != nil {
				logger.Error("Failed to send payment reminder email",
					"rental_id", d.Rental.ID,
					"email", rcpt.email,
					"error", err)
				continue
			}

			count++
			logger.Debug("Sent payment reminder", "rental_id", d.Rental.ID, "email", rcpt.email)
		}

		logger.Info("Payment reminders sent", "count", count)
	})
}

// SendReturnReminders notifies customers whose active rental is due back
// within rentals.return_reminder_days. Each rental is reminded once.
func (jr *JobRunner) SendReturnReminders() {
	jr.runWithRecovery(JobSendReturnReminders, func() {
		ctx := context.Background()
		window := jr.config.Rentals.ReturnReminderDays

		settings, err := jr.services.Notifications.Settings(ctx)
		if err != nil {
			logger.Error("Failed to load notification settings", "error", err)
			return
		}
		if !settings.RentalReminders {
			logger.Info("Return reminders are switched off, skipping")
			return
		}

		active, err := jr.services.Rentals.ListActiveRentals(ctx, jr.clock.Now())
		if err != nil {
			logger.Error("Failed to load active rentals", "error", err)
			return
		}

		count := 0
		for i := range active {
			v := &active[i]
			if v.DaysRemaining < 0 || v.DaysRemaining > window {
				continue
			}

			created, err := jr.services.Notifications.Notify(ctx, &domain.Notification{
				Type:     domain.NotificationTypeRental,
				Priority: domain.PriorityMedium,
				Title:    "Return due",
				Message:  fmt.Sprintf("Rental %s is due back on %s", v.ID, utils.FormatDate(v.EndDate)),
				RentalID: v.ID,
				DedupKey: "return-due:" + v.ID,
				Attributes: map[string]string{
					"end_date":       utils.FormatDate(v.EndDate),
					"days_remaining": fmt.Sprint(v.DaysRemaining),
				},
			})
			if err != nil {
				logger.Error("Failed to record return reminder", "rental_id", v.ID, "error", err)
				continue
			}
			if !created || !settings.EmailNotifications {
				continue
			}

			rcpt, err := jr.recipientFor(ctx, &v.Rental)
			if err != nil {
				logger.Error("Failed to resolve return reminder recipient", "rental_id", v.ID, "error", err)
				continue
			}
			if err := jr.services.Email.SendReturnReminder(ctx, rcpt.email, rcpt.name, rcpt.carLabel, v.EndDate); err != nil {
				logger.Error("Failed to send return reminder email",
					"rental_id", v.ID,
					"email", rcpt.email,
					"error", err)
				continue
			}

			count++
			logger.Debug("Sent return reminder", "rental_id", v.ID, "email", rcpt.email)
		}

		logger.Info("Return reminders sent", "count", count)
	})
}
