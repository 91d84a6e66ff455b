package postgres

import (
	"context"
	"database/sql"
	"errors"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/logger"
	"velorent-backend/internal/repository"
)

type settingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) repository.SettingsRepository {
	return &settingsRepository{db: db}
}

// The table holds at most one row, keyed by id = 1.
const settingsColumns = `payment_reminders, rental_reminders, maintenance_alerts, new_bookings, email_notifications, updated_at`

func (r *settingsRepository) GetNotificationSettings(ctx context.Context) (*domain.NotificationSettings, error) {
	query := `SELECT ` + settingsColumns + ` FROM notification_settings WHERE id = 1`
	s := &domain.NotificationSettings{}
	err := r.db.QueryRowContext(ctx, query).Scan(&s.PaymentReminders, &s.RentalReminders, &s.MaintenanceAlerts,
		&s.NewBookings, &s.EmailNotifications, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultNotificationSettings(), nil
	}
	if err != nil {
		return nil, translate(err, "notification settings", "1")
	}
	return s, nil
}

func (r *settingsRepository) SaveNotificationSettings(ctx context.Context, s *domain.NotificationSettings) error {
	query := `INSERT INTO notification_settings (id, ` + settingsColumns + `) VALUES (1, $1, $2, $3, $4, $5, $6)
	          ON CONFLICT (id) DO UPDATE SET payment_reminders = EXCLUDED.payment_reminders,
	          rental_reminders = EXCLUDED.rental_reminders, maintenance_alerts = EXCLUDED.maintenance_alerts,
	          new_bookings = EXCLUDED.new_bookings, email_notifications = EXCLUDED.email_notifications,
	          updated_at = EXCLUDED.updated_at`
	logger.DatabaseCall("UPSERT", "notification_settings")
	res, err := r.db.ExecContext(ctx, query, s.PaymentReminders, s.RentalReminders, s.MaintenanceAlerts,
		s.NewBookings, s.EmailNotifications, s.UpdatedAt)
	logger.DatabaseResult("UPSERT", rowsAffected(res), err)
	return translate(err, "notification settings", "1")
}
