package service

import (
	"context"

	"github.com/google/uuid"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/logger"
	"velorent-backend/internal/repository"
	"velorent-backend/internal/utils"
)

type notificationService struct {
	noteRepo     repository.NotificationRepository
	settingsRepo repository.SettingsRepository
	clock        utils.Clock
}

func NewNotificationService(noteRepo repository.NotificationRepository, settingsRepo repository.SettingsRepository, clock utils.Clock) NotificationService {
	return &notificationService{noteRepo: noteRepo, settingsRepo: settingsRepo, clock: clock}
}

func (s *notificationService) GetNotifications(ctx context.Context, unreadOnly bool, page, pageSize int) ([]domain.Notification, int, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page <= 0 {
		page = 1
	}
	return s.noteRepo.List(ctx, repository.NotificationFilter{
		UnreadOnly: unreadOnly,
		Limit:      pageSize,
		Offset:     (page - 1) * pageSize,
	})
}

func (s *notificationService) Notify(ctx context.Context, n *domain.Notification) (bool, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.clock.Now()
	}
	if n.Priority == "" {
		n.Priority = domain.PriorityMedium
	}

	created, err := s.noteRepo.CreateIfAbsent(ctx, n)
	if err != nil {
		logger.Error("Failed to store notification", "title", n.Title, "dedupKey", n.DedupKey, "error", err)
		return false, err
	}
	if !created {
		logger.Debug("Notification already exists", "dedupKey", n.DedupKey)
	}
	return created, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, id string) error {
	return s.noteRepo.MarkAsRead(ctx, id)
}

func (s *notificationService) MarkAllRead(ctx context.Context) (int64, error) {
	return s.noteRepo.MarkAllRead(ctx)
}

func (s *notificationService) Delete(ctx context.Context, id string) error {
	return s.noteRepo.Delete(ctx, id)
}

func (s *notificationService) Settings(ctx context.Context) (*domain.NotificationSettings, error) {
	return s.settingsRepo.GetNotificationSettings(ctx)
}

// UpdateSettings applies the switches present in in and leaves the rest as stored.
func (s *notificationService) UpdateSettings(ctx context.Context, in NotificationSettingsInput) (*domain.NotificationSettings, error) {
	current, err := s.settingsRepo.GetNotificationSettings(ctx)
	if err != nil {
		return nil, err
	}

	apply := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	apply(&current.PaymentReminders, in.PaymentReminders)
	apply(&current.RentalReminders, in.RentalReminders)
	apply(&current.MaintenanceAlerts, in.MaintenanceAlerts)
	apply(&current.NewBookings, in.NewBookings)
	apply(&current.EmailNotifications, in.EmailNotifications)
	current.UpdatedAt = s.clock.Now()

	if err := s.settingsRepo.SaveNotificationSettings(ctx, current); err != nil {
		logger.Error("Failed to save notification settings", "error", err)
		return nil, err
	}
	logger.Info("Notification settings updated",
		"payment_reminders", current.PaymentReminders,
		"rental_reminders", current.RentalReminders,
		"maintenance_alerts", current.MaintenanceAlerts,
		"new_bookings", current.NewBookings,
		"email_notifications", current.EmailNotifications)
	return current, nil
}

// settingsOrDefault reads the notice switches. A read failure is logged and
// treated as the defaults so a settings outage never blocks a booking.
func settingsOrDefault(ctx context.Context, notes NotificationService) *domain.NotificationSettings {
	settings, err := notes.Settings(ctx)
	if err != nil {
		logger.Warn("Failed to load notification settings, using defaults", "error", err)
		return domain.DefaultNotificationSettings()
	}
	return settings
}
