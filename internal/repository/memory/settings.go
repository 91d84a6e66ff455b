package memory

import (
	"context"
	"sync"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/repository"
)

type settingsRepository struct {
	mu       sync.RWMutex
	settings *domain.NotificationSettings
}

func NewSettingsRepository() repository.SettingsRepository {
	return &settingsRepository{}
}

func (r *settingsRepository) GetNotificationSettings(_ context.Context) (*domain.NotificationSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.settings == nil {
		return domain.DefaultNotificationSettings(), nil
	}
	s := *r.settings
	return &s, nil
}

func (r *settingsRepository) SaveNotificationSettings(_ context.Context, settings *domain.NotificationSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := *settings
	r.settings = &s
	return nil
}
