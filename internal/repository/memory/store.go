// Package memory keeps every entity in process memory. It is the default
// backing for development and tests; state is lost on restart.
package memory

import (
	"strings"

	"velorent-backend/internal/repository"
)

func NewStore() *repository.Store {
	return &repository.Store{
		Cars:          NewCarRepository(),
		Customers:     NewCustomerRepository(),
		Rentals:       NewRentalRepository(),
		Notifications: NewNotificationRepository(),
		Settings:      NewSettingsRepository(),
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
