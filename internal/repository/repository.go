package repository

import (
	"context"

	"velorent-backend/internal/domain"
)

type CarRepository interface {
	Create(ctx context.Context, car *domain.Car) error
	GetByID(ctx context.Context, id string) (*domain.Car, error)
	GetByLicensePlate(ctx context.Context, plate string) (*domain.Car, error)
	Update(ctx context.Context, car *domain.Car) error
	Delete(ctx context.Context, id string) error
	// List returns cars ordered by make, model and plate. An empty status lists every car.
	List(ctx context.Context, status domain.FleetStatus) ([]domain.Car, error)
}

type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	Update(ctx context.Context, customer *domain.Customer) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Customer, error)
}

// RentalFilter narrows a rental listing. Zero values match everything except
// cancelled rentals, which need IncludeCancelled.
type RentalFilter struct {
	CarID            string
	CustomerID       string
	IncludeCancelled bool
}

type RentalRepository interface {
	Create(ctx context.Context, rental *domain.Rental) error
	GetByID(ctx context.Context, id string) (*domain.Rental, error)
	Update(ctx context.Context, rental *domain.Rental) error
	// List returns rentals ordered by start date, then id.
	List(ctx context.Context, filter RentalFilter) ([]domain.Rental, error)
}

type NotificationFilter struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	// CreateIfAbsent stores note unless another notification already holds its
	// DedupKey. It reports whether a new notification was written.
	CreateIfAbsent(ctx context.Context, note *domain.Notification) (bool, error)
	// List returns the newest notifications first together with the total matching count.
	List(ctx context.Context, filter NotificationFilter) ([]domain.Notification, int, error)
	MarkAsRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
}

// SettingsRepository holds the single notification settings record.
type SettingsRepository interface {
	// GetNotificationSettings returns the stored settings, or the defaults
	// when none were saved yet.
	GetNotificationSettings(ctx context.Context) (*domain.NotificationSettings, error)
	SaveNotificationSettings(ctx context.Context, settings *domain.NotificationSettings) error
}

// Store groups one repository per entity behind a single backing technology.
type Store struct {
	Cars          CarRepository
	Customers     CustomerRepository
	Rentals       RentalRepository
	Notifications NotificationRepository
	Settings      SettingsRepository
}
