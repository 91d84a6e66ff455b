package postgres

import (
	"database/sql"

	_ "github.com/lib/pq"

	"velorent-backend/internal/repository"
)

// NewStore builds every repository over one connection pool. Callers run
// Migrate first so the no-overlap constraint exists.
func NewStore(db *sql.DB) *repository.Store {
	return &repository.Store{
		Cars:          NewCarRepository(db),
		Customers:     NewCustomerRepository(db),
		Rentals:       NewRentalRepository(db),
		Notifications: NewNotificationRepository(db),
		Settings:      NewSettingsRepository(db),
	}
}

// Open connects and pings the database.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
