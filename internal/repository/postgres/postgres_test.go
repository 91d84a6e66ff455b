package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/repository"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var carRowColumns = []string{"id", "make", "model", "year", "color", "license_plate", "daily_rate", "fleet_status", "created_at", "updated_at"}

func TestCarRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCarRepository(db)
	ctx := context.Background()
	now := time.Now()

	car := &domain.Car{ID: "c1", Make: "Toyota", Model: "Avanza", Year: 2022, LicensePlate: "B 1234 XY",
		DailyRate: decimal.NewFromInt(189), FleetStatus: domain.FleetStatusAvailable, CreatedAt: now, UpdatedAt: now}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO cars").
			WithArgs("c1", "Toyota", "Avanza", 2022, "", "B 1234 XY", sqlmock.AnyArg(), "available", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Create(ctx, car))
	})

	t.Run("Duplicate plate", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO cars").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "cars_license_plate_key"})

		err := repo.Create(ctx, car)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "license_plate", verr.Field)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCarRepository_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCarRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(carRowColumns).
			AddRow("c1", "Toyota", "Avanza", 2022, "silver", "B 1234 XY", "189.00", "maintenance", time.Now(), time.Now())
		mock.ExpectQuery("SELECT (.+) FROM cars WHERE id = \\$1").WithArgs("c1").WillReturnRows(rows)

		car, err := repo.GetByID(ctx, "c1")
		require.NoError(t, err)
		assert.True(t, car.DailyRate.Equal(decimal.NewFromInt(189)))
		assert.True(t, car.InMaintenance())
	})

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM cars WHERE id = \\$1").WithArgs("nope").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, "nope")
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestCarRepository_DeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCarRepository(db)

	mock.ExpectExec("DELETE FROM cars WHERE id = \\$1").WithArgs("c9").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.True(t, domain.IsNotFound(repo.Delete(context.Background(), "c9")))
}

func TestCarRepository_ListByStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCarRepository(db)

	rows := sqlmock.NewRows(carRowColumns).
		AddRow("c1", "Honda", "Jazz", 2021, "", "D 1 A", "150", "available", time.Now(), time.Now()).
		AddRow("c2", "Toyota", "Avanza", 2022, "", "B 2 B", "189", "available", time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM cars WHERE fleet_status = \\$1 ORDER BY make").
		WithArgs(domain.FleetStatusAvailable).WillReturnRows(rows)

	cars, err := repo.List(context.Background(), domain.FleetStatusAvailable)
	require.NoError(t, err)
	assert.Len(t, cars, 2)
}

func TestCustomerRepository_GetByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCustomerRepository(db)

	rows := sqlmock.NewRows([]string{"id", "full_name", "email", "phone", "address", "driver_license", "created_at", "updated_at"}).
		AddRow("u1", "Budi Santoso", "budi@example.com", "+6281234567890", "", "", time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM customers WHERE LOWER\\(email\\) = LOWER\\(\\$1\\)").
		WithArgs("Budi@Example.com").WillReturnRows(rows)

	c, err := repo.GetByEmail(context.Background(), "Budi@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", c.ID)
}

var rentalRowColumns = []string{"id", "car_id", "customer_id", "start_date", "end_date", "pickup_location", "daily_rate",
	"total_amount", "paid_amount", "cancelled", "cancelled_at", "notes", "created_at", "updated_at"}

func TestRentalRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRentalRepository(db)
	ctx := context.Background()

	rental := &domain.Rental{ID: "r1", CarID: "c1", CustomerID: "u1",
		StartDate: time.Date(2024, 9, 20, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
		DailyRate: decimal.NewFromInt(189), TotalAmount: decimal.NewFromInt(2079)}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO rentals").
			WithArgs("r1", "c1", "u1", rental.StartDate, rental.EndDate, "", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
				false, nil, "", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Create(ctx, rental))
	})

	t.Run("Exclusion constraint", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO rentals").
			WillReturnError(&pq.Error{Code: "23P01", Constraint: "rentals_no_overlap"})

		err := repo.Create(ctx, rental)
		assert.True(t, domain.IsConflict(err))
	})

	t.Run("Connection failure is wrapped", func(t *testing.T) {
		boom := errors.New("connection reset")
		mock.ExpectExec("INSERT INTO rentals").WillReturnError(boom)

		err := repo.Create(ctx, rental)
		assert.ErrorIs(t, err, boom)
		assert.False(t, domain.IsConflict(err))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepository_GetByIDCancelled(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRentalRepository(db)

	cancelledAt := time.Date(2024, 9, 26, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(rentalRowColumns).
		AddRow("r1", "c1", "u1", time.Date(2024, 9, 20, 0, 0, 0, 0, time.UTC), time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
			"Airport", "189.00", "2079.00", "1039.50", true, cancelledAt, "", time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM rentals WHERE id = \\$1").WithArgs("r1").WillReturnRows(rows)

	rt, err := repo.GetByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.True(t, rt.Cancelled)
	require.NotNil(t, rt.CancelledAt)
	assert.True(t, rt.CancelledAt.Equal(cancelledAt))
	assert.True(t, rt.PaidAmount.Equal(decimal.RequireFromString("1039.5")))
}

func TestRentalRepository_ListFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRentalRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM rentals WHERE NOT cancelled AND car_id = \\$1 AND customer_id = \\$2 ORDER BY start_date, id").
		WithArgs("c1", "u1").
		WillReturnRows(sqlmock.NewRows(rentalRowColumns))

	rentals, err := repo.List(context.Background(), repository.RentalFilter{CarID: "c1", CustomerID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, rentals)

	mock.ExpectQuery("SELECT (.+) FROM rentals ORDER BY start_date, id").
		WillReturnRows(sqlmock.NewRows(rentalRowColumns))
	_, err = repo.List(context.Background(), repository.RentalFilter{IncludeCancelled: true})
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_CreateIfAbsent(t *testing.T) {
	db, mock := newMock(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	note := &domain.Notification{ID: "n1", Type: domain.NotificationTypePayment, Priority: domain.PriorityHigh,
		Title: "Payment overdue", Message: "R1 owes 1039.50", RentalID: "r1", DedupKey: "payment-overdue:r1:2024-09-26",
		Attributes: map[string]string{"amount_due": "1039.50"}, CreatedAt: time.Now()}

	mock.ExpectExec("INSERT INTO notifications (.+) ON CONFLICT \\(dedup_key\\)").
		WithArgs("n1", domain.NotificationTypePayment, domain.PriorityHigh, "Payment overdue", "R1 owes 1039.50", false,
			sqlmock.AnyArg(), sqlmock.AnyArg(), []byte(`{"amount_due":"1039.50"}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	created, err := repo.CreateIfAbsent(ctx, note)
	require.NoError(t, err)
	assert.True(t, created)

	mock.ExpectExec("INSERT INTO notifications (.+) ON CONFLICT \\(dedup_key\\)").
		WillReturnResult(sqlmock.NewResult(0, 0))
	created, err = repo.CreateIfAbsent(ctx, note)
	require.NoError(t, err)
	assert.False(t, created)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_List(t *testing.T) {
	db, mock := newMock(t)
	repo := NewNotificationRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM notifications WHERE NOT is_read").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM notifications WHERE NOT is_read ORDER BY created_at DESC").
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "priority", "title", "message", "is_read", "rental_id", "dedup_key", "attributes", "created_at"}).
			AddRow("n1", "payment", "high", "Payment overdue", "msg", false, "r1", "", []byte(`{"amount_due":"10"}`), time.Now()))

	notes, total, err := repo.List(context.Background(), repository.NotificationFilter{UnreadOnly: true, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, notes, 1)
	assert.Equal(t, "10", notes[0].Attributes["amount_due"])
	assert.Equal(t, domain.PriorityHigh, notes[0].Priority)
}

func TestNotificationRepository_MarkAsReadMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewNotificationRepository(db)

	mock.ExpectExec("UPDATE notifications SET is_read = TRUE WHERE id = \\$1").
		WithArgs("n9").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.True(t, domain.IsNotFound(repo.MarkAsRead(context.Background(), "n9")))
}

func TestSettingsRepository(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSettingsRepository(db)
	ctx := context.Background()
	cols := []string{"payment_reminders", "rental_reminders", "maintenance_alerts", "new_bookings", "email_notifications", "updated_at"}

	t.Run("Defaults before first save", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM notification_settings WHERE id = 1").
			WillReturnRows(sqlmock.NewRows(cols))

		s, err := repo.GetNotificationSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultNotificationSettings(), s)
	})

	t.Run("Stored row", func(t *testing.T) {
		now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
		mock.ExpectQuery("SELECT (.+) FROM notification_settings WHERE id = 1").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(false, true, true, false, true, now))

		s, err := repo.GetNotificationSettings(ctx)
		require.NoError(t, err)
		assert.False(t, s.PaymentReminders)
		assert.False(t, s.NewBookings)
		assert.True(t, s.RentalReminders)
		assert.Equal(t, now, s.UpdatedAt)
	})

	t.Run("Save upserts the single row", func(t *testing.T) {
		s := &domain.NotificationSettings{PaymentReminders: true, UpdatedAt: time.Now()}
		mock.ExpectExec("INSERT INTO notification_settings (.+) ON CONFLICT \\(id\\) DO UPDATE").
			WithArgs(true, false, false, false, false, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.SaveNotificationSettings(ctx, s))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
