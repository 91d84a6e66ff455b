package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/logger"
	"velorent-backend/internal/repository"
)

type rentalRepository struct {
	db *sql.DB
}

func NewRentalRepository(db *sql.DB) repository.RentalRepository {
	return &rentalRepository{db: db}
}

const rentalColumns = `id, car_id, customer_id, start_date, end_date, pickup_location, daily_rate, total_amount, paid_amount, cancelled, cancelled_at, notes, created_at, updated_at`

func scanRental(row rowScanner) (*domain.Rental, error) {
	rt := &domain.Rental{}
	var cancelledAt sql.NullTime
	err := row.Scan(&rt.ID, &rt.CarID, &rt.CustomerID, &rt.StartDate, &rt.EndDate, &rt.PickupLocation,
		&rt.DailyRate, &rt.TotalAmount, &rt.PaidAmount, &rt.Cancelled, &cancelledAt, &rt.Notes, &rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if cancelledAt.Valid {
		at := cancelledAt.Time
		rt.CancelledAt = &at
	}
	return rt, nil
}

// Create relies on the rentals_no_overlap exclusion constraint as the last
// line of defence when several processes book the same car.
func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	logger.EnterMethod("rentalRepository.Create", "rentalID", rt.ID, "carID", rt.CarID)

	query := `INSERT INTO rentals (` + rentalColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	logger.DatabaseCall("INSERT", "rentals", "rentalID", rt.ID, "carID", rt.CarID)
	res, err := r.db.ExecContext(ctx, query, rt.ID, rt.CarID, rt.CustomerID, rt.StartDate, rt.EndDate, rt.PickupLocation,
		rt.DailyRate, rt.TotalAmount, rt.PaidAmount, rt.Cancelled, rt.CancelledAt, rt.Notes, rt.CreatedAt, rt.UpdatedAt)
	logger.DatabaseResult("INSERT", rowsAffected(res), err, "rentalID", rt.ID)

	err = translate(err, "rental", rt.ID)
	if err != nil {
		logger.ExitMethodWithError("rentalRepository.Create", err, "rentalID", rt.ID)
		return err
	}
	logger.ExitMethod("rentalRepository.Create", "rentalID", rt.ID)
	return nil
}

func (r *rentalRepository) GetByID(ctx context.Context, id string) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`
	rt, err := scanRental(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, "rental", id)
	}
	return rt, nil
}

func (r *rentalRepository) Update(ctx context.Context, rt *domain.Rental) error {
	query := `UPDATE rentals SET start_date=$1, end_date=$2, pickup_location=$3, total_amount=$4, paid_amount=$5,
	          cancelled=$6, cancelled_at=$7, notes=$8, updated_at=$9 WHERE id=$10`
	logger.DatabaseCall("UPDATE", "rentals", "rentalID", rt.ID)
	res, err := r.db.ExecContext(ctx, query, rt.StartDate, rt.EndDate, rt.PickupLocation, rt.TotalAmount, rt.PaidAmount,
		rt.Cancelled, rt.CancelledAt, rt.Notes, rt.UpdatedAt, rt.ID)
	logger.DatabaseResult("UPDATE", rowsAffected(res), err, "rentalID", rt.ID)
	if err != nil {
		return translate(err, "rental", rt.ID)
	}
	return requireRow(res, "rental", rt.ID)
}

func (r *rentalRepository) List(ctx context.Context, filter repository.RentalFilter) ([]domain.Rental, error) {
	var (
		where []string
		args  []any
	)
	if !filter.IncludeCancelled {
		where = append(where, "NOT cancelled")
	}
	if filter.CarID != "" {
		args = append(args, filter.CarID)
		where = append(where, fmt.Sprintf("car_id = $%d", len(args)))
	}
	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		where = append(where, fmt.Sprintf("customer_id = $%d", len(args)))
	}

	query := `SELECT ` + rentalColumns + ` FROM rentals`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_date, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "rentals", "")
	}
	defer rows.Close()

	rentals := []domain.Rental{}
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		rentals = append(rentals, *rt)
	}
	return rentals, rows.Err()
}
