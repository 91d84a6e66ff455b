package postgres

import (
	"context"
	"database/sql"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/logger"
	"velorent-backend/internal/repository"
)

type carRepository struct {
	db *sql.DB
}

func NewCarRepository(db *sql.DB) repository.CarRepository {
	return &carRepository{db: db}
}

const carColumns = `id, make, model, year, color, license_plate, daily_rate, fleet_status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCar(row rowScanner) (*domain.Car, error) {
	c := &domain.Car{}
	err := row.Scan(&c.ID, &c.Make, &c.Model, &c.Year, &c.Color, &c.LicensePlate, &c.DailyRate, &c.FleetStatus, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *carRepository) Create(ctx context.Context, c *domain.Car) error {
	query := `INSERT INTO cars (` + carColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	logger.DatabaseCall("INSERT", "cars", "carID", c.ID, "plate", c.LicensePlate)
	res, err := r.db.ExecContext(ctx, query, c.ID, c.Make, c.Model, c.Year, c.Color, c.LicensePlate, c.DailyRate, c.FleetStatus, c.CreatedAt, c.UpdatedAt)
	logger.DatabaseResult("INSERT", rowsAffected(res), err, "carID", c.ID)
	return translate(err, "car", c.ID)
}

func (r *carRepository) GetByID(ctx context.Context, id string) (*domain.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars WHERE id = $1`
	c, err := scanCar(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, "car", id)
	}
	return c, nil
}

func (r *carRepository) GetByLicensePlate(ctx context.Context, plate string) (*domain.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars WHERE LOWER(license_plate) = LOWER($1)`
	c, err := scanCar(r.db.QueryRowContext(ctx, query, plate))
	if err != nil {
		return nil, translate(err, "car", plate)
	}
	return c, nil
}

func (r *carRepository) Update(ctx context.Context, c *domain.Car) error {
	query := `UPDATE cars SET make=$1, model=$2, year=$3, color=$4, license_plate=$5, daily_rate=$6, fleet_status=$7, updated_at=$8 WHERE id=$9`
	logger.DatabaseCall("UPDATE", "cars", "carID", c.ID)
	res, err := r.db.ExecContext(ctx, query, c.Make, c.Model, c.Year, c.Color, c.LicensePlate, c.DailyRate, c.FleetStatus, c.UpdatedAt, c.ID)
	logger.DatabaseResult("UPDATE", rowsAffected(res), err, "carID", c.ID)
	if err != nil {
		return translate(err, "car", c.ID)
	}
	return requireRow(res, "car", c.ID)
}

func (r *carRepository) Delete(ctx context.Context, id string) error {
	logger.DatabaseCall("DELETE", "cars", "carID", id)
	res, err := r.db.ExecContext(ctx, `DELETE FROM cars WHERE id = $1`, id)
	logger.DatabaseResult("DELETE", rowsAffected(res), err, "carID", id)
	if err != nil {
		return translate(err, "car", id)
	}
	return requireRow(res, "car", id)
}

func (r *carRepository) List(ctx context.Context, status domain.FleetStatus) ([]domain.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars`
	var args []any
	if status != "" {
		query += ` WHERE fleet_status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY make, model, license_plate`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "cars", "")
	}
	defer rows.Close()

	cars := []domain.Car{}
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, err
		}
		cars = append(cars, *c)
	}
	return cars, rows.Err()
}

func rowsAffected(res sql.Result) int64 {
	if res == nil {
		return 0
	}
	n, _ := res.RowsAffected()
	return n
}

func requireRow(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NewNotFoundError(entity, id)
	}
	return nil
}
