package postgres

import (
	"context"
	"database/sql"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/logger"
	"velorent-backend/internal/repository"
)

type customerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) repository.CustomerRepository {
	return &customerRepository{db: db}
}

const customerColumns = `id, full_name, email, phone, address, driver_license, created_at, updated_at`

func scanCustomer(row rowScanner) (*domain.Customer, error) {
	c := &domain.Customer{}
	err := row.Scan(&c.ID, &c.FullName, &c.Email, &c.Phone, &c.Address, &c.DriverLicense, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *customerRepository) Create(ctx context.Context, c *domain.Customer) error {
	query := `INSERT INTO customers (` + customerColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	logger.DatabaseCall("INSERT", "customers", "customerID", c.ID)
	res, err := r.db.ExecContext(ctx, query, c.ID, c.FullName, c.Email, c.Phone, c.Address, c.DriverLicense, c.CreatedAt, c.UpdatedAt)
	logger.DatabaseResult("INSERT", rowsAffected(res), err, "customerID", c.ID)
	return translate(err, "customer", c.ID)
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	c, err := scanCustomer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, "customer", id)
	}
	return c, nil
}

func (r *customerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE LOWER(email) = LOWER($1)`
	c, err := scanCustomer(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, translate(err, "customer", email)
	}
	return c, nil
}

func (r *customerRepository) Update(ctx context.Context, c *domain.Customer) error {
	query := `UPDATE customers SET full_name=$1, email=$2, phone=$3, address=$4, driver_license=$5, updated_at=$6 WHERE id=$7`
	logger.DatabaseCall("UPDATE", "customers", "customerID", c.ID)
	res, err := r.db.ExecContext(ctx, query, c.FullName, c.Email, c.Phone, c.Address, c.DriverLicense, c.UpdatedAt, c.ID)
	logger.DatabaseResult("UPDATE", rowsAffected(res), err, "customerID", c.ID)
	if err != nil {
		return translate(err, "customer", c.ID)
	}
	return requireRow(res, "customer", c.ID)
}

func (r *customerRepository) Delete(ctx context.Context, id string) error {
	logger.DatabaseCall("DELETE", "customers", "customerID", id)
	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	logger.DatabaseResult("DELETE", rowsAffected(res), err, "customerID", id)
	if err != nil {
		return translate(err, "customer", id)
	}
	return requireRow(res, "customer", id)
}

func (r *customerRepository) List(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY full_name, id`)
	if err != nil {
		return nil, translate(err, "customers", "")
	}
	defer rows.Close()

	customers := []domain.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}
