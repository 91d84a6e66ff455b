package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"velorent-backend/internal/domain"
)

const (
	uniqueViolation    = "23505"
	exclusionViolation = "23P01"
	checkViolation     = "23514"
)

var uniqueFields = map[string]string{
	"cars_license_plate_key":      "license_plate",
	"customers_email_key":         "email",
	"notifications_dedup_key_idx": "dedup_key",
}

// translate maps driver errors onto the domain taxonomy. Anything it does not
// recognise is wrapped and returned as an infrastructure error.
func translate(err error, entity, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewNotFoundError(entity, id)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation:
			field := uniqueFields[pqErr.Constraint]
			return domain.NewValidationError(field, "%s already exists", entity)
		case exclusionViolation:
			return domain.NewConflictError("car is already booked for the requested dates", nil)
		case checkViolation:
			return domain.NewValidationError("", "%s violates constraint %s", entity, pqErr.Constraint)
		}
	}
	return fmt.Errorf("%s %s: %w", entity, id, err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
