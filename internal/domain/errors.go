package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports malformed or out-of-range input. It never leaves state changed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Kind() string { return "validation" }

// NotFoundError reports a missing car, customer, rental or notification.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Kind() string { return "not_found" }

// ConflictError reports a double booking, a lost reservation race or a
// referential-integrity guard. Conflicts lists every clashing rental.
type ConflictError struct {
	Message   string
	Conflicts []Rental
}

func (e *ConflictError) Error() string {
	if len(e.Conflicts) == 0 {
		return "conflict: " + e.Message
	}
	ids := make([]string, len(e.Conflicts))
	for i, r := range e.Conflicts {
		ids[i] = r.ID
	}
	return fmt.Sprintf("conflict: %s (rentals: %s)", e.Message, strings.Join(ids, ", "))
}

func (e *ConflictError) Kind() string { return "conflict" }

// IntegrityError reports an invariant violation found in stored data, typically
// imported or legacy rentals. It is surfaced for inspection rather than repaired.
type IntegrityError struct {
	Message   string
	RentalIDs []string
}

func (e *IntegrityError) Error() string {
	if len(e.RentalIDs) == 0 {
		return "integrity violation: " + e.Message
	}
	return fmt.Sprintf("integrity violation: %s (rentals: %s)", e.Message, strings.Join(e.RentalIDs, ", "))
}

func (e *IntegrityError) Kind() string { return "integrity" }

func NewValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func NewConflictError(message string, conflicts []Rental) error {
	return &ConflictError{Message: message, Conflicts: conflicts}
}

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

func IsIntegrity(err error) bool {
	var e *IntegrityError
	return errors.As(err, &e)
}
