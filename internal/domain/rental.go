package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RentalStatus is derived from the rental's dates, the current day and the
// cancellation flag. It is never persisted.
type RentalStatus string

const (
	RentalStatusUpcoming  RentalStatus = "upcoming"
	RentalStatusActive    RentalStatus = "active"
	RentalStatusCompleted RentalStatus = "completed"
	RentalStatusCancelled RentalStatus = "cancelled"
)

func (s RentalStatus) Valid() bool {
	switch s {
	case RentalStatusUpcoming, RentalStatusActive, RentalStatusCompleted, RentalStatusCancelled:
		return true
	}
	return false
}

// PaymentStatus is derived from PaidAmount against TotalAmount. There is no
// "overdue" member: overdue is an alert computed at query time.
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
)

// Rental is a booking of one car by one customer over [StartDate, EndDate).
// StartDate and EndDate are calendar dates stored as UTC midnight.
type Rental struct {
	ID             string          `json:"id"`
	CarID          string          `json:"car_id"`
	CustomerID     string          `json:"customer_id"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	PickupLocation string          `json:"pickup_location"`
	// DailyRate is the car's rate captured at booking time. Later rate changes
	// on the car never reprice an existing rental.
	DailyRate   decimal.Decimal `json:"daily_rate"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	Cancelled   bool            `json:"cancelled"`
	CancelledAt *time.Time      `json:"cancelled_at,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Days is the number of billable days, end minus start.
func (r *Rental) Days() int {
	return int(r.EndDate.Sub(r.StartDate).Hours() / 24)
}

// AmountDue is what the customer still owes.
func (r *Rental) AmountDue() decimal.Decimal {
	return r.TotalAmount.Sub(r.PaidAmount)
}
