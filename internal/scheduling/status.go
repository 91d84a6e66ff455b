package scheduling

import (
	"time"

	"github.com/shopspring/decimal"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/utils"
)

// Projector derives rental and payment status from stored facts and "now".
// Now is reduced to its calendar date in Location before any comparison.
type Projector struct {
	Location  *time.Location
	GraceDays int
}

func NewProjector(loc *time.Location, graceDays int) Projector {
	if loc == nil {
		loc = time.UTC
	}
	if graceDays < 0 {
		graceDays = 0
	}
	return Projector{Location: loc, GraceDays: graceDays}
}

// Today is the calendar date of now in the projector's location.
func (p Projector) Today(now time.Time) time.Time {
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	return utils.DateOf(now, loc)
}

// CalendarDate reduces a caller-supplied booking date to a calendar date in
// the projector's location.
func (p Projector) CalendarDate(t time.Time) time.Time {
	return utils.CalendarDate(t, p.Location)
}

// RentalStatus classifies a rental. The end date counts as a rental day here,
// unlike conflict detection where it is the next renter's start.
func (p Projector) RentalStatus(r *domain.Rental, now time.Time) domain.RentalStatus {
	if r.Cancelled {
		return domain.RentalStatusCancelled
	}
	today := p.Today(now)
	switch {
	case today.Before(r.StartDate):
		return domain.RentalStatusUpcoming
	case !today.After(r.EndDate):
		return domain.RentalStatusActive
	default:
		return domain.RentalStatusCompleted
	}
}

// PaymentStatus compares what was paid against the frozen total.
func PaymentStatus(r *domain.Rental) domain.PaymentStatus {
	switch {
	case r.PaidAmount.GreaterThanOrEqual(r.TotalAmount):
		return domain.PaymentStatusPaid
	case r.PaidAmount.IsPositive():
		return domain.PaymentStatusPartial
	default:
		return domain.PaymentStatusUnpaid
	}
}

// OverdueAlert is raised for an active rental that is not fully paid once more
// than GraceDays have passed since pickup.
func (p Projector) OverdueAlert(r *domain.Rental, now time.Time) bool {
	if PaymentStatus(r) == domain.PaymentStatusPaid {
		return false
	}
	if p.RentalStatus(r, now) != domain.RentalStatusActive {
		return false
	}
	return utils.DaysBetween(r.StartDate, p.Today(now)) > p.GraceDays
}

// DaysRemaining counts days until the end date. Negative means the car is late.
func (p Projector) DaysRemaining(r *domain.Rental, now time.Time) int {
	return utils.DaysBetween(p.Today(now), r.EndDate)
}

// CheckIntegrity reports stored facts that break the rental invariants.
func CheckIntegrity(r *domain.Rental) error {
	if !r.StartDate.Before(r.EndDate) {
		return &domain.IntegrityError{Message: "rental end date is not after its start date", RentalIDs: []string{r.ID}}
	}
	if r.PaidAmount.IsNegative() {
		return &domain.IntegrityError{Message: "paid amount is negative", RentalIDs: []string{r.ID}}
	}
	if r.PaidAmount.GreaterThan(r.TotalAmount) {
		return &domain.IntegrityError{Message: "paid amount exceeds total amount", RentalIDs: []string{r.ID}}
	}
	return nil
}

// View is a rental together with everything derived from it.
type View struct {
	domain.Rental
	Status        domain.RentalStatus  `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	AmountDue     decimal.Decimal      `json:"amount_due"`
	DaysRemaining int                  `json:"days_remaining"`
	Overdue       bool                 `json:"overdue"`
}

// Project builds the derived view of a rental as of now.
func (p Projector) Project(r *domain.Rental, now time.Time) View {
	return View{
		Rental:        *r,
		Status:        p.RentalStatus(r, now),
		PaymentStatus: PaymentStatus(r),
		AmountDue:     r.AmountDue(),
		DaysRemaining: p.DaysRemaining(r, now),
		Overdue:       p.OverdueAlert(r, now),
	}
}
