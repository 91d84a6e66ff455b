package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/logger"
	"velorent-backend/internal/repository"
	"velorent-backend/internal/scheduling"
	"velorent-backend/internal/utils"
)

// Page sizes shared by every paginated listing.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type rentalService struct {
	rentalRepo   repository.RentalRepository
	carRepo      repository.CarRepository
	customerRepo repository.CustomerRepository
	resolver     *scheduling.Resolver
	projector    scheduling.Projector
	noteSvc      NotificationService
	validator    Validator
	clock        utils.Clock
}

func NewRentalService(
	rentalRepo repository.RentalRepository,
	carRepo repository.CarRepository,
	customerRepo repository.CustomerRepository,
	resolver *scheduling.Resolver,
	projector scheduling.Projector,
	noteSvc NotificationService,
	validator Validator,
	clock utils.Clock,
) RentalService {
	return &rentalService{
		rentalRepo:   rentalRepo,
		carRepo:      carRepo,
		customerRepo: customerRepo,
		resolver:     resolver,
		projector:    projector,
		noteSvc:      noteSvc,
		validator:    validator,
		clock:        clock,
	}
}

func (s *rentalService) now(asOf time.Time) time.Time {
	if asOf.IsZero() {
		return s.clock.Now()
	}
	return asOf
}

// CreateRental books a car for [StartDate, EndDate). Dates are reduced to
// calendar dates first. The customer's lock is held for the whole booking and
// the car is priced from its state under the car's lock, so a concurrent
// delete or rate change is either fully before or fully after the booking.
func (s *rentalService) CreateRental(ctx context.Context, in RentalInput) (*domain.Rental, error) {
	in.StartDate = s.projector.CalendarDate(in.StartDate)
	in.EndDate = s.projector.CalendarDate(in.EndDate)
	logger.EnterMethod("rentalService.CreateRental", "carID", in.CarID, "customerID", in.CustomerID,
		"start", utils.FormatDate(in.StartDate), "end", utils.FormatDate(in.EndDate))

	in.PickupLocation = strings.TrimSpace(in.PickupLocation)
	if err := s.validator.Struct(in); err != nil {
		logger.ExitMethodWithError("rentalService.CreateRental", err)
		return nil, err
	}
	if !in.StartDate.Before(in.EndDate) {
		err := domain.NewValidationError("end_date", "end date must be after start date")
		logger.ExitMethodWithError("rentalService.CreateRental", err)
		return nil, err
	}

	var (
		car      *domain.Car
		customer *domain.Customer
		cost     utils.RentalCostBreakdown
		created  *domain.Rental
	)
	err := s.resolver.WithCustomer(ctx, in.CustomerID, func(ctx context.Context) error {
		var err error
		customer, err = s.customerRepo.GetByID(ctx, in.CustomerID)
		if err != nil {
			return err
		}

		created, err = s.resolver.Reserve(ctx, in.CarID, in.StartDate, in.EndDate, func(ctx context.Context) (*domain.Rental, error) {
			c, err := s.carRepo.GetByID(ctx, in.CarID)
			if err != nil {
				return nil, err
			}
			cost, err = utils.CalculateRentalCost(in.StartDate, in.EndDate, c.DailyRate)
			if err != nil {
				return nil, domain.NewValidationError("daily_rate", "%v", err)
			}
			car = c

			now := s.clock.Now()
			rental := &domain.Rental{
				ID:             uuid.New().String(),
				CarID:          c.ID,
				CustomerID:     customer.ID,
				StartDate:      in.StartDate,
				EndDate:        in.EndDate,
				PickupLocation: in.PickupLocation,
				DailyRate:      cost.DailyRate,
				TotalAmount:    cost.TotalCost,
				PaidAmount:     decimal.Zero,
				Notes:          in.Notes,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := s.rentalRepo.Create(ctx, rental); err != nil {
				return nil, err
			}
			return rental, nil
		})
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("rentalService.CreateRental", err, "carID", in.CarID, "customerID", in.CustomerID)
		return nil, err
	}

	if settingsOrDefault(ctx, s.noteSvc).NewBookings {
		_, err := s.noteSvc.Notify(ctx, &domain.Notification{
			Type:     domain.NotificationTypeBooking,
			Priority: domain.PriorityLow,
			Title:    "New booking",
			Message: fmt.Sprintf("%s booked %s from %s to %s", customer.FullName, car.Label(),
				utils.FormatDate(created.StartDate), utils.FormatDate(created.EndDate)),
			RentalID: created.ID,
			Attributes: map[string]string{
				"car_id":       car.ID,
				"customer_id":  customer.ID,
				"total_amount": created.TotalAmount.StringFixed(2),
			},
		})
		if err != nil {
			logger.Warn("Booking stored but its notification was not recorded", "rentalID", created.ID, "error", err)
		}
	}

	logger.Info("Rental created", "rentalID", created.ID, "carID", car.ID, "days", cost.Days, "total", created.TotalAmount.StringFixed(2))
	logger.ExitMethod("rentalService.CreateRental", "rentalID", created.ID)
	return created, nil
}

func (s *rentalService) GetRental(ctx context.Context, id string) (*scheduling.View, error) {
	rental, err := s.rentalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := s.projector.Project(rental, s.clock.Now())
	return &view, nil
}

func (s *rentalService) ListRentals(ctx context.Context, q RentalQuery) ([]scheduling.View, int, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, 0, domain.NewValidationError("status", "unknown rental status %q", q.Status)
	}
	rentals, err := s.rentalRepo.List(ctx, repository.RentalFilter{
		CarID:            q.CarID,
		CustomerID:       q.CustomerID,
		IncludeCancelled: q.Status == "" || q.Status == domain.RentalStatusCancelled,
	})
	if err != nil {
		return nil, 0, err
	}

	now := s.clock.Now()
	views := make([]scheduling.View, 0, len(rentals))
	for i := range rentals {
		v := s.projector.Project(&rentals[i], now)
		if q.Status != "" && v.Status != q.Status {
			continue
		}
		views = append(views, v)
	}
	// Newest bookings first, as the rentals page shows them.
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].StartDate.After(views[j].StartDate)
	})

	total := len(views)
	return paginate(views, q.Page, q.PageSize), total, nil
}

func paginate[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// RecordPayment adds amount to what the customer has paid. Payments never
// push the paid amount past the frozen total.
func (s *rentalService) RecordPayment(ctx context.Context, id string, amount decimal.Decimal) (*domain.Rental, error) {
	logger.EnterMethod("rentalService.RecordPayment", "rentalID", id, "amount", amount.String())

	if !amount.IsPositive() {
		err := domain.NewValidationError("amount", "payment amount must be positive")
		logger.ExitMethodWithError("rentalService.RecordPayment", err, "rentalID", id)
		return nil, err
	}
	current, err := s.rentalRepo.GetByID(ctx, id)
	if err != nil {
		logger.ExitMethodWithError("rentalService.RecordPayment", err, "rentalID", id)
		return nil, err
	}

	updated, err := s.resolver.Locked(ctx, current.CarID, func(ctx context.Context) (*domain.Rental, error) {
		rental, err := s.rentalRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if rental.Cancelled {
			return nil, domain.NewValidationError("rental", "cannot record a payment on a cancelled rental")
		}
		paid := rental.PaidAmount.Add(amount)
		if paid.GreaterThan(rental.TotalAmount) {
			return nil, domain.NewValidationError("amount", "payment of %s exceeds the outstanding %s",
				amount.StringFixed(2), rental.AmountDue().StringFixed(2))
		}
		rental.PaidAmount = paid
		rental.UpdatedAt = s.clock.Now()
		if err := s.rentalRepo.Update(ctx, rental); err != nil {
			return nil, err
		}
		return rental, nil
	})
	if err != nil {
		logger.ExitMethodWithError("rentalService.RecordPayment", err, "rentalID", id)
		return nil, err
	}

	logger.Info("Payment recorded", "rentalID", id, "amount", amount.StringFixed(2),
		"paid", updated.PaidAmount.StringFixed(2), "status", scheduling.PaymentStatus(updated))
	logger.ExitMethod("rentalService.RecordPayment", "rentalID", id)
	return updated, nil
}

// CancelRental is idempotent: cancelling twice returns the stored state.
func (s *rentalService) CancelRental(ctx context.Context, id string) (*domain.Rental, error) {
	logger.EnterMethod("rentalService.CancelRental", "rentalID", id)

	current, err := s.rentalRepo.GetByID(ctx, id)
	if err != nil {
		logger.ExitMethodWithError("rentalService.CancelRental", err, "rentalID", id)
		return nil, err
	}
	if current.Cancelled {
		logger.ExitMethod("rentalService.CancelRental", "rentalID", id, "alreadyCancelled", true)
		return current, nil
	}

	cancelled, err := s.resolver.Release(ctx, current.CarID, id, func(ctx context.Context) (*domain.Rental, error) {
		rental, err := s.rentalRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if rental.Cancelled {
			return rental, nil
		}
		now := s.clock.Now()
		rental.Cancelled = true
		rental.CancelledAt = &now
		rental.UpdatedAt = now
		if err := s.rentalRepo.Update(ctx, rental); err != nil {
			return nil, err
		}
		return rental, nil
	})
	if err != nil {
		logger.ExitMethodWithError("rentalService.CancelRental", err, "rentalID", id)
		return nil, err
	}

	logger.Info("Rental cancelled", "rentalID", id, "carID", cancelled.CarID)
	logger.ExitMethod("rentalService.CancelRental", "rentalID", id)
	return cancelled, nil
}

// RescheduleRental moves a booking to new dates. The total is repriced from
// the rate captured at booking time.
func (s *rentalService) RescheduleRental(ctx context.Context, id string, start, end time.Time) (*domain.Rental, error) {
	start, end = s.projector.CalendarDate(start), s.projector.CalendarDate(end)
	logger.EnterMethod("rentalService.RescheduleRental", "rentalID", id,
		"start", utils.FormatDate(start), "end", utils.FormatDate(end))

	current, err := s.rentalRepo.GetByID(ctx, id)
	if err != nil {
		logger.ExitMethodWithError("rentalService.RescheduleRental", err, "rentalID", id)
		return nil, err
	}
	if current.Cancelled {
		err := domain.NewValidationError("rental", "cannot reschedule a cancelled rental")
		logger.ExitMethodWithError("rentalService.RescheduleRental", err, "rentalID", id)
		return nil, err
	}

	updated, err := s.resolver.Reschedule(ctx, current, start, end, func(ctx context.Context) (*domain.Rental, error) {
		rental, err := s.rentalRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if rental.Cancelled {
			return nil, domain.NewValidationError("rental", "cannot reschedule a cancelled rental")
		}
		cost, err := utils.CalculateRentalCost(start, end, rental.DailyRate)
		if err != nil {
			return nil, domain.NewValidationError("dates", "%v", err)
		}
		if cost.TotalCost.LessThan(rental.PaidAmount) {
			return nil, domain.NewValidationError("end_date", "new total %s is below the %s already paid",
				cost.TotalCost.StringFixed(2), rental.PaidAmount.StringFixed(2))
		}
		rental.StartDate = start
		rental.EndDate = end
		rental.TotalAmount = cost.TotalCost
		rental.UpdatedAt = s.clock.Now()
		if err := s.rentalRepo.Update(ctx, rental); err != nil {
			return nil, err
		}
		return rental, nil
	})
	if err != nil {
		logger.ExitMethodWithError("rentalService.RescheduleRental", err, "rentalID", id)
		return nil, err
	}

	logger.ExitMethod("rentalService.RescheduleRental", "rentalID", id, "total", updated.TotalAmount.StringFixed(2))
	return updated, nil
}

// EndRental records an early return: the end date moves to today, or to the
// day after start when the car comes back on its first day. The total is
// repriced from the snapshot rate but never drops below what was already
// paid. Ending on or after the booked return day changes nothing.
func (s *rentalService) EndRental(ctx context.Context, id string) (*domain.Rental, error) {
	logger.EnterMethod("rentalService.EndRental", "rentalID", id)

	current, err := s.rentalRepo.GetByID(ctx, id)
	if err != nil {
		logger.ExitMethodWithError("rentalService.EndRental", err, "rentalID", id)
		return nil, err
	}

	today := s.projector.Today(s.clock.Now())
	switch s.projector.RentalStatus(current, s.clock.Now()) {
	case domain.RentalStatusCancelled:
		err = domain.NewValidationError("rental", "cannot end a cancelled rental")
	case domain.RentalStatusUpcoming:
		err = domain.NewValidationError("rental", "rental has not started yet; cancel it instead")
	case domain.RentalStatusCompleted:
		err = domain.NewValidationError("rental", "rental already ended on %s", utils.FormatDate(current.EndDate))
	}
	if err != nil {
		logger.ExitMethodWithError("rentalService.EndRental", err, "rentalID", id)
		return nil, err
	}

	newEnd := today
	if !newEnd.After(current.StartDate) {
		newEnd = utils.AddDays(current.StartDate, 1)
	}
	if !newEnd.Before(current.EndDate) {
		logger.ExitMethod("rentalService.EndRental", "rentalID", id, "unchanged", true)
		return current, nil
	}

	updated, err := s.resolver.Reschedule(ctx, current, current.StartDate, newEnd, func(ctx context.Context) (*domain.Rental, error) {
		rental, err := s.rentalRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if rental.Cancelled {
			return nil, domain.NewValidationError("rental", "cannot end a cancelled rental")
		}
		cost, err := utils.CalculateRentalCost(rental.StartDate, newEnd, rental.DailyRate)
		if err != nil {
			return nil, domain.NewValidationError("end_date", "%v", err)
		}
		rental.EndDate = newEnd
		rental.TotalAmount = decimal.Max(cost.TotalCost, rental.PaidAmount)
		rental.UpdatedAt = s.clock.Now()
		if err := s.rentalRepo.Update(ctx, rental); err != nil {
			return nil, err
		}
		return rental, nil
	})
	if err != nil {
		logger.ExitMethodWithError("rentalService.EndRental", err, "rentalID", id)
		return nil, err
	}

	logger.Info("Rental ended early", "rentalID", id, "end", utils.FormatDate(updated.EndDate),
		"total", updated.TotalAmount.StringFixed(2))
	logger.ExitMethod("rentalService.EndRental", "rentalID", id)
	return updated, nil
}

func (s *rentalService) listWhere(ctx context.Context, asOf time.Time, keep func(v scheduling.View) bool) ([]scheduling.View, error) {
	rentals, err := s.rentalRepo.List(ctx, repository.RentalFilter{})
	if err != nil {
		return nil, err
	}
	now := s.now(asOf)
	views := []scheduling.View{}
	for i := range rentals {
		v := s.projector.Project(&rentals[i], now)
		if keep(v) {
			views = append(views, v)
		}
	}
	return views, nil
}

// ListActiveRentals orders by return date, soonest first.
func (s *rentalService) ListActiveRentals(ctx context.Context, asOf time.Time) ([]scheduling.View, error) {
	views, err := s.listWhere(ctx, asOf, func(v scheduling.View) bool {
		return v.Status == domain.RentalStatusActive
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].EndDate.Before(views[j].EndDate) })
	return views, nil
}

// ListOverdueRentals returns active rentals carrying the overdue-payment
// alert, largest amount due first.
func (s *rentalService) ListOverdueRentals(ctx context.Context, asOf time.Time) ([]scheduling.View, error) {
	views, err := s.listWhere(ctx, asOf, func(v scheduling.View) bool { return v.Overdue })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].AmountDue.GreaterThan(views[j].AmountDue) })
	return views, nil
}

func (s *rentalService) IntegrityReport(ctx context.Context) ([]domain.IntegrityError, error) {
	rentals, err := s.rentalRepo.List(ctx, repository.RentalFilter{IncludeCancelled: true})
	if err != nil {
		return nil, err
	}

	var report []domain.IntegrityError
	for i := range rentals {
		if err := scheduling.CheckIntegrity(&rentals[i]); err != nil {
			var ie *domain.IntegrityError
			if errors.As(err, &ie) {
				report = append(report, *ie)
				continue
			}
			return nil, fmt.Errorf("check rental %s: %w", rentals[i].ID, err)
		}
	}
	for _, v := range s.resolver.Index().IntegrityViolations() {
		report = append(report, domain.IntegrityError{
			Message: fmt.Sprintf("overlapping rentals on car %s: %s to %s and %s to %s", v.CarID,
				utils.FormatDate(v.First.Start), utils.FormatDate(v.First.End),
				utils.FormatDate(v.Second.Start), utils.FormatDate(v.Second.End)),
			RentalIDs: []string{v.First.RentalID, v.Second.RentalID},
		})
	}
	return report, nil
}
