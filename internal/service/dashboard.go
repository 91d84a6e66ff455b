package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/repository"
	"velorent-backend/internal/scheduling"
	"velorent-backend/internal/utils"
)

const maxRevenueMonths = 120

type FleetCounts struct {
	TotalCars       int `json:"total_cars"`
	AvailableCars   int `json:"available_cars"`
	RentedCars      int `json:"rented_cars"`
	MaintenanceCars int `json:"maintenance_cars"`
}

type PaymentDue struct {
	Rental        domain.Rental        `json:"rental"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	RentalStatus  domain.RentalStatus  `json:"rental_status"`
	AmountDue     decimal.Decimal      `json:"amount_due"`
	Overdue       bool                 `json:"overdue"`
}

type MonthRevenue struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
	Rentals int             `json:"rentals"`
}

type DashboardStats struct {
	AsOf              string                      `json:"as_of"`
	Fleet             FleetCounts                 `json:"fleet"`
	ActiveRentals     int                         `json:"active_rentals"`
	RentalsByStatus   map[domain.RentalStatus]int `json:"rentals_by_status"`
	MonthlyRevenue    decimal.Decimal             `json:"monthly_revenue"`
	TotalRevenue      decimal.Decimal             `json:"total_revenue"`
	CollectedAmount   decimal.Decimal             `json:"collected_amount"`
	OutstandingAmount decimal.Decimal             `json:"outstanding_amount"`
	OverduePayments   int                         `json:"overdue_payments"`
	OverdueAmount     decimal.Decimal             `json:"overdue_amount"`
}

// dashboardService computes every aggregate from one car snapshot and one
// rental snapshot. The two snapshots are read separately, so a figure can lag
// a write that lands between them.
type dashboardService struct {
	carRepo    repository.CarRepository
	rentalRepo repository.RentalRepository
	projector  scheduling.Projector
}

func NewDashboardService(carRepo repository.CarRepository, rentalRepo repository.RentalRepository, projector scheduling.Projector) DashboardService {
	return &dashboardService{carRepo: carRepo, rentalRepo: rentalRepo, projector: projector}
}

func (s *dashboardService) activeRentals(rentals []domain.Rental, asOf time.Time) []domain.Rental {
	var out []domain.Rental
	for i := range rentals {
		if s.projector.RentalStatus(&rentals[i], asOf) == domain.RentalStatusActive {
			out = append(out, rentals[i])
		}
	}
	return out
}

// fleetCounts puts each car in exactly one bucket. Maintenance wins over an
// active rental.
func (s *dashboardService) fleetCounts(cars []domain.Car, active []domain.Rental) FleetCounts {
	rented := make(map[string]bool, len(active))
	for _, r := range active {
		rented[r.CarID] = true
	}

	counts := FleetCounts{TotalCars: len(cars)}
	for i := range cars {
		switch {
		case cars[i].InMaintenance():
			counts.MaintenanceCars++
		case rented[cars[i].ID]:
			counts.RentedCars++
		}
	}
	counts.AvailableCars = counts.TotalCars - counts.RentedCars - counts.MaintenanceCars
	return counts
}

func (s *dashboardService) FleetCounts(ctx context.Context, asOf time.Time) (*FleetCounts, error) {
	cars, err := s.carRepo.List(ctx, "")
	if err != nil {
		return nil, err
	}
	rentals, err := s.rentalRepo.List(ctx, repository.RentalFilter{})
	if err != nil {
		return nil, err
	}
	counts := s.fleetCounts(cars, s.activeRentals(rentals, asOf))
	return &counts, nil
}

func (s *dashboardService) ActiveRentalCount(ctx context.Context, asOf time.Time) (int, error) {
	rentals, err := s.rentalRepo.List(ctx, repository.RentalFilter{})
	if err != nil {
		return 0, err
	}
	return len(s.activeRentals(rentals, asOf)), nil
}

// revenueIn attributes each rental's full total to the month it starts in.
func revenueIn(rentals []domain.Rental, month utils.YearMonth) (decimal.Decimal, int) {
	sum := decimal.Zero
	n := 0
	for i := range rentals {
		if rentals[i].Cancelled || !month.Contains(rentals[i].StartDate) {
			continue
		}
		sum = sum.Add(rentals[i].TotalAmount)
		n++
	}
	return sum, n
}

func (s *dashboardService) MonthlyRevenue(ctx context.Context, month utils.YearMonth) (decimal.Decimal, error) {
	rentals, err := s.rentalRepo.List(ctx, repository.RentalFilter{})
	if err != nil {
		return decimal.Zero, err
	}
	sum, _ := revenueIn(rentals, month)
	return sum, nil
}

func (s *dashboardService) RevenueByMonth(ctx context.Context, from, to utils.YearMonth) ([]MonthRevenue, error) {
	if to.Before(from) {
		return nil, domain.NewValidationError("to", "month range ends before it starts")
	}
	rentals, err := s.rentalRepo.List(ctx, repository.RentalFilter{})
	if err != nil {
		return nil, err
	}

	var series []MonthRevenue
	for m := from; !to.Before(m); m = m.Next() {
		if len(series) == maxRevenueMonths {
			return nil, domain.NewValidationError("from", "month range is limited to %d months", maxRevenueMonths)
		}
		sum, n := revenueIn(rentals, m)
		series = append(series, MonthRevenue{Month: m.String(), Revenue: sum, Rentals: n})
	}
	return series, nil
}

func (s *dashboardService) paymentsDue(rentals []domain.Rental, asOf time.Time) []PaymentDue {
	due := []PaymentDue{}
	for i := range rentals {
		r := &rentals[i]
		if r.Cancelled {
			continue
		}
		ps := scheduling.PaymentStatus(r)
		if ps == domain.PaymentStatusPaid {
			continue
		}
		due = append(due, PaymentDue{
			Rental:        *r,
			PaymentStatus: ps,
			RentalStatus:  s.projector.RentalStatus(r, asOf),
			AmountDue:     r.AmountDue(),
			Overdue:       s.projector.OverdueAlert(r, asOf),
		})
	}
	sort.SliceStable(due, func(i, j int) bool {
		a, b := due[i], due[j]
		if !a.AmountDue.Equal(b.AmountDue) {
			return a.AmountDue.GreaterThan(b.AmountDue)
		}
		if !a.Rental.StartDate.Equal(b.Rental.StartDate) {
			return a.Rental.StartDate.Before(b.Rental.StartDate)
		}
		return a.Rental.ID < b.Rental.ID
	})
	return due
}

func (s *dashboardService) PaymentsDue(ctx context.Context, asOf time.Time) ([]PaymentDue, error) {
	rentals, err := s.rentalRepo.List(ctx, repository.RentalFilter{})
	if err != nil {
		return nil, err
	}
	return s.paymentsDue(rentals, asOf), nil
}

func (s *dashboardService) Stats(ctx context.Context, asOf time.Time) (*DashboardStats, error) {
	cars, err := s.carRepo.List(ctx, "")
	if err != nil {
		return nil, err
	}
	rentals, err := s.rentalRepo.List(ctx, repository.RentalFilter{IncludeCancelled: true})
	if err != nil {
		return nil, err
	}

	today := s.projector.Today(asOf)
	active := s.activeRentals(rentals, asOf)
	stats := &DashboardStats{
		AsOf:              utils.FormatDate(today),
		Fleet:             s.fleetCounts(cars, active),
		ActiveRentals:     len(active),
		RentalsByStatus:   map[domain.RentalStatus]int{},
		TotalRevenue:      decimal.Zero,
		CollectedAmount:   decimal.Zero,
		OutstandingAmount: decimal.Zero,
		OverdueAmount:     decimal.Zero,
	}
	stats.MonthlyRevenue, _ = revenueIn(rentals, utils.MonthOf(today))

	for i := range rentals {
		r := &rentals[i]
		stats.RentalsByStatus[s.projector.RentalStatus(r, asOf)]++
		if r.Cancelled {
			continue
		}
		stats.TotalRevenue = stats.TotalRevenue.Add(r.TotalAmount)
		stats.CollectedAmount = stats.CollectedAmount.Add(r.PaidAmount)
	}
	for _, d := range s.paymentsDue(rentals, asOf) {
		stats.OutstandingAmount = stats.OutstandingAmount.Add(d.AmountDue)
		if d.Overdue {
			stats.OverduePayments++
			stats.OverdueAmount = stats.OverdueAmount.Add(d.AmountDue)
		}
	}
	return stats, nil
}
