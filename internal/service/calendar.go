package service

import (
	"context"
	"time"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/repository"
	"velorent-backend/internal/scheduling"
	"velorent-backend/internal/utils"
)

// Occupancy maps every yyyy-mm-dd of a month to the rentals covering that day.
type Occupancy map[string][]domain.Rental

type calendarService struct {
	carRepo    repository.CarRepository
	rentalRepo repository.RentalRepository
	resolver   *scheduling.Resolver
	projector  scheduling.Projector
	clock      utils.Clock
}

func NewCalendarService(
	carRepo repository.CarRepository,
	rentalRepo repository.RentalRepository,
	resolver *scheduling.Resolver,
	projector scheduling.Projector,
	clock utils.Clock,
) CalendarService {
	return &calendarService{
		carRepo:    carRepo,
		rentalRepo: rentalRepo,
		resolver:   resolver,
		projector:  projector,
		clock:      clock,
	}
}

// CheckAvailability answers for calendar dates; instants are reduced the same
// way booking reduces them.
func (s *calendarService) CheckAvailability(ctx context.Context, carID string, start, end time.Time, excludeRentalID string) (*scheduling.Availability, error) {
	start, end = s.projector.CalendarDate(start), s.projector.CalendarDate(end)
	return s.resolver.CheckAvailability(ctx, carID, start, end, excludeRentalID)
}

func (s *calendarService) FleetAvailabilityOn(ctx context.Context, day time.Time) ([]scheduling.CarAvailability, error) {
	cars, err := s.carRepo.List(ctx, "")
	if err != nil {
		return nil, err
	}
	return s.resolver.FleetAvailabilityOn(cars, s.projector.CalendarDate(day)), nil
}

// OccupancyForMonth covers each day from start through end inclusive, the same
// way status treats the return day. Only active and upcoming rentals appear.
func (s *calendarService) OccupancyForMonth(ctx context.Context, carID string, month utils.YearMonth) (Occupancy, error) {
	if carID != "" {
		if _, err := s.carRepo.GetByID(ctx, carID); err != nil {
			return nil, err
		}
	}
	rentals, err := s.rentalRepo.List(ctx, repository.RentalFilter{CarID: carID})
	if err != nil {
		return nil, err
	}

	days := month.Days()
	occ := make(Occupancy, len(days))
	for _, d := range days {
		occ[utils.FormatDate(d)] = []domain.Rental{}
	}

	now := s.clock.Now()
	first, last := month.First(), month.Last()
	for _, r := range rentals {
		status := s.projector.RentalStatus(&r, now)
		if status != domain.RentalStatusActive && status != domain.RentalStatusUpcoming {
			continue
		}
		if r.EndDate.Before(first) || r.StartDate.After(last) {
			continue
		}
		from, to := r.StartDate, r.EndDate
		if from.Before(first) {
			from = first
		}
		if to.After(last) {
			to = last
		}
		for d := from; !d.After(to); d = utils.AddDays(d, 1) {
			key := utils.FormatDate(d)
			occ[key] = append(occ[key], r)
		}
	}
	return occ, nil
}
