package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/logger"
	"velorent-backend/internal/repository"
	"velorent-backend/internal/scheduling"
	"velorent-backend/internal/utils"
)

type fleetService struct {
	carRepo    repository.CarRepository
	rentalRepo repository.RentalRepository
	resolver   *scheduling.Resolver
	projector  scheduling.Projector
	noteSvc    NotificationService
	validator  Validator
	clock      utils.Clock
}

func NewFleetService(
	carRepo repository.CarRepository,
	rentalRepo repository.RentalRepository,
	resolver *scheduling.Resolver,
	projector scheduling.Projector,
	noteSvc NotificationService,
	validator Validator,
	clock utils.Clock,
) FleetService {
	return &fleetService{
		carRepo:    carRepo,
		rentalRepo: rentalRepo,
		resolver:   resolver,
		projector:  projector,
		noteSvc:    noteSvc,
		validator:  validator,
		clock:      clock,
	}
}

func normalizeCar(in *CarInput) {
	in.Make = strings.TrimSpace(in.Make)
	in.Model = strings.TrimSpace(in.Model)
	in.Color = strings.TrimSpace(in.Color)
	in.LicensePlate = strings.ToUpper(strings.Join(strings.Fields(in.LicensePlate), " "))
}

func (s *fleetService) CreateCar(ctx context.Context, in CarInput) (*domain.Car, error) {
	logger.EnterMethod("fleetService.CreateCar", "plate", in.LicensePlate)

	normalizeCar(&in)
	if err := s.validator.Struct(in); err != nil {
		logger.ExitMethodWithError("fleetService.CreateCar", err)
		return nil, err
	}
	status := in.FleetStatus
	if status == "" {
		status = domain.FleetStatusAvailable
	}

	now := s.clock.Now()
	car := &domain.Car{
		ID:           uuid.New().String(),
		Make:         in.Make,
		Model:        in.Model,
		Year:         in.Year,
		Color:        in.Color,
		LicensePlate: in.LicensePlate,
		DailyRate:    in.DailyRate.Round(2),
		FleetStatus:  status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.carRepo.Create(ctx, car); err != nil {
		logger.ExitMethodWithError("fleetService.CreateCar", err, "plate", car.LicensePlate)
		return nil, err
	}

	logger.Info("Car added to fleet", "carID", car.ID, "plate", car.LicensePlate)
	logger.ExitMethod("fleetService.CreateCar", "carID", car.ID)
	return car, nil
}

func (s *fleetService) GetCar(ctx context.Context, id string) (*domain.Car, error) {
	return s.carRepo.GetByID(ctx, id)
}

func (s *fleetService) ListCars(ctx context.Context, status domain.FleetStatus) ([]domain.Car, error) {
	if status != "" && !status.Valid() {
		return nil, domain.NewValidationError("status", "unknown fleet status %q", status)
	}
	return s.carRepo.List(ctx, status)
}

// UpdateCar edits the car's details. A new daily rate applies to future
// bookings only; existing rentals keep their snapshot.
func (s *fleetService) UpdateCar(ctx context.Context, id string, in CarInput) (*domain.Car, error) {
	logger.EnterMethod("fleetService.UpdateCar", "carID", id)

	normalizeCar(&in)
	if err := s.validator.Struct(in); err != nil {
		logger.ExitMethodWithError("fleetService.UpdateCar", err, "carID", id)
		return nil, err
	}
	var (
		car  *domain.Car
		prev domain.FleetStatus
	)
	err := s.resolver.WithCar(ctx, id, func(ctx context.Context) error {
		var err error
		car, err = s.carRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		prev = car.FleetStatus
		car.Make = in.Make
		car.Model = in.Model
		car.Year = in.Year
		car.Color = in.Color
		car.LicensePlate = in.LicensePlate
		car.DailyRate = in.DailyRate.Round(2)
		if in.FleetStatus != "" {
			car.FleetStatus = in.FleetStatus
		}
		car.UpdatedAt = s.clock.Now()
		return s.carRepo.Update(ctx, car)
	})
	if err != nil {
		logger.ExitMethodWithError("fleetService.UpdateCar", err, "carID", id)
		return nil, err
	}
	s.maintenanceAlert(ctx, car, prev)
	logger.ExitMethod("fleetService.UpdateCar", "carID", id)
	return car, nil
}

// SetFleetStatus runs under the car's booking lock, so a switch to
// maintenance and a reservation never interleave.
func (s *fleetService) SetFleetStatus(ctx context.Context, id string, status domain.FleetStatus) (*domain.Car, error) {
	if !status.Valid() {
		return nil, domain.NewValidationError("fleet_status", "unknown fleet status %q", status)
	}

	var (
		car  *domain.Car
		prev domain.FleetStatus
	)
	err := s.resolver.WithCar(ctx, id, func(ctx context.Context) error {
		var err error
		car, err = s.carRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		prev = car.FleetStatus
		if prev == status {
			return nil
		}
		car.FleetStatus = status
		car.UpdatedAt = s.clock.Now()
		return s.carRepo.Update(ctx, car)
	})
	if err != nil {
		return nil, err
	}
	if prev != status {
		logger.Info("Fleet status changed", "carID", id, "from", prev, "to", status)
		s.maintenanceAlert(ctx, car, prev)
	}
	return car, nil
}

// maintenanceAlert notifies the admin when a car has just entered maintenance.
func (s *fleetService) maintenanceAlert(ctx context.Context, car *domain.Car, prev domain.FleetStatus) {
	if prev == domain.FleetStatusMaintenance || !car.InMaintenance() {
		return
	}
	if !settingsOrDefault(ctx, s.noteSvc).MaintenanceAlerts {
		return
	}
	_, err := s.noteSvc.Notify(ctx, &domain.Notification{
		Type:     domain.NotificationTypeMaintenance,
		Priority: domain.PriorityMedium,
		Title:    "Car in maintenance",
		Message:  fmt.Sprintf("%s (%s) is out of service and cannot be booked", car.Label(), car.LicensePlate),
		Attributes: map[string]string{
			"car_id":        car.ID,
			"license_plate": car.LicensePlate,
		},
	})
	if err != nil {
		logger.Warn("Failed to record maintenance alert", "carID", car.ID, "error", err)
	}
}

// DeleteCar refuses while the car has a live or future booking. The check and
// the delete run under the car's booking lock.
func (s *fleetService) DeleteCar(ctx context.Context, id string) error {
	logger.EnterMethod("fleetService.DeleteCar", "carID", id)

	if _, err := s.carRepo.GetByID(ctx, id); err != nil {
		logger.ExitMethodWithError("fleetService.DeleteCar", err, "carID", id)
		return err
	}

	err := s.resolver.WithCar(ctx, id, func(ctx context.Context) error {
		rentals, err := s.rentalRepo.List(ctx, repository.RentalFilter{CarID: id})
		if err != nil {
			return err
		}
		if blocking := s.liveBookings(rentals); len(blocking) > 0 {
			return domain.NewConflictError("car has current or upcoming rentals", blocking)
		}
		return s.carRepo.Delete(ctx, id)
	})
	if err != nil {
		logger.ExitMethodWithError("fleetService.DeleteCar", err, "carID", id)
		return err
	}

	logger.Info("Car removed from fleet", "carID", id)
	logger.ExitMethod("fleetService.DeleteCar", "carID", id)
	return nil
}

// liveBookings returns the non-cancelled rentals whose end date is today or later.
func (s *fleetService) liveBookings(rentals []domain.Rental) []domain.Rental {
	today := s.projector.Today(s.clock.Now())
	var out []domain.Rental
	for _, r := range rentals {
		if !r.Cancelled && !r.EndDate.Before(today) {
			out = append(out, r)
		}
	}
	return out
}
