package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/repository"
)

type carRepository struct {
	mu      sync.RWMutex
	cars    map[string]domain.Car
	byPlate map[string]string
}

func NewCarRepository() repository.CarRepository {
	return &carRepository{
		cars:    make(map[string]domain.Car),
		byPlate: make(map[string]string),
	}
}

func (r *carRepository) Create(_ context.Context, car *domain.Car) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cars[car.ID]; exists {
		return fmt.Errorf("car %s already exists", car.ID)
	}
	plate := normalize(car.LicensePlate)
	if _, taken := r.byPlate[plate]; taken {
		return domain.NewValidationError("license_plate", "%q is already registered", car.LicensePlate)
	}
	r.cars[car.ID] = *car
	r.byPlate[plate] = car.ID
	return nil
}

func (r *carRepository) GetByID(_ context.Context, id string) (*domain.Car, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	car, ok := r.cars[id]
	if !ok {
		return nil, domain.NewNotFoundError("car", id)
	}
	return &car, nil
}

func (r *carRepository) GetByLicensePlate(_ context.Context, plate string) (*domain.Car, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byPlate[normalize(plate)]
	if !ok {
		return nil, domain.NewNotFoundError("car", plate)
	}
	car := r.cars[id]
	return &car, nil
}

func (r *carRepository) Update(_ context.Context, car *domain.Car) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.cars[car.ID]
	if !ok {
		return domain.NewNotFoundError("car", car.ID)
	}
	plate := normalize(car.LicensePlate)
	if owner, taken := r.byPlate[plate]; taken && owner != car.ID {
		return domain.NewValidationError("license_plate", "%q is already registered", car.LicensePlate)
	}
	delete(r.byPlate, normalize(prev.LicensePlate))
	r.byPlate[plate] = car.ID
	r.cars[car.ID] = *car
	return nil
}

func (r *carRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	car, ok := r.cars[id]
	if !ok {
		return domain.NewNotFoundError("car", id)
	}
	delete(r.byPlate, normalize(car.LicensePlate))
	delete(r.cars, id)
	return nil
}

func (r *carRepository) List(_ context.Context, status domain.FleetStatus) ([]domain.Car, error) {
	r.mu.RLock()
	out := make([]domain.Car, 0, len(r.cars))
	for _, car := range r.cars {
		if status == "" || car.FleetStatus == status {
			out = append(out, car)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Make != b.Make {
			return a.Make < b.Make
		}
		if a.Model != b.Model {
			return a.Model < b.Model
		}
		return a.LicensePlate < b.LicensePlate
	})
	return out, nil
}
