package scheduling

import (
	"context"
	"fmt"
	"sync"
	"time"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/logger"
)

// CarReader is the slice of the car store the resolver needs.
type CarReader interface {
	GetByID(ctx context.Context, id string) (*domain.Car, error)
}

// RentalReader is the slice of the rental store the resolver needs.
type RentalReader interface {
	GetByID(ctx context.Context, id string) (*domain.Rental, error)
}

// CommitFunc persists a change while the car's lock is held. Returning an
// error aborts the operation and leaves the index untouched.
type CommitFunc func(ctx context.Context) (*domain.Rental, error)

// Availability answers "can this car be booked for [Start, End)".
type Availability struct {
	CarID       string          `json:"car_id"`
	Start       time.Time       `json:"start_date"`
	End         time.Time       `json:"end_date"`
	Available   bool            `json:"available"`
	Maintenance bool            `json:"maintenance"`
	Conflicts   []domain.Rental `json:"conflicts"`
}

// CarAvailability is one row of the fleet-wide availability for a single day.
type CarAvailability struct {
	Car         domain.Car `json:"car"`
	Available   bool       `json:"available"`
	Maintenance bool       `json:"maintenance"`
	RentalIDs   []string   `json:"rental_ids,omitempty"`
}

// Resolver is the single authority on whether a car can be booked. Writers
// for the same car are serialized; different cars proceed in parallel.
type Resolver struct {
	index   *IntervalIndex
	cars    CarReader
	rentals RentalReader
	locks   sync.Map

	// customerLocks serializes booking against customer deletion.
	customerLocks sync.Map
}

func NewResolver(index *IntervalIndex, cars CarReader, rentals RentalReader) *Resolver {
	return &Resolver{index: index, cars: cars, rentals: rentals}
}

// Index exposes the underlying interval index for read-only reporting.
func (r *Resolver) Index() *IntervalIndex {
	return r.index
}

func keyedLock(m *sync.Map, key string) func() {
	v, _ := m.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (r *Resolver) lock(carID string) func() {
	return keyedLock(&r.locks, carID)
}

func validateInterval(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return domain.NewValidationError("dates", "start and end dates are required")
	}
	if !start.Before(end) {
		return domain.NewValidationError("end_date", "end date %s must be after start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return nil
}

// CheckAvailability reports every rental clashing with [start, end) on the car,
// ignoring excludeRentalID. A car in maintenance is never available.
func (r *Resolver) CheckAvailability(ctx context.Context, carID string, start, end time.Time, excludeRentalID string) (*Availability, error) {
	if err := validateInterval(start, end); err != nil {
		return nil, err
	}
	car, err := r.cars.GetByID(ctx, carID)
	if err != nil {
		return nil, err
	}
	return r.check(ctx, car, start, end, excludeRentalID)
}

func (r *Resolver) check(ctx context.Context, car *domain.Car, start, end time.Time, excludeRentalID string) (*Availability, error) {
	ranges := r.index.Overlaps(car.ID, start, end, excludeRentalID)
	conflicts := make([]domain.Rental, 0, len(ranges))
	for _, rg := range ranges {
		rental, err := r.rentals.GetByID(ctx, rg.RentalID)
		if err != nil {
			if !domain.IsNotFound(err) {
				return nil, fmt.Errorf("load conflicting rental %s: %w", rg.RentalID, err)
			}
			// Index and store disagree; report what the index knows.
			logger.Warn("Indexed rental missing from store", "rental_id", rg.RentalID, "car_id", car.ID)
			rental = &domain.Rental{ID: rg.RentalID, CarID: car.ID, StartDate: rg.Start, EndDate: rg.End}
		}
		conflicts = append(conflicts, *rental)
	}

	return &Availability{
		CarID:       car.ID,
		Start:       start,
		End:         end,
		Available:   len(conflicts) == 0 && !car.InMaintenance(),
		Maintenance: car.InMaintenance(),
		Conflicts:   conflicts,
	}, nil
}

func unavailable(a *Availability) error {
	if a.Maintenance {
		return domain.NewConflictError("car is under maintenance", a.Conflicts)
	}
	return domain.NewConflictError("car is already booked for the requested dates", a.Conflicts)
}

// Reserve re-checks availability under the car's lock, runs commit to persist
// the rental, then indexes it. A losing concurrent caller gets ConflictError.
func (r *Resolver) Reserve(ctx context.Context, carID string, start, end time.Time, commit CommitFunc) (*domain.Rental, error) {
	if err := validateInterval(start, end); err != nil {
		return nil, err
	}

	unlock := r.lock(carID)
	defer unlock()

	// Read the car under the lock so a concurrent delete or maintenance
	// switch is observed.
	car, err := r.cars.GetByID(ctx, carID)
	if err != nil {
		return nil, err
	}
	avail, err := r.check(ctx, car, start, end, "")
	if err != nil {
		return nil, err
	}
	if !avail.Available {
		return nil, unavailable(avail)
	}

	rental, err := commit(ctx)
	if err != nil {
		return nil, err
	}
	r.index.Insert(carID, rangeOf(rental))
	logger.Debug("Reserved interval", "car_id", carID, "rental_id", rental.ID, "indexed", r.index.Len())
	return rental, nil
}

// Reschedule moves an existing rental to [start, end) under the car's lock.
func (r *Resolver) Reschedule(ctx context.Context, rental *domain.Rental, start, end time.Time, commit CommitFunc) (*domain.Rental, error) {
	if err := validateInterval(start, end); err != nil {
		return nil, err
	}

	unlock := r.lock(rental.CarID)
	defer unlock()

	car, err := r.cars.GetByID(ctx, rental.CarID)
	if err != nil {
		return nil, err
	}
	avail, err := r.check(ctx, car, start, end, rental.ID)
	if err != nil {
		return nil, err
	}
	if !avail.Available {
		return nil, unavailable(avail)
	}

	updated, err := commit(ctx)
	if err != nil {
		return nil, err
	}
	if !r.index.Update(rental.CarID, rental.ID, updated.StartDate, updated.EndDate) {
		r.index.Insert(rental.CarID, rangeOf(updated))
	}
	return updated, nil
}

// Release frees a rental's interval once commit has persisted the cancellation.
func (r *Resolver) Release(ctx context.Context, carID, rentalID string, commit CommitFunc) (*domain.Rental, error) {
	unlock := r.lock(carID)
	defer unlock()

	rental, err := commit(ctx)
	if err != nil {
		return nil, err
	}
	r.index.Remove(carID, rentalID)
	return rental, nil
}

// Locked runs commit under the car's lock without touching the index. Payment
// updates use it so they serialize with bookings on the same car.
func (r *Resolver) Locked(ctx context.Context, carID string, commit CommitFunc) (*domain.Rental, error) {
	unlock := r.lock(carID)
	defer unlock()
	return commit(ctx)
}

// WithCar runs fn under the car's booking lock. Car deletion and fleet status
// changes go through it so they never interleave with a reservation.
func (r *Resolver) WithCar(ctx context.Context, carID string, fn func(ctx context.Context) error) error {
	unlock := r.lock(carID)
	defer unlock()
	return fn(ctx)
}

// WithCustomer runs fn under the customer's lock. Booking takes it before the
// car's lock; customer deletion takes it alone.
func (r *Resolver) WithCustomer(ctx context.Context, customerID string, fn func(ctx context.Context) error) error {
	unlock := keyedLock(&r.customerLocks, customerID)
	defer unlock()
	return fn(ctx)
}

// FleetAvailabilityOn reports, for each car, whether it is free for the whole of day.
func (r *Resolver) FleetAvailabilityOn(cars []domain.Car, day time.Time) []CarAvailability {
	next := day.AddDate(0, 0, 1)
	out := make([]CarAvailability, 0, len(cars))
	for _, car := range cars {
		ranges := r.index.Overlaps(car.ID, day, next, "")
		ids := make([]string, 0, len(ranges))
		for _, rg := range ranges {
			ids = append(ids, rg.RentalID)
		}
		out = append(out, CarAvailability{
			Car:         car,
			Available:   len(ranges) == 0 && !car.InMaintenance(),
			Maintenance: car.InMaintenance(),
			RentalIDs:   ids,
		})
	}
	return out
}
