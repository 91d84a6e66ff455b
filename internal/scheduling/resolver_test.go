package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/utils"
)

type fakeStore struct {
	mu      sync.Mutex
	cars    map[string]*domain.Car
	rentals map[string]*domain.Rental
}

func newFakeStore(cars ...domain.Car) *fakeStore {
	s := &fakeStore{cars: map[string]*domain.Car{}, rentals: map[string]*domain.Rental{}}
	for i := range cars {
		s.cars[cars[i].ID] = &cars[i]
	}
	return s
}

type carReader struct{ *fakeStore }
type rentalReader struct{ *fakeStore }

func (s carReader) GetByID(_ context.Context, id string) (*domain.Car, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cars[id]
	if !ok {
		return nil, domain.NewNotFoundError("car", id)
	}
	cp := *c
	return &cp, nil
}

func (s rentalReader) GetByID(_ context.Context, id string) (*domain.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rentals[id]
	if !ok {
		return nil, domain.NewNotFoundError("rental", id)
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) save(r domain.Rental) CommitFunc {
	return func(context.Context) (*domain.Rental, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.rentals[r.ID] = &r
		cp := r
		return &cp, nil
	}
}

func newTestResolver(cars ...domain.Car) (*Resolver, *fakeStore) {
	store := newFakeStore(cars...)
	return NewResolver(NewIntervalIndex(), carReader{store}, rentalReader{store}), store
}

func rental(id, carID string, start, end time.Time) domain.Rental {
	return domain.Rental{ID: id, CarID: carID, StartDate: start, EndDate: end}
}

func TestResolver_CheckAvailability(t *testing.T) {
	ctx := context.Background()
	res, store := newTestResolver(domain.Car{ID: "c1", FleetStatus: domain.FleetStatusAvailable})

	_, err := res.Reserve(ctx, "c1", sep20, oct01, store.save(rental("r1", "c1", sep20, oct01)))
	require.NoError(t, err)

	avail, err := res.CheckAvailability(ctx, "c1", sep25, sep28, "")
	require.NoError(t, err)
	assert.False(t, avail.Available)
	require.Len(t, avail.Conflicts, 1)
	assert.Equal(t, "r1", avail.Conflicts[0].ID)

	avail, err = res.CheckAvailability(ctx, "c1", oct01, oct05, "")
	require.NoError(t, err)
	assert.True(t, avail.Available)
	assert.Empty(t, avail.Conflicts)

	avail, err = res.CheckAvailability(ctx, "c1", sep25, sep28, "r1")
	require.NoError(t, err)
	assert.True(t, avail.Available)

	_, err = res.CheckAvailability(ctx, "c1", sep28, sep25, "")
	assert.True(t, domain.IsValidation(err))

	_, err = res.CheckAvailability(ctx, "missing", sep25, sep28, "")
	assert.True(t, domain.IsNotFound(err))
}

func TestResolver_MaintenanceIsHardOverride(t *testing.T) {
	ctx := context.Background()
	res, store := newTestResolver(domain.Car{ID: "c1", FleetStatus: domain.FleetStatusMaintenance})

	avail, err := res.CheckAvailability(ctx, "c1", sep25, sep28, "")
	require.NoError(t, err)
	assert.False(t, avail.Available)
	assert.True(t, avail.Maintenance)
	assert.Empty(t, avail.Conflicts)

	_, err = res.Reserve(ctx, "c1", sep25, sep28, store.save(rental("r1", "c1", sep25, sep28)))
	assert.True(t, domain.IsConflict(err))
	assert.Equal(t, 0, res.Index().Len())
}

func TestResolver_FailedCommitLeavesIndexUntouched(t *testing.T) {
	ctx := context.Background()
	res, _ := newTestResolver(domain.Car{ID: "c1"})

	boom := errors.New("insert failed")
	_, err := res.Reserve(ctx, "c1", sep20, oct01, func(context.Context) (*domain.Rental, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, res.Index().Len())
}

func TestResolver_NoOverlapAcrossManyReservations(t *testing.T) {
	ctx := context.Background()
	res, store := newTestResolver(domain.Car{ID: "c1"})

	base := utils.Date(2024, 1, 1)
	for i := 0; i < 60; i++ {
		start := base.AddDate(0, 0, (i*7)%90)
		end := start.AddDate(0, 0, 1+i%5)
		_, err := res.Reserve(ctx, "c1", start, end, store.save(rental(fmt.Sprintf("r%d", i), "c1", start, end)))
		if err != nil {
			require.True(t, domain.IsConflict(err), err.Error())
		}
	}

	assert.Empty(t, res.Index().IntegrityViolations())
	ranges := res.Index().RangesFor("c1")
	for i := 1; i < len(ranges); i++ {
		assert.False(t, ranges[i].Start.Before(ranges[i-1].End), "ranges %d and %d overlap", i-1, i)
	}
}

func TestResolver_ConcurrentReserveExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	res, store := newTestResolver(domain.Car{ID: "c1"})

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			id := fmt.Sprintf("r%d", i)
			s, e := sep20.AddDate(0, 0, i%3), sep28.AddDate(0, 0, i%3)
			_, errs[i] = res.Reserve(ctx, "c1", s, e, store.save(rental(id, "c1", s, e)))
		}(i)
	}
	close(start)
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, domain.IsConflict(err))
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, res.Index().Len())
}

func TestResolver_RescheduleAndRelease(t *testing.T) {
	ctx := context.Background()
	res, store := newTestResolver(domain.Car{ID: "c1"})

	r1 := rental("r1", "c1", sep20, sep25)
	r2 := rental("r2", "c1", sep28, oct05)
	_, err := res.Reserve(ctx, "c1", r1.StartDate, r1.EndDate, store.save(r1))
	require.NoError(t, err)
	_, err = res.Reserve(ctx, "c1", r2.StartDate, r2.EndDate, store.save(r2))
	require.NoError(t, err)

	// Extending r1 into its own old range is fine; into r2 is not.
	moved := rental("r1", "c1", sep20, sep28)
	_, err = res.Reschedule(ctx, &r1, moved.StartDate, moved.EndDate, store.save(moved))
	require.NoError(t, err)
	assert.Equal(t, sep28, res.Index().RangesFor("c1")[0].End)

	clash := rental("r1", "c1", sep20, oct01)
	_, err = res.Reschedule(ctx, &moved, clash.StartDate, clash.EndDate, store.save(clash))
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "r2", conflict.Conflicts[0].ID)

	cancelled := r2
	cancelled.Cancelled = true
	_, err = res.Release(ctx, "c1", "r2", store.save(cancelled))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Index().Len())

	_, err = res.Reschedule(ctx, &moved, clash.StartDate, clash.EndDate, store.save(clash))
	assert.NoError(t, err)
}

func TestResolver_FleetAvailabilityOn(t *testing.T) {
	ctx := context.Background()
	cars := []domain.Car{{ID: "c1"}, {ID: "c2"}, {ID: "c3", FleetStatus: domain.FleetStatusMaintenance}}
	res, store := newTestResolver(cars...)
	_, err := res.Reserve(ctx, "c1", sep20, oct01, store.save(rental("r1", "c1", sep20, oct01)))
	require.NoError(t, err)

	rows := res.FleetAvailabilityOn(cars, sep25)
	require.Len(t, rows, 3)
	assert.False(t, rows[0].Available)
	assert.Equal(t, []string{"r1"}, rows[0].RentalIDs)
	assert.True(t, rows[1].Available)
	assert.False(t, rows[2].Available)
	assert.True(t, rows[2].Maintenance)

	assert.True(t, res.FleetAvailabilityOn(cars, oct01)[0].Available, "return day is free for the next renter")
}

func TestScenario_BookPayCancelRebook(t *testing.T) {
	ctx := context.Background()
	res, store := newTestResolver(domain.Car{ID: "C1", DailyRate: decimal.NewFromInt(189)})
	proj := NewProjector(time.UTC, 0)

	cost, err := utils.CalculateRentalCost(sep20, oct01, decimal.NewFromInt(189))
	require.NoError(t, err)
	assert.Equal(t, 11, cost.Days)
	assert.True(t, cost.TotalCost.Equal(decimal.NewFromInt(2079)))

	r1 := rental("R1", "C1", sep20, oct01)
	r1.TotalAmount = cost.TotalCost
	_, err = res.Reserve(ctx, "C1", sep20, oct01, store.save(r1))
	require.NoError(t, err)

	r2 := rental("R2", "C1", sep25, sep28)
	_, err = res.Reserve(ctx, "C1", sep25, sep28, store.save(r2))
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Len(t, conflict.Conflicts, 1)
	assert.Equal(t, "R1", conflict.Conflicts[0].ID)

	r1.PaidAmount = decimal.RequireFromString("1039.50")
	assert.Equal(t, domain.PaymentStatusPartial, PaymentStatus(&r1))
	assert.Equal(t, domain.RentalStatusActive, proj.RentalStatus(&r1, utils.Date(2024, 9, 26)))

	r1.Cancelled = true
	_, err = res.Release(ctx, "C1", "R1", store.save(r1))
	require.NoError(t, err)

	_, err = res.Reserve(ctx, "C1", sep25, sep28, store.save(r2))
	assert.NoError(t, err)
}
