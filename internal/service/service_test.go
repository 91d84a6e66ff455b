package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/repository"
	"velorent-backend/internal/repository/memory"
	"velorent-backend/internal/scheduling"
	"velorent-backend/internal/utils"
	"velorent-backend/internal/validation"
)

// testEnv wires every service over the in-memory store with a fixed clock.
type testEnv struct {
	store     *repository.Store
	clock     *utils.FixedClock
	resolver  *scheduling.Resolver
	projector scheduling.Projector

	fleet     FleetService
	customers CustomerService
	rentals   RentalService
	calendar  CalendarService
	dashboard DashboardService
	notes     NotificationService
}

func newTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()
	return newTestEnvOver(t, now, memory.NewStore())
}

// newTestEnvOver wires the services over store, whose repositories may be wrapped.
func newTestEnvOver(t *testing.T, now time.Time, store *repository.Store) *testEnv {
	t.Helper()
	clock := utils.NewFixedClock(now)
	projector := scheduling.NewProjector(time.UTC, 0)
	resolver := scheduling.NewResolver(scheduling.NewIntervalIndex(), store.Cars, store.Rentals)
	v := validation.New(clock)
	notes := NewNotificationService(store.Notifications, store.Settings, clock)

	return &testEnv{
		store:     store,
		clock:     clock,
		resolver:  resolver,
		projector: projector,
		fleet:     NewFleetService(store.Cars, store.Rentals, resolver, projector, notes, v, clock),
		customers: NewCustomerService(store.Customers, store.Rentals, resolver, projector, v, clock),
		rentals:   NewRentalService(store.Rentals, store.Cars, store.Customers, resolver, projector, notes, v, clock),
		calendar:  NewCalendarService(store.Cars, store.Rentals, resolver, projector, clock),
		dashboard: NewDashboardService(store.Cars, store.Rentals, projector),
		notes:     notes,
	}
}

func (e *testEnv) addCar(t *testing.T, plate, rate string) *domain.Car {
	t.Helper()
	car, err := e.fleet.CreateCar(context.Background(), CarInput{
		Make:         "Perodua",
		Model:        "Myvi",
		Year:         2022,
		LicensePlate: plate,
		DailyRate:    decimal.RequireFromString(rate),
	})
	require.NoError(t, err)
	return car
}

func (e *testEnv) addCustomer(t *testing.T, email string) *domain.Customer {
	t.Helper()
	c, err := e.customers.CreateCustomer(context.Background(), CustomerInput{
		FullName: "Aina Rahman",
		Email:    email,
		Phone:    "0123456789",
	})
	require.NoError(t, err)
	return c
}

func (e *testEnv) book(carID, customerID, start, end string) (*domain.Rental, error) {
	return e.rentals.CreateRental(context.Background(), RentalInput{
		CarID:      carID,
		CustomerID: customerID,
		StartDate:  date(start),
		EndDate:    date(end),
	})
}

func (e *testEnv) mustBook(t *testing.T, carID, customerID, start, end string) *domain.Rental {
	t.Helper()
	r, err := e.book(carID, customerID, start, end)
	require.NoError(t, err)
	return r
}

func date(s string) time.Time {
	d, err := utils.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
