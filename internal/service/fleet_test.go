package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velorent-backend/internal/domain"
)

func TestFleetService_CreateCar(t *testing.T) {
	env := newTestEnv(t, date("2024-09-01"))
	ctx := context.Background()

	car, err := env.fleet.CreateCar(ctx, CarInput{
		Make: " Proton ", Model: "Saga", Year: 2021, LicensePlate: "wxy   123", DailyRate: dec("120.505"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, car.ID)
	assert.Equal(t, "Proton", car.Make)
	assert.Equal(t, "WXY 123", car.LicensePlate)
	assert.Equal(t, domain.FleetStatusAvailable, car.FleetStatus)

	_, err = env.fleet.CreateCar(ctx, CarInput{
		Make: "Proton", Model: "Persona", Year: 2021, LicensePlate: "WXY 123", DailyRate: dec("100"),
	})
	assert.True(t, domain.IsValidation(err))

	cases := map[string]CarInput{
		"missing make": {Model: "Saga", Year: 2021, LicensePlate: "ABC 1", DailyRate: dec("100")},
		"bad plate":    {Make: "P", Model: "Saga", Year: 2021, LicensePlate: "12-34-56", DailyRate: dec("100")},
		"zero rate":    {Make: "P", Model: "Saga", Year: 2021, LicensePlate: "ABC 2", DailyRate: dec("0")},
		"future year":  {Make: "P", Model: "Saga", Year: 2030, LicensePlate: "ABC 3", DailyRate: dec("100")},
		"bad status":   {Make: "P", Model: "Saga", Year: 2021, LicensePlate: "ABC 4", DailyRate: dec("100"), FleetStatus: "stolen"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.fleet.CreateCar(ctx, in)
			assert.True(t, domain.IsValidation(err), "got %v", err)
		})
	}
}

func TestFleetService_ListAndStatus(t *testing.T) {
	env := newTestEnv(t, date("2024-09-01"))
	ctx := context.Background()
	a := env.addCar(t, "LS 1", "100")
	env.addCar(t, "LS 2", "100")

	_, err := env.fleet.SetFleetStatus(ctx, a.ID, domain.FleetStatusMaintenance)
	require.NoError(t, err)
	_, err = env.fleet.SetFleetStatus(ctx, a.ID, "broken")
	assert.True(t, domain.IsValidation(err))

	inShop, err := env.fleet.ListCars(ctx, domain.FleetStatusMaintenance)
	require.NoError(t, err)
	require.Len(t, inShop, 1)
	assert.Equal(t, a.ID, inShop[0].ID)

	all, err := env.fleet.ListCars(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = env.fleet.ListCars(ctx, "broken")
	assert.True(t, domain.IsValidation(err))
}

func TestFleetService_DeleteCar(t *testing.T) {
	env := newTestEnv(t, date("2024-09-15"))
	ctx := context.Background()
	c := env.addCustomer(t, "del@example.com")
	car := env.addCar(t, "DEL 1", "100")
	past := env.addCar(t, "DEL 2", "100")

	r := env.mustBook(t, car.ID, c.ID, "2024-09-20", "2024-09-22")
	env.mustBook(t, past.ID, c.ID, "2024-09-01", "2024-09-05")

	err := env.fleet.DeleteCar(ctx, car.ID)
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, r.ID, conflict.Conflicts[0].ID)

	_, err = env.rentals.CancelRental(ctx, r.ID)
	require.NoError(t, err)
	require.NoError(t, env.fleet.DeleteCar(ctx, car.ID))
	_, err = env.fleet.GetCar(ctx, car.ID)
	assert.True(t, domain.IsNotFound(err))

	// Only history remains, which does not block and survives the delete.
	require.NoError(t, env.fleet.DeleteCar(ctx, past.ID))
	views, total, err := env.rentals.ListRentals(ctx, RentalQuery{CarID: past.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, domain.RentalStatusCompleted, views[0].Status)

	assert.True(t, domain.IsNotFound(env.fleet.DeleteCar(ctx, "missing")))
}

func TestCustomerService(t *testing.T) {
	env := newTestEnv(t, date("2024-09-15"))
	ctx := context.Background()

	c, err := env.customers.CreateCustomer(ctx, CustomerInput{
		FullName: " Lim Wei ", Email: "Lim@Example.com ", Phone: "60123456789",
	})
	require.NoError(t, err)
	assert.Equal(t, "Lim Wei", c.FullName)
	assert.Equal(t, "lim@example.com", c.Email)

	_, err = env.customers.CreateCustomer(ctx, CustomerInput{FullName: "Dup", Email: "lim@example.com", Phone: "0123456789"})
	assert.True(t, domain.IsValidation(err))
	_, err = env.customers.CreateCustomer(ctx, CustomerInput{FullName: "Bad", Email: "not-an-email", Phone: "0123456789"})
	assert.True(t, domain.IsValidation(err))
	_, err = env.customers.CreateCustomer(ctx, CustomerInput{FullName: "Bad", Email: "bad@example.com", Phone: "12"})
	assert.True(t, domain.IsValidation(err))

	updated, err := env.customers.UpdateCustomer(ctx, c.ID, CustomerInput{
		FullName: "Lim Wei Jie", Email: "lim@example.com", Phone: "0123456789", Address: "Jalan 1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jalan 1", updated.Address)

	list, err := env.customers.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	car := env.addCar(t, "CUS 1", "100")
	r := env.mustBook(t, car.ID, c.ID, "2024-09-14", "2024-09-15")
	assert.True(t, domain.IsConflict(env.customers.DeleteCustomer(ctx, c.ID)))

	// Once the return day has passed the customer can go.
	env.clock.Set(date("2024-09-16"))
	require.NoError(t, env.customers.DeleteCustomer(ctx, c.ID))
	_, err = env.customers.GetCustomer(ctx, c.ID)
	assert.True(t, domain.IsNotFound(err))

	view, err := env.rentals.GetRental(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, view.CustomerID)
}

func TestFleetService_MaintenanceAlert(t *testing.T) {
	env := newTestEnv(t, date("2024-09-01"))
	ctx := context.Background()
	car := env.addCar(t, "MNT 1", "100")

	_, err := env.fleet.SetFleetStatus(ctx, car.ID, domain.FleetStatusMaintenance)
	require.NoError(t, err)
	// Setting the same status again is not a new event.
	_, err = env.fleet.SetFleetStatus(ctx, car.ID, domain.FleetStatusMaintenance)
	require.NoError(t, err)

	notes, total, err := env.notes.GetNotifications(ctx, false, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, domain.NotificationTypeMaintenance, notes[0].Type)
	assert.Equal(t, car.ID, notes[0].Attributes["car_id"])
	assert.Equal(t, "MNT 1", notes[0].Attributes["license_plate"])

	// Leaving maintenance raises nothing; re-entering does, unless switched off.
	_, err = env.fleet.SetFleetStatus(ctx, car.ID, domain.FleetStatusAvailable)
	require.NoError(t, err)
	off := false
	_, err = env.notes.UpdateSettings(ctx, NotificationSettingsInput{MaintenanceAlerts: &off})
	require.NoError(t, err)
	_, err = env.fleet.SetFleetStatus(ctx, car.ID, domain.FleetStatusMaintenance)
	require.NoError(t, err)

	_, total, err = env.notes.GetNotifications(ctx, false, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}
