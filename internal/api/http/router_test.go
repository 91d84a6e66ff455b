package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"velorent-backend/internal/repository/memory"
	"velorent-backend/internal/scheduling"
	"velorent-backend/internal/security"
	"velorent-backend/internal/service"
	"velorent-backend/internal/utils"
	"velorent-backend/internal/validation"
)

const (
	adminEmail    = "admin@velorent.test"
	adminPassword = "s3cret-pass"
)

type apiEnv struct {
	router http.Handler
	tokens security.TokenManager
	token  string
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	store := memory.NewStore()
	clock := utils.NewFixedClock(time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))
	projector := scheduling.NewProjector(time.UTC, 0)
	resolver := scheduling.NewResolver(scheduling.NewIntervalIndex(), store.Cars, store.Rentals)
	v := validation.New(clock)
	notes := service.NewNotificationService(store.Notifications, store.Settings, clock)

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	tokens := security.NewTokenManager("router-test-secret", time.Hour)

	rentals := service.NewRentalService(store.Rentals, store.Cars, store.Customers, resolver, projector, notes, v, clock)
	email := service.NewEmailService(service.NewLogSender(), "Velorent")
	reminders := service.NewReminderService(store.Rentals, store.Cars, store.Customers, email, notes, clock)

	h := Handlers{
		Auth:          NewAuthHandler(service.NewAuthService(service.AdminAccount{Email: adminEmail, PasswordHash: string(hash)}, tokens)),
		Fleet:         NewFleetHandler(service.NewFleetService(store.Cars, store.Rentals, resolver, projector, notes, v, clock)),
		Customers:     NewCustomerHandler(service.NewCustomerService(store.Customers, store.Rentals, resolver, projector, v, clock)),
		Rentals:       NewRentalHandler(rentals, reminders, time.UTC),
		Calendar:      NewCalendarHandler(service.NewCalendarService(store.Cars, store.Rentals, resolver, projector, clock), clock, time.UTC),
		Dashboard:     NewDashboardHandler(service.NewDashboardService(store.Cars, store.Rentals, projector), clock, time.UTC),
		Notifications: NewNotificationHandler(notes),
	}
	env := &apiEnv{router: NewRouter(h, NewAuthMiddleware(tokens)), tokens: tokens}
	env.token = env.login(t)
	return env
}

func (e *apiEnv) do(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func (e *apiEnv) authed(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	return e.do(t, method, path, body, e.token)
}

func (e *apiEnv) login(t *testing.T) string {
	t.Helper()
	rec, body := e.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": adminEmail, "password": adminPassword,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return data(body)["token"].(string)
}

func data(env map[string]interface{}) map[string]interface{} {
	return env["data"].(map[string]interface{})
}

func errBody(env map[string]interface{}) map[string]interface{} {
	return env["error"].(map[string]interface{})
}

func (e *apiEnv) createCar(t *testing.T, plate string) string {
	t.Helper()
	rec, body := e.authed(t, http.MethodPost, "/api/cars", map[string]interface{}{
		"make": "Proton", "model": "Saga", "year": 2023, "license_plate": plate, "daily_rate": "100",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return data(body)["id"].(string)
}

func (e *apiEnv) createCustomer(t *testing.T, email string) string {
	t.Helper()
	rec, body := e.authed(t, http.MethodPost, "/api/customers", map[string]interface{}{
		"full_name": "Farid Ismail", "email": email, "phone": "0198765432",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return data(body)["id"].(string)
}

func (e *apiEnv) book(t *testing.T, carID, customerID, start, end string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	return e.authed(t, http.MethodPost, "/api/rentals", map[string]string{
		"car_id": carID, "customer_id": customerID, "start_date": start, "end_date": end,
	})
}

func TestRouter_Health(t *testing.T) {
	env := newAPIEnv(t)
	rec, body := env.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "ok", data(body)["status"])
}

func TestRouter_Authentication(t *testing.T) {
	env := newAPIEnv(t)

	t.Run("MissingToken", func(t *testing.T) {
		rec, body := env.do(t, http.MethodGet, "/api/cars", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized", errBody(body)["code"])
	})

	t.Run("GarbageToken", func(t *testing.T) {
		rec, _ := env.do(t, http.MethodGet, "/api/cars", nil, "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		rec, body := env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
			"email": adminEmail, "password": "nope",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized", errBody(body)["code"])
	})

	t.Run("MissingAdminRole", func(t *testing.T) {
		token, _, err := env.tokens.GenerateAccessToken("viewer@velorent.test", nil)
		require.NoError(t, err)
		rec, body := env.do(t, http.MethodGet, "/api/cars", nil, token)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "forbidden", errBody(body)["code"])
	})

	t.Run("ValidToken", func(t *testing.T) {
		rec, body := env.authed(t, http.MethodGet, "/api/cars", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, body["data"])
	})
}

func TestRouter_BookingFlow(t *testing.T) {
	env := newAPIEnv(t)
	carID := env.createCar(t, "WQX 2041")
	customerID := env.createCustomer(t, "farid@example.com")

	rec, body := env.book(t, carID, customerID, "2026-03-09", "2026-03-12")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rental := data(body)
	rentalID := rental["id"].(string)
	assert.Equal(t, "2026-03-09", rental["start_date"])
	assert.Equal(t, float64(3), rental["days"])
	assert.Equal(t, "300", rental["total_amount"])

	t.Run("OverlapIsConflict", func(t *testing.T) {
		rec, body := env.book(t, carID, customerID, "2026-03-11", "2026-03-14")
		assert.Equal(t, http.StatusConflict, rec.Code)
		conflicts := errBody(body)["conflicts"].([]interface{})
		require.Len(t, conflicts, 1)
		assert.Equal(t, rentalID, conflicts[0].(map[string]interface{})["id"])
	})

	t.Run("BackToBackIsAccepted", func(t *testing.T) {
		rec, _ := env.book(t, carID, customerID, "2026-03-12", "2026-03-13")
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("GetRentalCarriesDerivedStatus", func(t *testing.T) {
		rec, body := env.authed(t, http.MethodGet, "/api/rentals/"+rentalID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		view := data(body)
		assert.Equal(t, "active", view["status"])
		assert.Equal(t, "unpaid", view["payment_status"])
		assert.Equal(t, float64(2), view["days_remaining"])
		assert.Equal(t, true, view["overdue"])
	})

	t.Run("PartialPayment", func(t *testing.T) {
		rec, body := env.authed(t, http.MethodPost, "/api/rentals/"+rentalID+"/payments", map[string]string{"amount": "120.50"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "120.5", data(body)["paid_amount"])
	})

	t.Run("Overpayment", func(t *testing.T) {
		rec, body := env.authed(t, http.MethodPost, "/api/rentals/"+rentalID+"/payments", map[string]string{"amount": "1000"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "validation_error", errBody(body)["code"])
	})

	t.Run("ActiveList", func(t *testing.T) {
		rec, body := env.authed(t, http.MethodGet, "/api/rentals/active", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		items := body["data"].([]interface{})
		require.Len(t, items, 1)
		assert.Equal(t, rentalID, items[0].(map[string]interface{})["id"])
	})

	t.Run("ListPaginates", func(t *testing.T) {
		rec, body := env.authed(t, http.MethodGet, "/api/rentals?carId="+carID+"&pageSize=1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		page := data(body)
		assert.Equal(t, float64(2), page["total"])
		assert.Equal(t, float64(1), page["page_size"])
		assert.Len(t, page["items"], 1)
	})

	t.Run("AvailabilityExcludesSelf", func(t *testing.T) {
		path := "/api/calendar/availability/" + carID + "?startDate=2026-03-09&endDate=2026-03-12&excludeRentalId=" + rentalID
		rec, body := env.authed(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, data(body)["available"])
	})

	t.Run("FleetAvailabilityOnDay", func(t *testing.T) {
		rec, body := env.authed(t, http.MethodGet, "/api/calendar/availability?date=2026-03-10", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		cars := data(body)["cars"].([]interface{})
		require.Len(t, cars, 1)
		assert.Equal(t, false, cars[0].(map[string]interface{})["available"])
	})

	t.Run("Occupancy", func(t *testing.T) {
		rec, body := env.authed(t, http.MethodGet, "/api/calendar/occupancy?month=2026-03&carId="+carID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		days := data(body)["days"].(map[string]interface{})
		assert.Len(t, days, 31)
		assert.Len(t, days["2026-03-10"], 1)
		assert.Empty(t, days["2026-03-20"])
	})

	t.Run("Reschedule", func(t *testing.T) {
		rec, body := env.authed(t, http.MethodPut, "/api/rentals/"+rentalID+"/dates", map[string]string{
			"start_date": "2026-03-08", "end_date": "2026-03-12",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "400", data(body)["total_amount"])
	})

	t.Run("DashboardAndRevenue", func(t *testing.T) {
		rec, body := env.authed(t, http.MethodGet, "/api/dashboard/stats", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		stats := data(body)
		assert.Equal(t, "2026-03-10", stats["as_of"])
		assert.Equal(t, float64(1), stats["active_rentals"])

		rec, body = env.authed(t, http.MethodGet, "/api/dashboard/revenue?month=2026-03", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		months := data(body)["months"].([]interface{})
		require.Len(t, months, 1)
		assert.Equal(t, "500", months[0].(map[string]interface{})["revenue"])

		rec, body = env.authed(t, http.MethodGet, "/api/dashboard/payments-due", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, body["data"], 2)
	})

	t.Run("CancelIsIdempotent", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			rec, body := env.authed(t, http.MethodPost, "/api/rentals/"+rentalID+"/cancel", nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, true, data(body)["cancelled"])
		}
	})

	t.Run("BookingNotifications", func(t *testing.T) {
		rec, body := env.authed(t, http.MethodGet, "/api/notifications?unreadOnly=true", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		page := data(body)
		assert.Equal(t, float64(2), page["total"])

		rec, body = env.authed(t, http.MethodPatch, "/api/notifications/read-all", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(2), data(body)["updated"])
	})
}

func TestRouter_RequestErrors(t *testing.T) {
	env := newAPIEnv(t)
	carID := env.createCar(t, "JKL 88")
	customerID := env.createCustomer(t, "mei@example.com")

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
		field  string
	}{
		{"BadDate", http.MethodPost, "/api/rentals", map[string]string{
			"car_id": carID, "customer_id": customerID, "start_date": "10/03/2026", "end_date": "2026-03-12",
		}, http.StatusBadRequest, "validation_error", "start_date"},
		{"EndBeforeStart", http.MethodPost, "/api/rentals", map[string]string{
			"car_id": carID, "customer_id": customerID, "start_date": "2026-03-12", "end_date": "2026-03-12",
		}, http.StatusBadRequest, "validation_error", "end_date"},
		{"UnknownField", http.MethodPost, "/api/customers", map[string]string{"nickname": "x"},
			http.StatusBadRequest, "validation_error", "body"},
		{"UnknownCar", http.MethodGet, "/api/cars/missing", nil, http.StatusNotFound, "not_found", ""},
		{"UnknownRental", http.MethodPost, "/api/rentals/missing/cancel", nil, http.StatusNotFound, "not_found", ""},
		{"BadStatusFilter", http.MethodGet, "/api/rentals?status=overdue", nil, http.StatusBadRequest, "validation_error", "status"},
		{"BadMonth", http.MethodGet, "/api/calendar/occupancy?month=2026-13", nil, http.StatusBadRequest, "validation_error", "month"},
		{"RevenueRangeHalf", http.MethodGet, "/api/dashboard/revenue?from=2026-01", nil, http.StatusBadRequest, "validation_error", "from"},
		{"RevenueRangeReversed", http.MethodGet, "/api/dashboard/revenue?from=2026-05&to=2026-01", nil, http.StatusBadRequest, "validation_error", ""},
		{"UnknownRoute", http.MethodGet, "/api/nowhere", nil, http.StatusNotFound, "not_found", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := env.authed(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, false, body["success"])
			eb := errBody(body)
			assert.Equal(t, tt.code, eb["code"])
			if tt.field != "" {
				assert.Equal(t, tt.field, eb["field"])
			}
		})
	}
}

func TestRouter_RentalActions(t *testing.T) {
	env := newAPIEnv(t)
	carID := env.createCar(t, "WQX 3310")
	customerID := env.createCustomer(t, "actions@example.com")

	rec, body := env.book(t, carID, customerID, "2026-03-09", "2026-03-14")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rentalID := data(body)["id"].(string)

	t.Run("SendReminder", func(t *testing.T) {
		rec, body := env.authed(t, http.MethodPost, "/api/rentals/"+rentalID+"/send-reminder", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, rentalID, data(body)["rental_id"])
		assert.Equal(t, "actions@example.com", data(body)["email"])
		assert.Equal(t, "500", data(body)["amount_due"])
	})

	t.Run("SendReminderUnknownRental", func(t *testing.T) {
		rec, _ := env.authed(t, http.MethodPost, "/api/rentals/missing/send-reminder", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("EndEarly", func(t *testing.T) {
		rec, body := env.authed(t, http.MethodPost, "/api/rentals/"+rentalID+"/end", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "2026-03-10", data(body)["end_date"])
		assert.Equal(t, "100", data(body)["total_amount"])

		// The freed days can be booked again.
		rec, _ = env.book(t, carID, customerID, "2026-03-10", "2026-03-14")
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("EndUpcomingIsRejected", func(t *testing.T) {
		rec, body := env.book(t, carID, customerID, "2026-03-20", "2026-03-22")
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		rec, _ = env.authed(t, http.MethodPost, "/api/rentals/"+data(body)["id"].(string)+"/end", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRouter_NotificationSettings(t *testing.T) {
	env := newAPIEnv(t)

	rec, body := env.authed(t, http.MethodGet, "/api/notification-settings", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, data(body)["new_bookings"])
	assert.Equal(t, true, data(body)["payment_reminders"])

	rec, body = env.authed(t, http.MethodPut, "/api/notification-settings", map[string]bool{"new_bookings": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, false, data(body)["new_bookings"])
	assert.Equal(t, true, data(body)["payment_reminders"])

	// Bookings no longer raise an inbox entry.
	carID := env.createCar(t, "WQX 4420")
	customerID := env.createCustomer(t, "quiet@example.com")
	rec, _ = env.book(t, carID, customerID, "2026-03-11", "2026-03-12")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec, body = env.authed(t, http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), data(body)["total"])

	rec, _ = env.authed(t, http.MethodPut, "/api/notification-settings", map[string]bool{"sms_notifications": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = env.do(t, http.MethodGet, "/api/notification-settings", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
