package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Handlers groups every resource handler the router serves.
type Handlers struct {
	Auth          *AuthHandler
	Fleet         *FleetHandler
	Customers     *CustomerHandler
	Rentals       *RentalHandler
	Calendar      *CalendarHandler
	Dashboard     *DashboardHandler
	Notifications *NotificationHandler
}

// NewRouter registers the API. Route names double as the keys of
// config.EndpointSecurityConfig.
func NewRouter(h Handlers, auth *AuthMiddleware) *mux.Router {
	r := mux.NewRouter()
	r.Use(RecoveryMiddleware, LoggingMiddleware, auth.Authenticate)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		respondJSON(w, http.StatusNotFound, Envelope{Error: &ErrorBody{Code: "not_found", Message: "route not found"}})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		respondJSON(w, http.StatusMethodNotAllowed, Envelope{Error: &ErrorBody{Code: "method_not_allowed", Message: "method not allowed"}})
	})

	r.HandleFunc("/health", Health).Methods(http.MethodGet).Name("Health")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/login", h.Auth.Login).Methods(http.MethodPost).Name("Login")

	api.HandleFunc("/cars", h.Fleet.CreateCar).Methods(http.MethodPost).Name("CreateCar")
	api.HandleFunc("/cars", h.Fleet.ListCars).Methods(http.MethodGet).Name("ListCars")
	api.HandleFunc("/cars/{id}", h.Fleet.GetCar).Methods(http.MethodGet).Name("GetCar")
	api.HandleFunc("/cars/{id}", h.Fleet.UpdateCar).Methods(http.MethodPut).Name("UpdateCar")
	api.HandleFunc("/cars/{id}", h.Fleet.DeleteCar).Methods(http.MethodDelete).Name("DeleteCar")
	api.HandleFunc("/cars/{id}/status", h.Fleet.SetFleetStatus).Methods(http.MethodPatch).Name("SetFleetStatus")

	api.HandleFunc("/customers", h.Customers.CreateCustomer).Methods(http.MethodPost).Name("CreateCustomer")
	api.HandleFunc("/customers", h.Customers.ListCustomers).Methods(http.MethodGet).Name("ListCustomers")
	api.HandleFunc("/customers/{id}", h.Customers.GetCustomer).Methods(http.MethodGet).Name("GetCustomer")
	api.HandleFunc("/customers/{id}", h.Customers.UpdateCustomer).Methods(http.MethodPut).Name("UpdateCustomer")
	api.HandleFunc("/customers/{id}", h.Customers.DeleteCustomer).Methods(http.MethodDelete).Name("DeleteCustomer")

	// Fixed paths before {id} so "active" is never read as an id.
	api.HandleFunc("/rentals/active", h.Rentals.ListActiveRentals).Methods(http.MethodGet).Name("ListActiveRentals")
	api.HandleFunc("/rentals/overdue", h.Rentals.ListOverdueRentals).Methods(http.MethodGet).Name("ListOverdueRentals")
	api.HandleFunc("/rentals", h.Rentals.CreateRental).Methods(http.MethodPost).Name("CreateRental")
	api.HandleFunc("/rentals", h.Rentals.ListRentals).Methods(http.MethodGet).Name("ListRentals")
	api.HandleFunc("/rentals/{id}", h.Rentals.GetRental).Methods(http.MethodGet).Name("GetRental")
	api.HandleFunc("/rentals/{id}/payments", h.Rentals.RecordPayment).Methods(http.MethodPost).Name("RecordPayment")
	api.HandleFunc("/rentals/{id}/cancel", h.Rentals.CancelRental).Methods(http.MethodPost).Name("CancelRental")
	api.HandleFunc("/rentals/{id}/dates", h.Rentals.RescheduleRental).Methods(http.MethodPut).Name("RescheduleRental")
	api.HandleFunc("/rentals/{id}/end", h.Rentals.EndRental).Methods(http.MethodPost).Name("EndRental")
	api.HandleFunc("/rentals/{id}/send-reminder", h.Rentals.SendPaymentReminder).Methods(http.MethodPost).Name("SendPaymentReminder")

	api.HandleFunc("/calendar/availability/{carId}", h.Calendar.CheckAvailability).Methods(http.MethodGet).Name("CheckAvailability")
	api.HandleFunc("/calendar/availability", h.Calendar.FleetAvailabilityOn).Methods(http.MethodGet).Name("FleetAvailabilityOn")
	api.HandleFunc("/calendar/occupancy", h.Calendar.OccupancyForMonth).Methods(http.MethodGet).Name("OccupancyForMonth")

	api.HandleFunc("/dashboard/stats", h.Dashboard.DashboardStats).Methods(http.MethodGet).Name("DashboardStats")
	api.HandleFunc("/dashboard/revenue", h.Dashboard.Revenue).Methods(http.MethodGet).Name("Revenue")
	api.HandleFunc("/dashboard/payments-due", h.Dashboard.PaymentsDue).Methods(http.MethodGet).Name("PaymentsDue")

	api.HandleFunc("/notifications", h.Notifications.ListNotifications).Methods(http.MethodGet).Name("ListNotifications")
	api.HandleFunc("/notifications/read-all", h.Notifications.MarkAllNotificationsRead).Methods(http.MethodPatch).Name("MarkAllNotificationsRead")
	api.HandleFunc("/notifications/{id}/read", h.Notifications.MarkNotificationRead).Methods(http.MethodPatch).Name("MarkNotificationRead")
	api.HandleFunc("/notifications/{id}", h.Notifications.DeleteNotification).Methods(http.MethodDelete).Name("DeleteNotification")
	api.HandleFunc("/notification-settings", h.Notifications.GetNotificationSettings).Methods(http.MethodGet).Name("GetNotificationSettings")
	api.HandleFunc("/notification-settings", h.Notifications.UpdateNotificationSettings).Methods(http.MethodPut).Name("UpdateNotificationSettings")

	return r
}
