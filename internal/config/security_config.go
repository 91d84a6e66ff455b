// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Admin access token required
)

// EndpointSecurityConfig maps routes, by their mux name, to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Public
	"Health": SecurityPublic,
	"Login":  SecurityPublic,

	// Fleet
	"CreateCar":      SecurityAccess,
	"ListCars":       SecurityAccess,
	"GetCar":         SecurityAccess,
	"UpdateCar":      SecurityAccess,
	"DeleteCar":      SecurityAccess,
	"SetFleetStatus": SecurityAccess,

	// Customers
	"CreateCustomer": SecurityAccess,
	"ListCustomers":  SecurityAccess,
	"GetCustomer":    SecurityAccess,
	"UpdateCustomer": SecurityAccess,
	"DeleteCustomer": SecurityAccess,

	// Rentals
	"CreateRental":        SecurityAccess,
	"ListRentals":         SecurityAccess,
	"ListActiveRentals":   SecurityAccess,
	"ListOverdueRentals":  SecurityAccess,
	"GetRental":           SecurityAccess,
	"RecordPayment":       SecurityAccess,
	"CancelRental":        SecurityAccess,
	"RescheduleRental":    SecurityAccess,
	"EndRental":           SecurityAccess,
	"SendPaymentReminder": SecurityAccess,

	// Calendar
	"CheckAvailability":   SecurityAccess,
	"FleetAvailabilityOn": SecurityAccess,
	"OccupancyForMonth":   SecurityAccess,

	// Dashboard
	"DashboardStats": SecurityAccess,
	"Revenue":        SecurityAccess,
	"PaymentsDue":    SecurityAccess,

	// Notifications
	"ListNotifications":          SecurityAccess,
	"MarkNotificationRead":       SecurityAccess,
	"MarkAllNotificationsRead":   SecurityAccess,
	"DeleteNotification":         SecurityAccess,
	"GetNotificationSettings":    SecurityAccess,
	"UpdateNotificationSettings": SecurityAccess,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
