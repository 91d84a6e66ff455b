package domain

import "time"

type NotificationType string

const (
	NotificationTypePayment     NotificationType = "payment"
	NotificationTypeRental      NotificationType = "rental"
	NotificationTypeMaintenance NotificationType = "maintenance"
	NotificationTypeBooking     NotificationType = "booking"
)

type NotificationPriority string

const (
	PriorityHigh   NotificationPriority = "high"
	PriorityMedium NotificationPriority = "medium"
	PriorityLow    NotificationPriority = "low"
)

// Notification is an entry in the fleet admin's inbox. DedupKey, when set, is
// unique across the store so a nightly job can run repeatedly without
// flooding the inbox.
type Notification struct {
	ID         string               `json:"id" bson:"_id"`
	Type       NotificationType     `json:"type" bson:"type"`
	Priority   NotificationPriority `json:"priority" bson:"priority"`
	Title      string               `json:"title" bson:"title"`
	Message    string               `json:"message" bson:"message"`
	Read       bool                 `json:"read" bson:"read"`
	RentalID   string               `json:"rental_id,omitempty" bson:"rental_id,omitempty"`
	DedupKey   string               `json:"-" bson:"dedup_key,omitempty"`
	Attributes map[string]string    `json:"attributes,omitempty" bson:"attributes,omitempty"`
	CreatedAt  time.Time            `json:"created_at" bson:"created_at"`
}

// NotificationSettings are the admin's switches for automatic notices. Manual
// actions such as an explicit payment reminder ignore them.
type NotificationSettings struct {
	PaymentReminders   bool      `json:"payment_reminders"`
	RentalReminders    bool      `json:"rental_reminders"`
	MaintenanceAlerts  bool      `json:"maintenance_alerts"`
	NewBookings        bool      `json:"new_bookings"`
	EmailNotifications bool      `json:"email_notifications"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DefaultNotificationSettings has every notice switched on.
func DefaultNotificationSettings() *NotificationSettings {
	return &NotificationSettings{
		PaymentReminders:   true,
		RentalReminders:    true,
		MaintenanceAlerts:  true,
		NewBookings:        true,
		EmailNotifications: true,
	}
}
