package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/scheduling"
	"velorent-backend/internal/utils"
)

// Validator is the free-text and field-rule collaborator.
type Validator interface {
	Struct(s any) error
}

type CarInput struct {
	Make         string             `json:"make" validate:"required,max=50"`
	Model        string             `json:"model" validate:"required,max=50"`
	Year         int                `json:"year" validate:"caryear"`
	Color        string             `json:"color" validate:"max=30"`
	LicensePlate string             `json:"license_plate" validate:"required,plate"`
	DailyRate    decimal.Decimal    `json:"daily_rate" validate:"gt=0"`
	FleetStatus  domain.FleetStatus `json:"fleet_status" validate:"omitempty,oneof=available rented maintenance"`
}

type CustomerInput struct {
	FullName      string `json:"full_name" validate:"required,max=100"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone" validate:"required,phone"`
	Address       string `json:"address" validate:"max=255"`
	DriverLicense string `json:"driver_license" validate:"max=50"`
}

type RentalInput struct {
	CarID          string    `json:"car_id" validate:"required"`
	CustomerID     string    `json:"customer_id" validate:"required"`
	StartDate      time.Time `json:"start_date" validate:"required"`
	EndDate        time.Time `json:"end_date" validate:"required"`
	PickupLocation string    `json:"pickup_location" validate:"max=255"`
	Notes          string    `json:"notes" validate:"max=1000"`
}

// NotificationSettingsInput is a partial update; nil fields keep their value.
type NotificationSettingsInput struct {
	PaymentReminders   *bool `json:"payment_reminders"`
	RentalReminders    *bool `json:"rental_reminders"`
	MaintenanceAlerts  *bool `json:"maintenance_alerts"`
	NewBookings        *bool `json:"new_bookings"`
	EmailNotifications *bool `json:"email_notifications"`
}

// RentalQuery filters a rental listing. Status is the derived status as of now.
type RentalQuery struct {
	Status     domain.RentalStatus
	CarID      string
	CustomerID string
	Page       int
	PageSize   int
}

type FleetService interface {
	CreateCar(ctx context.Context, in CarInput) (*domain.Car, error)
	GetCar(ctx context.Context, id string) (*domain.Car, error)
	ListCars(ctx context.Context, status domain.FleetStatus) ([]domain.Car, error)
	UpdateCar(ctx context.Context, id string, in CarInput) (*domain.Car, error)
	SetFleetStatus(ctx context.Context, id string, status domain.FleetStatus) (*domain.Car, error)
	DeleteCar(ctx context.Context, id string) error
}

type CustomerService interface {
	CreateCustomer(ctx context.Context, in CustomerInput) (*domain.Customer, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	UpdateCustomer(ctx context.Context, id string, in CustomerInput) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
}

type RentalService interface {
	CreateRental(ctx context.Context, in RentalInput) (*domain.Rental, error)
	GetRental(ctx context.Context, id string) (*scheduling.View, error)
	ListRentals(ctx context.Context, q RentalQuery) ([]scheduling.View, int, error)
	RecordPayment(ctx context.Context, id string, amount decimal.Decimal) (*domain.Rental, error)
	CancelRental(ctx context.Context, id string) (*domain.Rental, error)
	RescheduleRental(ctx context.Context, id string, start, end time.Time) (*domain.Rental, error)
	// EndRental brings an active rental's return date forward to today.
	EndRental(ctx context.Context, id string) (*domain.Rental, error)
	// A zero asOf means now.
	ListActiveRentals(ctx context.Context, asOf time.Time) ([]scheduling.View, error)
	ListOverdueRentals(ctx context.Context, asOf time.Time) ([]scheduling.View, error)
	// IntegrityReport lists stored rentals that break an invariant. It never repairs them.
	IntegrityReport(ctx context.Context) ([]domain.IntegrityError, error)
}

// PaymentReminder records one reminder emailed to a customer.
type PaymentReminder struct {
	RentalID  string          `json:"rental_id"`
	Email     string          `json:"email"`
	AmountDue decimal.Decimal `json:"amount_due"`
	SentAt    time.Time       `json:"sent_at"`
}

type ReminderService interface {
	// SendPaymentReminder emails the customer the outstanding balance now,
	// regardless of the automatic reminder settings.
	SendPaymentReminder(ctx context.Context, rentalID string) (*PaymentReminder, error)
}

type CalendarService interface {
	CheckAvailability(ctx context.Context, carID string, start, end time.Time, excludeRentalID string) (*scheduling.Availability, error)
	FleetAvailabilityOn(ctx context.Context, day time.Time) ([]scheduling.CarAvailability, error)
	OccupancyForMonth(ctx context.Context, carID string, month utils.YearMonth) (Occupancy, error)
}

type DashboardService interface {
	FleetCounts(ctx context.Context, asOf time.Time) (*FleetCounts, error)
	ActiveRentalCount(ctx context.Context, asOf time.Time) (int, error)
	MonthlyRevenue(ctx context.Context, month utils.YearMonth) (decimal.Decimal, error)
	PaymentsDue(ctx context.Context, asOf time.Time) ([]PaymentDue, error)
	Stats(ctx context.Context, asOf time.Time) (*DashboardStats, error)
	RevenueByMonth(ctx context.Context, from, to utils.YearMonth) ([]MonthRevenue, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, unreadOnly bool, page, pageSize int) ([]domain.Notification, int, error)
	// Notify stores n, filling ID and CreatedAt. With a DedupKey it reports
	// false when an equivalent notification already exists.
	Notify(ctx context.Context, n *domain.Notification) (bool, error)
	MarkAsRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
	Settings(ctx context.Context) (*domain.NotificationSettings, error)
	UpdateSettings(ctx context.Context, in NotificationSettingsInput) (*domain.NotificationSettings, error)
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (token string, expiresAt time.Time, err error)
}

type EmailService interface {
	SendPaymentReminder(ctx context.Context, to, customerName, carLabel string, amountDue decimal.Decimal, rentalID string) error
	SendReturnReminder(ctx context.Context, to, customerName, carLabel string, returnDate time.Time) error
	SendAdminAlert(ctx context.Context, to, subject, message string) error
}
