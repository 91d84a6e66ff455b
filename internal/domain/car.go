package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FleetStatus is set by fleet staff. It is advisory only: whether a car is
// occupied on a given day is always derived from its rental intervals.
type FleetStatus string

const (
	FleetStatusAvailable   FleetStatus = "available"
	FleetStatusRented      FleetStatus = "rented"
	FleetStatusMaintenance FleetStatus = "maintenance"
)

func (s FleetStatus) Valid() bool {
	switch s {
	case FleetStatusAvailable, FleetStatusRented, FleetStatusMaintenance:
		return true
	}
	return false
}

type Car struct {
	ID           string          `json:"id"`
	Make         string          `json:"make"`
	Model        string          `json:"model"`
	Year         int             `json:"year"`
	Color        string          `json:"color,omitempty"`
	LicensePlate string          `json:"license_plate"`
	DailyRate    decimal.Decimal `json:"daily_rate"`
	FleetStatus  FleetStatus     `json:"fleet_status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// InMaintenance reports whether the car is blocked from booking regardless of its calendar.
func (c *Car) InMaintenance() bool {
	return c.FleetStatus == FleetStatusMaintenance
}

// Label is the human-facing name used in notifications.
func (c *Car) Label() string {
	return c.Make + " " + c.Model + " (" + c.LicensePlate + ")"
}
