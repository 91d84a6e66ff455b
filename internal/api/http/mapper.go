package http

import (
	"time"

	"github.com/shopspring/decimal"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/scheduling"
	"velorent-backend/internal/service"
	"velorent-backend/internal/utils"
)

// Dates cross the wire as yyyy-mm-dd; timestamps stay RFC 3339.

type RentalDTO struct {
	ID             string          `json:"id"`
	CarID          string          `json:"car_id"`
	CustomerID     string          `json:"customer_id"`
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date"`
	Days           int             `json:"days"`
	PickupLocation string          `json:"pickup_location,omitempty"`
	DailyRate      decimal.Decimal `json:"daily_rate"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	Cancelled      bool            `json:"cancelled"`
	CancelledAt    *time.Time      `json:"cancelled_at,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type RentalViewDTO struct {
	RentalDTO
	Status        domain.RentalStatus  `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	AmountDue     decimal.Decimal      `json:"amount_due"`
	DaysRemaining int                  `json:"days_remaining"`
	Overdue       bool                 `json:"overdue"`
}

type AvailabilityDTO struct {
	CarID       string      `json:"car_id"`
	StartDate   string      `json:"start_date"`
	EndDate     string      `json:"end_date"`
	Available   bool        `json:"available"`
	Maintenance bool        `json:"maintenance"`
	Conflicts   []RentalDTO `json:"conflicts"`
}

type PaymentDueDTO struct {
	Rental        RentalDTO            `json:"rental"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	RentalStatus  domain.RentalStatus  `json:"rental_status"`
	AmountDue     decimal.Decimal      `json:"amount_due"`
	Overdue       bool                 `json:"overdue"`
}

type PageDTO struct {
	Items    interface{} `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func MapRental(r *domain.Rental) RentalDTO {
	return RentalDTO{
		ID:             r.ID,
		CarID:          r.CarID,
		CustomerID:     r.CustomerID,
		StartDate:      utils.FormatDate(r.StartDate),
		EndDate:        utils.FormatDate(r.EndDate),
		Days:           r.Days(),
		PickupLocation: r.PickupLocation,
		DailyRate:      r.DailyRate,
		TotalAmount:    r.TotalAmount,
		PaidAmount:     r.PaidAmount,
		Cancelled:      r.Cancelled,
		CancelledAt:    r.CancelledAt,
		Notes:          r.Notes,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func toRentalDTOs(rentals []domain.Rental) []RentalDTO {
	out := make([]RentalDTO, 0, len(rentals))
	for i := range rentals {
		out = append(out, MapRental(&rentals[i]))
	}
	return out
}

func MapRentalView(v *scheduling.View) RentalViewDTO {
	return RentalViewDTO{
		RentalDTO:     MapRental(&v.Rental),
		Status:        v.Status,
		PaymentStatus: v.PaymentStatus,
		AmountDue:     v.AmountDue,
		DaysRemaining: v.DaysRemaining,
		Overdue:       v.Overdue,
	}
}

func mapRentalViews(views []scheduling.View) []RentalViewDTO {
	out := make([]RentalViewDTO, 0, len(views))
	for i := range views {
		out = append(out, MapRentalView(&views[i]))
	}
	return out
}

func MapAvailability(a *scheduling.Availability) AvailabilityDTO {
	return AvailabilityDTO{
		CarID:       a.CarID,
		StartDate:   utils.FormatDate(a.Start),
		EndDate:     utils.FormatDate(a.End),
		Available:   a.Available,
		Maintenance: a.Maintenance,
		Conflicts:   toRentalDTOs(a.Conflicts),
	}
}

func mapPaymentsDue(due []service.PaymentDue) []PaymentDueDTO {
	out := make([]PaymentDueDTO, 0, len(due))
	for i := range due {
		out = append(out, PaymentDueDTO{
			Rental:        MapRental(&due[i].Rental),
			PaymentStatus: due[i].PaymentStatus,
			RentalStatus:  due[i].RentalStatus,
			AmountDue:     due[i].AmountDue,
			Overdue:       due[i].Overdue,
		})
	}
	return out
}

func mapOccupancy(occ service.Occupancy) map[string][]RentalDTO {
	out := make(map[string][]RentalDTO, len(occ))
	for day, rentals := range occ {
		out[day] = toRentalDTOs(rentals)
	}
	return out
}
