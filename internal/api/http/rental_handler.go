package http

import (
	"net/http"
	"time"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/service"
)

type CreateRentalRequest struct {
	CarID          string `json:"car_id"`
	CustomerID     string `json:"customer_id"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	PickupLocation string `json:"pickup_location"`
	Notes          string `json:"notes"`
}

type PaymentRequest struct {
	Amount string `json:"amount"`
}

type RescheduleRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type RentalHandler struct {
	rentalSvc   service.RentalService
	reminderSvc service.ReminderService
	loc         *time.Location
}

func NewRentalHandler(rentalSvc service.RentalService, reminderSvc service.ReminderService, loc *time.Location) *RentalHandler {
	return &RentalHandler{rentalSvc: rentalSvc, reminderSvc: reminderSvc, loc: loc}
}

func (h *RentalHandler) CreateRental(w http.ResponseWriter, r *http.Request) {
	var req CreateRentalRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	start, err := parseDateField("start_date", req.StartDate)
	if err != nil {
		respondError(w, err)
		return
	}
	end, err := parseDateField("end_date", req.EndDate)
	if err != nil {
		respondError(w, err)
		return
	}

	rental, err := h.rentalSvc.CreateRental(r.Context(), service.RentalInput{
		CarID:          req.CarID,
		CustomerID:     req.CustomerID,
		StartDate:      start,
		EndDate:        end,
		PickupLocation: req.PickupLocation,
		Notes:          req.Notes,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, MapRental(rental), "rental booked")
}

func (h *RentalHandler) ListRentals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := domain.RentalStatus(q.Get("status"))
	if status != "" && !status.Valid() {
		badRequest(w, "status", "unknown rental status %q", status)
		return
	}
	page, err := optionalInt(r, "page")
	if err != nil {
		respondError(w, err)
		return
	}
	pageSize, err := optionalInt(r, "pageSize")
	if err != nil {
		respondError(w, err)
		return
	}

	query := service.RentalQuery{
		Status:     status,
		CarID:      q.Get("carId"),
		CustomerID: q.Get("customerId"),
		Page:       page,
		PageSize:   pageSize,
	}
	views, total, err := h.rentalSvc.ListRentals(r.Context(), query)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, PageDTO{
		Items:    mapRentalViews(views),
		Total:    total,
		Page:     max(page, 1),
		PageSize: effectivePageSize(pageSize),
	})
}

func (h *RentalHandler) ListActiveRentals(w http.ResponseWriter, r *http.Request) {
	asOf, err := optionalAsOf(r, h.loc)
	if err != nil {
		respondError(w, err)
		return
	}
	views, err := h.rentalSvc.ListActiveRentals(r.Context(), asOf)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, mapRentalViews(views))
}

func (h *RentalHandler) ListOverdueRentals(w http.ResponseWriter, r *http.Request) {
	asOf, err := optionalAsOf(r, h.loc)
	if err != nil {
		respondError(w, err)
		return
	}
	views, err := h.rentalSvc.ListOverdueRentals(r.Context(), asOf)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, mapRentalViews(views))
}

func (h *RentalHandler) GetRental(w http.ResponseWriter, r *http.Request) {
	view, err := h.rentalSvc.GetRental(r.Context(), pathID(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, MapRentalView(view))
}

func (h *RentalHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		respondError(w, err)
		return
	}
	rental, err := h.rentalSvc.RecordPayment(r.Context(), pathID(r, "id"), amount)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, MapRental(rental))
}

func (h *RentalHandler) CancelRental(w http.ResponseWriter, r *http.Request) {
	rental, err := h.rentalSvc.CancelRental(r.Context(), pathID(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, MapRental(rental))
}

func (h *RentalHandler) RescheduleRental(w http.ResponseWriter, r *http.Request) {
	var req RescheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	start, err := parseDateField("start_date", req.StartDate)
	if err != nil {
		respondError(w, err)
		return
	}
	end, err := parseDateField("end_date", req.EndDate)
	if err != nil {
		respondError(w, err)
		return
	}
	rental, err := h.rentalSvc.RescheduleRental(r.Context(), pathID(r, "id"), start, end)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, MapRental(rental))
}

// EndRental records an early return as of today.
func (h *RentalHandler) EndRental(w http.ResponseWriter, r *http.Request) {
	rental, err := h.rentalSvc.EndRental(r.Context(), pathID(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, MapRental(rental))
}

func (h *RentalHandler) SendPaymentReminder(w http.ResponseWriter, r *http.Request) {
	reminder, err := h.reminderSvc.SendPaymentReminder(r.Context(), pathID(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, reminder)
}

// effectivePageSize mirrors the service's clamping so the page metadata
// matches what was returned.
func effectivePageSize(n int) int {
	switch {
	case n <= 0:
		return service.DefaultPageSize
	case n > service.MaxPageSize:
		return service.MaxPageSize
	}
	return n
}
