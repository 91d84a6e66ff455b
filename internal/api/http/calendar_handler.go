package http

import (
	"net/http"
	"time"

	"velorent-backend/internal/scheduling"
	"velorent-backend/internal/service"
	"velorent-backend/internal/utils"
)

type FleetAvailabilityDTO struct {
	Date string                       `json:"date"`
	Cars []scheduling.CarAvailability `json:"cars"`
}

type OccupancyDTO struct {
	Month string                 `json:"month"`
	CarID string                 `json:"car_id,omitempty"`
	Days  map[string][]RentalDTO `json:"days"`
}

type CalendarHandler struct {
	calendarSvc service.CalendarService
	clock       utils.Clock
	loc         *time.Location
}

func NewCalendarHandler(calendarSvc service.CalendarService, clock utils.Clock, loc *time.Location) *CalendarHandler {
	return &CalendarHandler{calendarSvc: calendarSvc, clock: clock, loc: loc}
}

func (h *CalendarHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := parseDateField("startDate", q.Get("startDate"))
	if err != nil {
		respondError(w, err)
		return
	}
	end, err := parseDateField("endDate", q.Get("endDate"))
	if err != nil {
		respondError(w, err)
		return
	}

	avail, err := h.calendarSvc.CheckAvailability(r.Context(), pathID(r, "carId"), start, end, q.Get("excludeRentalId"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, MapAvailability(avail))
}

func (h *CalendarHandler) FleetAvailabilityOn(w http.ResponseWriter, r *http.Request) {
	day, err := parseDateField("date", r.URL.Query().Get("date"))
	if err != nil {
		respondError(w, err)
		return
	}
	cars, err := h.calendarSvc.FleetAvailabilityOn(r.Context(), day)
	if err != nil {
		respondError(w, err)
		return
	}
	if cars == nil {
		cars = []scheduling.CarAvailability{}
	}
	respondOK(w, FleetAvailabilityDTO{Date: utils.FormatDate(day), Cars: cars})
}

// OccupancyForMonth defaults to the current month when month is omitted.
func (h *CalendarHandler) OccupancyForMonth(w http.ResponseWriter, r *http.Request) {
	month, ok, err := optionalMonth(r, "month")
	if err != nil {
		respondError(w, err)
		return
	}
	if !ok {
		month = utils.MonthOf(utils.DateOf(h.clock.Now(), h.loc))
	}
	carID := r.URL.Query().Get("carId")

	occ, err := h.calendarSvc.OccupancyForMonth(r.Context(), carID, month)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, OccupancyDTO{Month: month.String(), CarID: carID, Days: mapOccupancy(occ)})
}
