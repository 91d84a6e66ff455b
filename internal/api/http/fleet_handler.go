package http

import (
	"net/http"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/service"
)

type FleetStatusRequest struct {
	Status domain.FleetStatus `json:"status"`
}

type FleetHandler struct {
	fleetSvc service.FleetService
}

func NewFleetHandler(fleetSvc service.FleetService) *FleetHandler {
	return &FleetHandler{fleetSvc: fleetSvc}
}

func (h *FleetHandler) CreateCar(w http.ResponseWriter, r *http.Request) {
	var req service.CarInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	car, err := h.fleetSvc.CreateCar(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, car, "car added to fleet")
}

func (h *FleetHandler) ListCars(w http.ResponseWriter, r *http.Request) {
	status := domain.FleetStatus(r.URL.Query().Get("status"))
	cars, err := h.fleetSvc.ListCars(r.Context(), status)
	if err != nil {
		respondError(w, err)
		return
	}
	if cars == nil {
		cars = []domain.Car{}
	}
	respondOK(w, cars)
}

func (h *FleetHandler) GetCar(w http.ResponseWriter, r *http.Request) {
	car, err := h.fleetSvc.GetCar(r.Context(), pathID(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, car)
}

func (h *FleetHandler) UpdateCar(w http.ResponseWriter, r *http.Request) {
	var req service.CarInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	car, err := h.fleetSvc.UpdateCar(r.Context(), pathID(r, "id"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, car)
}

func (h *FleetHandler) SetFleetStatus(w http.ResponseWriter, r *http.Request) {
	var req FleetStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	car, err := h.fleetSvc.SetFleetStatus(r.Context(), pathID(r, "id"), req.Status)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, car)
}

func (h *FleetHandler) DeleteCar(w http.ResponseWriter, r *http.Request) {
	if err := h.fleetSvc.DeleteCar(r.Context(), pathID(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, "car removed from fleet")
}
