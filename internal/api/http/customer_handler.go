package http

import (
	"net/http"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/service"
)

type CustomerHandler struct {
	customerSvc service.CustomerService
}

func NewCustomerHandler(customerSvc service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerSvc: customerSvc}
}

func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req service.CustomerInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	c, err := h.customerSvc.CreateCustomer(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, c, "customer created")
}

func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	list, err := h.customerSvc.ListCustomers(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if list == nil {
		list = []domain.Customer{}
	}
	respondOK(w, list)
}

func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.customerSvc.GetCustomer(r.Context(), pathID(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, c)
}

func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var req service.CustomerInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	c, err := h.customerSvc.UpdateCustomer(r.Context(), pathID(r, "id"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, c)
}

func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.customerSvc.DeleteCustomer(r.Context(), pathID(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, "customer deleted")
}
