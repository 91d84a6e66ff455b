package http

import (
	"net/http"
	"time"

	"velorent-backend/internal/service"
	"velorent-backend/internal/utils"
)

type RevenueDTO struct {
	From   string                 `json:"from"`
	To     string                 `json:"to"`
	Months []service.MonthRevenue `json:"months"`
}

type DashboardHandler struct {
	dashboardSvc service.DashboardService
	clock        utils.Clock
	loc          *time.Location
}

func NewDashboardHandler(dashboardSvc service.DashboardService, clock utils.Clock, loc *time.Location) *DashboardHandler {
	return &DashboardHandler{dashboardSvc: dashboardSvc, clock: clock, loc: loc}
}

func (h *DashboardHandler) asOf(r *http.Request) (time.Time, error) {
	t, err := optionalAsOf(r, h.loc)
	if err != nil {
		return time.Time{}, err
	}
	if t.IsZero() {
		return h.clock.Now(), nil
	}
	return t, nil
}

func (h *DashboardHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	asOf, err := h.asOf(r)
	if err != nil {
		respondError(w, err)
		return
	}
	stats, err := h.dashboardSvc.Stats(r.Context(), asOf)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, stats)
}

// Revenue answers either ?month=YYYY-MM or an inclusive ?from=&to= range.
// With neither, it reports the current month.
func (h *DashboardHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	month, hasMonth, err := optionalMonth(r, "month")
	if err != nil {
		respondError(w, err)
		return
	}
	from, hasFrom, err := optionalMonth(r, "from")
	if err != nil {
		respondError(w, err)
		return
	}
	to, hasTo, err := optionalMonth(r, "to")
	if err != nil {
		respondError(w, err)
		return
	}

	switch {
	case hasMonth && (hasFrom || hasTo):
		badRequest(w, "month", "month cannot be combined with from/to")
		return
	case hasFrom != hasTo:
		badRequest(w, "from", "from and to must be given together")
		return
	case !hasMonth && !hasFrom:
		month = utils.MonthOf(utils.DateOf(h.clock.Now(), h.loc))
		hasMonth = true
	}
	if hasMonth {
		from, to = month, month
	}

	months, err := h.dashboardSvc.RevenueByMonth(r.Context(), from, to)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, RevenueDTO{From: from.String(), To: to.String(), Months: months})
}

func (h *DashboardHandler) PaymentsDue(w http.ResponseWriter, r *http.Request) {
	asOf, err := h.asOf(r)
	if err != nil {
		respondError(w, err)
		return
	}
	due, err := h.dashboardSvc.PaymentsDue(r.Context(), asOf)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, mapPaymentsDue(due))
}
