package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/utils"
)

func pathID(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

func parseDateField(field, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, domain.NewValidationError(field, "%s is required", field)
	}
	d, err := utils.ParseDate(value)
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, "%v", err)
	}
	return d, nil
}

// optionalDate parses a yyyy-mm-dd query parameter. Absent means the zero time.
func optionalDate(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	return parseDateField(name, v)
}

func optionalMonth(r *http.Request, name string) (utils.YearMonth, bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return utils.YearMonth{}, false, nil
	}
	ym, err := utils.ParseYearMonth(v)
	if err != nil {
		return utils.YearMonth{}, false, domain.NewValidationError(name, "%v", err)
	}
	return ym, true, nil
}

func optionalInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, domain.NewValidationError(name, "%s must be a non-negative integer", name)
	}
	return n, nil
}

func parseAmount(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, domain.NewValidationError(field, "%s must be a decimal number", field)
	}
	return d, nil
}

// optionalAsOf turns an asOf=yyyy-mm-dd parameter into noon of that day in loc,
// so the business-day projection lands on the requested date.
func optionalAsOf(r *http.Request, loc *time.Location) (time.Time, error) {
	d, err := optionalDate(r, "asOf")
	if err != nil || d.IsZero() {
		return d, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, loc), nil
}
