package utils

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RentalCostBreakdown provides detailed cost breakdown
type RentalCostBreakdown struct {
	Days      int
	DailyRate decimal.Decimal
	TotalCost decimal.Decimal
}

// CalculateRentalCost prices a booking over [start, end) as dailyRate × days.
// The end date is the return day and is not billed.
func CalculateRentalCost(start, end time.Time, dailyRate decimal.Decimal) (RentalCostBreakdown, error) {
	if !dailyRate.IsPositive() {
		return RentalCostBreakdown{}, fmt.Errorf("daily rate must be positive")
	}
	days := DaysBetween(start, end)
	if days <= 0 {
		return RentalCostBreakdown{}, fmt.Errorf("end date must be after start date")
	}
	return RentalCostBreakdown{
		Days:      days,
		DailyRate: dailyRate,
		TotalCost: dailyRate.Mul(decimal.NewFromInt(int64(days))).Round(2),
	}, nil
}
