package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// MonthLayout is the wire format for a calendar month.
const MonthLayout = "2006-01"

// ParseDate converts a yyyy-mm-dd string into a calendar date at UTC midnight.
func ParseDate(dateStr string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(dateStr), "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid date format %q, expected yyyy-mm-dd", dateStr)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year: %v", err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month: %v", err)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day: %v", err)
	}

	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month must be between 1 and 12")
	}
	if day < 1 || day > DaysInMonth(year, month) {
		return time.Time{}, fmt.Errorf("day must be between 1 and %d", DaysInMonth(year, month))
	}

	return Date(year, time.Month(month), day), nil
}

// FormatDate renders a calendar date as yyyy-mm-dd.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Date builds a calendar date at UTC midnight.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf returns the calendar date t falls on in loc, as UTC midnight.
// A nil loc means UTC.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return Date(local.Year(), local.Month(), local.Day())
}

// CalendarDate reduces an arbitrary instant to the calendar date it names.
// A value already at UTC midnight is a calendar date and is kept; anything
// else is taken as an instant and mapped to its date in loc.
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() {
		return t
	}
	u := t.UTC()
	if u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0 {
		return Date(u.Year(), u.Month(), u.Day())
	}
	return DateOf(t, loc)
}

// DaysInMonth returns the number of days in a given month
func DaysInMonth(year, month int) int {
	if month == 2 {
		if (year%4 == 0 && year%100 != 0) || (year%400 == 0) {
			return 29
		}
		return 28
	}
	if month == 4 || month == 6 || month == 9 || month == 11 {
		return 30
	}
	return 31
}

// DaysBetween returns to minus from in whole days. Both arguments must be calendar dates.
func DaysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// AddDays shifts a calendar date by n days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// YearMonth identifies one calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth parses yyyy-mm.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse(MonthLayout, strings.TrimSpace(s))
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid month %q, expected yyyy-mm", s)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf returns the month a calendar date falls in.
func MonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// First is the first day of the month.
func (ym YearMonth) First() time.Time {
	return Date(ym.Year, ym.Month, 1)
}

// Last is the last day of the month.
func (ym YearMonth) Last() time.Time {
	return Date(ym.Year, ym.Month, DaysInMonth(ym.Year, int(ym.Month)))
}

// Contains reports whether the calendar date d falls within the month.
func (ym YearMonth) Contains(d time.Time) bool {
	return d.Year() == ym.Year && d.Month() == ym.Month
}

// Days lists every date of the month in order.
func (ym YearMonth) Days() []time.Time {
	n := DaysInMonth(ym.Year, int(ym.Month))
	days := make([]time.Time, n)
	for i := 0; i < n; i++ {
		days[i] = Date(ym.Year, ym.Month, i+1)
	}
	return days
}

// Next returns the following month.
func (ym YearMonth) Next() YearMonth {
	if ym.Month == time.December {
		return YearMonth{Year: ym.Year + 1, Month: time.January}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

// Before reports whether ym is strictly earlier than other.
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}
