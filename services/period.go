package services

import (
	"strings"
	"time"
)

const monthLayout = "2006-01"

// Period is a half-open time range [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

// ParseMonth turns "YYYY-MM" into the period covering that calendar month
// in UTC.
func ParseMonth(month string) (Period, error) {
	start, err := time.Parse(monthLayout, strings.TrimSpace(month))
	if err != nil {
		return Period{}, invalid("month", "expected YYYY-MM, got %q", month)
	}
	return Period{Start: start, End: start.AddDate(0, 1, 0)}, nil
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Period {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}
}

// Label formats the period's month as "YYYY-MM".
func (p Period) Label() string {
	return p.Start.Format(monthLayout)
}
