package domain

import (
	"fmt"
	"time"
)

// Period identifies one calendar month of depreciation.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// NewPeriod builds a Period, normalising out-of-range months.
func NewPeriod(year int, month time.Month) Period {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{Year: t.Year(), Month: t.Month()}
}

// PeriodOf returns the month containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// StartDate is the first day of the month.
func (p Period) StartDate() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// EndDate is the last calendar day of the month.
func (p Period) EndDate() time.Time {
	return p.StartDate().AddDate(0, 1, -1)
}

// DaysInMonth counts the days of the month, leap years included.
func (p Period) DaysInMonth() int {
	return p.EndDate().Day()
}

// Next is the following month.
func (p Period) Next() Period {
	return NewPeriod(p.Year, p.Month+1)
}

// Prev is the preceding month.
func (p Period) Prev() Period {
	return NewPeriod(p.Year, p.Month-1)
}

// Compare returns -1, 0 or +1.
func (p Period) Compare(o Period) int {
	switch {
	case p.Year < o.Year || (p.Year == o.Year && p.Month < o.Month):
		return -1
	case p == o:
		return 0
	default:
		return 1
	}
}

// Before reports whether p is earlier than o.
func (p Period) Before(o Period) bool {
	return p.Compare(o) < 0
}

// After reports whether p is later than o.
func (p Period) After(o Period) bool {
	return p.Compare(o) > 0
}

// MonthsSince counts whole months from o to p (0 when equal).
func (p Period) MonthsSince(o Period) int {
	return (p.Year-o.Year)*12 + int(p.Month) - int(o.Month)
}

// String formats the period as "2006-01".
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// ParsePeriod parses the "2006-01" form produced by String.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: %w", s, err)
	}
	return PeriodOf(t), nil
}
