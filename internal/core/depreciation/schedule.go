package depreciation

import (
	"time"

	"github.com/SscSPs/herd_ledger/internal/core/domain"
)

// ScheduleBetween returns the gap-free, ordered months from the service-start month through
// last (inclusive). A month is eligible when its last day is on or after serviceStart, which is
// every month from the service-start month on.
func ScheduleBetween(serviceStart time.Time, last domain.Period) []domain.Period {
	first := domain.PeriodOf(serviceStart)
	if last.Before(first) {
		return nil
	}
	periods := make([]domain.Period, 0, last.MonthsSince(first)+1)
	for p := first; !p.After(last); p = p.Next() {
		periods = append(periods, p)
	}
	return periods
}

// ScheduleThrough returns the completed months as of asOf. The month containing asOf is still
// open and is never included.
func ScheduleThrough(serviceStart, asOf time.Time) []domain.Period {
	return ScheduleBetween(serviceStart, domain.PeriodOf(asOf).Prev())
}

// ScheduleBefore returns the full months strictly before the disposition month; the disposition
// month itself is handled as a partial month.
func ScheduleBefore(serviceStart, dispositionDate time.Time) []domain.Period {
	return ScheduleBetween(serviceStart, domain.PeriodOf(dispositionDate).Prev())
}
