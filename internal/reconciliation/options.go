package reconciliation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/billrecon/reconciler/internal/domain"
)

// Options holds the tunables of one reconciliation pass.
type Options struct {
	AmountTolerance       decimal.Decimal // absolute rupees, default 0.01
	DaysTolerance         int             // default 2
	IncludePartialMatches bool            // run the fuzzy phase; default true
	ExactWorkers          int             // consumer partitions matched in parallel; default 4
	Now                   func() time.Time
	// Location is the zone whose calendar decides today's date when aging
	// exceptions. Nil uses the zone of the Now value.
	Location *time.Location
}

// DefaultOptions returns the standard tolerances.
func DefaultOptions() Options {
	return Options{
		AmountTolerance:       decimal.RequireFromString("0.01"),
		DaysTolerance:         2,
		IncludePartialMatches: true,
		ExactWorkers:          4,
		Now:                   time.Now,
		Location:              domain.IST,
	}
}

// Validate rejects tolerances that cannot be applied.
func (o Options) Validate() error {
	if o.AmountTolerance.IsNegative() {
		return domain.Invalid("amount_tolerance", "must be >= 0, got %s", o.AmountTolerance)
	}
	if o.DaysTolerance < 0 {
		return domain.Invalid("days_tolerance", "must be >= 0, got %d", o.DaysTolerance)
	}
	return nil
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// today is the calendar day of now in the configured zone, comparable with
// normalized event dates.
func (o Options) today(now time.Time) time.Time {
	if o.Location != nil {
		now = now.In(o.Location)
	}
	return domain.CalendarDay(now)
}
