// Package reconciliation pairs intake payments with posted payments and
// reports what is left over.
//
// A pass runs in fixed phases over two normalized record sets:
//
//  1. both sets are stably sorted by (event date, consumer id) and indexed;
//  2. exact matching on (consumer, amount, mode) within the day tolerance;
//  3. fuzzy matching by weighted score over what exact matching left;
//  4. every unclaimed record becomes an exception with an aging flag;
//  5. totals, KPIs and the per-mode breakdown are computed.
//
// Each record is claimed at most once. Matching is greedy in the sorted
// order, so the same input always yields the same report.
//
// Example usage:
//
//	engine := reconciliation.NewEngine(reconciliation.DefaultOptions())
//	report, err := engine.Run(intakeRecords, postingRecords)
package reconciliation

import (
	"sort"

	"github.com/billrecon/reconciler/internal/domain"
)

// Engine runs reconciliation passes with a fixed set of options. It performs
// no I/O and holds no state between runs.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Run reconciles the two record sets. The records are referenced from the
// report, never modified. Options that fail Validate are returned as a
// ValidationError before any matching happens.
func (e *Engine) Run(intake, posting []domain.PaymentRecord) (*domain.ReconciliationReport, error) {
	if err := e.opts.Validate(); err != nil {
		return nil, err
	}

	intakeIdx := BuildIndex(ordered(intake))
	postingIdx := BuildIndex(ordered(posting))

	intakeClaims := newClaims(intakeIdx.Len())
	postingClaims := newClaims(postingIdx.Len())

	matches := matchExact(intakeIdx, postingIdx, intakeClaims, postingClaims, e.opts.DaysTolerance, e.opts.ExactWorkers)
	if e.opts.IncludePartialMatches {
		matches = append(matches, matchFuzzy(intakeIdx, postingIdx, intakeClaims, postingClaims, e.opts)...)
	}

	now := e.opts.now()
	exceptions := classifyExceptions(intakeIdx, postingIdx, intakeClaims, postingClaims, e.opts.today(now))
	summary, byMode := summarize(intakeIdx, postingIdx, matches, exceptions)

	if matches == nil {
		matches = []domain.MatchResult{}
	}
	if exceptions == nil {
		exceptions = []domain.Exception{}
	}

	return &domain.ReconciliationReport{
		EvaluatedAt: now.UTC(),
		Summary:     summary,
		ByMode:      byMode,
		Matches:     matches,
		Exceptions:  exceptions,
	}, nil
}

// ordered returns pointers to the records sorted by event date, then
// consumer id. Ties keep their input order.
func ordered(records []domain.PaymentRecord) []*domain.PaymentRecord {
	out := make([]*domain.PaymentRecord, len(records))
	for i := range records {
		out[i] = &records[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.EventDate.Equal(b.EventDate) {
			return a.EventDate.Before(b.EventDate)
		}
		return a.ConsumerID < b.ConsumerID
	})
	return out
}
