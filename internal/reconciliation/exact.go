package reconciliation

import (
	"sync"

	"github.com/billrecon/reconciler/internal/domain"
)

// matchExact pairs intake records with posting records sharing the same
// (consumer, amount, mode) key whose dates are within daysTolerance,
// choosing the closest date and, on ties, the earliest posting.
//
// Intake records are processed per consumer. Because the key contains the
// consumer id, consumers never compete for the same posting record, so they
// are matched on up to workers goroutines in any order and still produce
// exactly the result of a sequential pass in intake order.
func matchExact(intake, posting *Index, intakeClaims, postingClaims *claims, daysTolerance, workers int) []domain.MatchResult {
	slots := make([]*domain.MatchResult, intake.Len())

	run := func(positions []int) {
		for _, i := range positions {
			if m := exactFor(i, intake, posting, intakeClaims, postingClaims, daysTolerance); m != nil {
				slots[i] = m
			}
		}
	}

	if workers <= 1 || len(intake.ByConsumer) <= 1 {
		for _, positions := range intake.ByConsumer {
			run(positions)
		}
	} else {
		var wg sync.WaitGroup
		sem := make(chan struct{}, workers)
		for _, positions := range intake.ByConsumer {
			wg.Add(1)
			sem <- struct{}{}
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				run(positions)
			}()
		}
		wg.Wait()
	}

	var out []domain.MatchResult
	for _, m := range slots {
		if m != nil {
			out = append(out, *m)
		}
	}
	return out
}

func exactFor(i int, intake, posting *Index, intakeClaims, postingClaims *claims, daysTolerance int) *domain.MatchResult {
	in := intake.Records[i]
	candidates := posting.Exact[keyOf(in)]
	for {
		best, bestDiff := -1, 0
		for _, p := range candidates {
			if !postingClaims.available(p) {
				continue
			}
			diff := domain.DaysBetween(in.EventDate, posting.Records[p].EventDate)
			if abs(diff) > daysTolerance {
				continue
			}
			// Strict comparison keeps the earliest candidate on ties.
			if best < 0 || abs(diff) < abs(bestDiff) {
				best, bestDiff = p, diff
			}
		}
		if best < 0 {
			return nil
		}
		if !postingClaims.take(best) {
			continue
		}
		intakeClaims.take(i)
		return &domain.MatchResult{
			Kind:               domain.MatchExact,
			Intake:             in,
			Posting:            posting.Records[best],
			Score:              1.0,
			DateDifferenceDays: bestDiff,
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
