package reconciliation

import (
	"github.com/shopspring/decimal"

	"github.com/billrecon/reconciler/internal/currency"
	"github.com/billrecon/reconciler/internal/domain"
)

// summarize computes the report totals and the per-mode breakdown. Matched
// amounts are always taken from the intake side.
func summarize(intake, posting *Index, matches []domain.MatchResult, exceptions []domain.Exception) (domain.Summary, []domain.ModeBreakdown) {
	s := domain.Summary{
		TotalIntakeAmount:      decimal.Zero,
		TotalPostingAmount:     decimal.Zero,
		MatchedAmount:          decimal.Zero,
		UnmatchedIntakeAmount:  decimal.Zero,
		UnmatchedPostingAmount: decimal.Zero,
	}

	modes := make(map[domain.PaymentMode]*domain.ModeBreakdown, len(domain.PaymentModes))
	breakdown := make([]domain.ModeBreakdown, len(domain.PaymentModes))
	for i, m := range domain.PaymentModes {
		breakdown[i] = domain.ModeBreakdown{
			Mode:          m,
			IntakeAmount:  decimal.Zero,
			PostingAmount: decimal.Zero,
			MatchedAmount: decimal.Zero,
		}
		modes[m] = &breakdown[i]
	}
	// Records are normalized before they get here; an unknown mode only
	// feeds the top-level totals.
	bucket := func(m domain.PaymentMode) *domain.ModeBreakdown {
		if b, ok := modes[m]; ok {
			return b
		}
		return &domain.ModeBreakdown{IntakeAmount: decimal.Zero, PostingAmount: decimal.Zero, MatchedAmount: decimal.Zero}
	}

	for _, r := range intake.Records {
		s.TotalIntakeCount++
		s.TotalIntakeAmount = s.TotalIntakeAmount.Add(r.Amount)
		b := bucket(r.PaymentMode)
		b.IntakeCount++
		b.IntakeAmount = b.IntakeAmount.Add(r.Amount)
	}
	for _, r := range posting.Records {
		s.TotalPostingCount++
		s.TotalPostingAmount = s.TotalPostingAmount.Add(r.Amount)
		b := bucket(r.PaymentMode)
		b.PostingCount++
		b.PostingAmount = b.PostingAmount.Add(r.Amount)
	}

	settlementDays := 0
	for _, m := range matches {
		s.MatchedCount++
		if m.Kind == domain.MatchExact {
			s.ExactMatchCount++
		} else {
			s.FuzzyMatchCount++
		}
		s.MatchedAmount = s.MatchedAmount.Add(m.Intake.Amount)
		settlementDays += abs(m.DateDifferenceDays)

		b := bucket(m.Intake.PaymentMode)
		b.MatchedCount++
		b.MatchedAmount = b.MatchedAmount.Add(m.Intake.Amount)
	}

	for _, e := range exceptions {
		if e.RequiresAction {
			s.CriticalExceptionCount++
		}
		b := bucket(e.Record.PaymentMode)
		switch e.Direction {
		case domain.IntakeOnly:
			s.UnmatchedIntakeCount++
			s.UnmatchedIntakeAmount = s.UnmatchedIntakeAmount.Add(e.Record.Amount)
			b.UnmatchedIntakeCount++
		case domain.PostingOnly:
			s.UnmatchedPostingCount++
			s.UnmatchedPostingAmount = s.UnmatchedPostingAmount.Add(e.Record.Amount)
			b.UnmatchedPostingCount++
		}
	}

	s.Variance = s.TotalIntakeAmount.Sub(s.TotalPostingAmount)
	s.ReconciliationEfficiency = currency.Percent(decimal.NewFromInt(int64(s.MatchedCount)), decimal.NewFromInt(int64(s.TotalIntakeCount)))
	s.AmountReconciliationRate = currency.Percent(s.MatchedAmount, s.TotalIntakeAmount)
	if s.MatchedCount > 0 {
		s.AvgSettlementDays = currency.RoundTo(float64(settlementDays)/float64(s.MatchedCount), 1)
	}

	for i := range breakdown {
		b := &breakdown[i]
		b.Variance = b.IntakeAmount.Sub(b.PostingAmount)
		b.ReconciliationEfficiency = currency.Percent(decimal.NewFromInt(int64(b.MatchedCount)), decimal.NewFromInt(int64(b.IntakeCount)))
	}

	return s, breakdown
}
