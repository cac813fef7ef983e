package reconciliation

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/billrecon/reconciler/internal/currency"
	"github.com/billrecon/reconciler/internal/domain"
)

// Factor weights. A perfect candidate scores exactly 1.0.
var (
	weightConsumer    = decimal.RequireFromString("0.40")
	weightMode        = decimal.RequireFromString("0.30")
	weightAmountExact = decimal.RequireFromString("0.25")
	weightAmountClose = decimal.RequireFromString("0.15")
	weightDate        = decimal.RequireFromString("0.05")

	closeAmountRatio = decimal.RequireFromString("0.01")
	highConfidence   = decimal.RequireFromString("0.95")

	// MinConfidence is the lowest fuzzy score that is accepted as a match.
	MinConfidence = decimal.RequireFromString("0.8")
)

// similarConsumerDistance is the largest edit distance reported as a
// "similar consumer id" reason. It never contributes to the score.
const similarConsumerDistance = 2

// matchFuzzy runs over whatever the exact phase left. For each remaining
// intake record, in intake order, it scores the available posting records in
// the same or an adjacent rounded-amount bucket and accepts the best one if
// it reaches MinConfidence. Assignment is greedy and final: an accepted pair
// is never revisited.
//
// The bucket filter means a pair whose amounts differ by more than about one
// rupee is never scored, even though the 1% amount tier could accept it for
// amounts above 100.
func matchFuzzy(intake, posting *Index, intakeClaims, postingClaims *claims, opts Options) []domain.MatchResult {
	var out []domain.MatchResult
	for _, i := range intakeClaims.remaining() {
		in := intake.Records[i]

		best := -1
		var bestScore decimal.Decimal
		var bestReasons []string
		for _, p := range posting.nearAmount(currency.Bucket(in.Amount)) {
			if !postingClaims.available(p) {
				continue
			}
			s, reasons := score(in, posting.Records[p], opts)
			// Ties keep the earliest posting.
			if best < 0 || s.GreaterThan(bestScore) {
				best, bestScore, bestReasons = p, s, reasons
			}
		}

		if best < 0 || !accepts(bestScore) {
			continue
		}
		if !postingClaims.take(best) {
			continue
		}
		intakeClaims.take(i)

		post := posting.Records[best]
		out = append(out, domain.MatchResult{
			Kind:               domain.MatchFuzzy,
			Intake:             in,
			Posting:            post,
			Score:              bestScore.InexactFloat64(),
			DateDifferenceDays: domain.DaysBetween(in.EventDate, post.EventDate),
			Reasons:            append(bestReasons, confidenceTier(bestScore)),
		})
	}
	return out
}

// accepts reports whether a fuzzy score clears the confidence threshold.
func accepts(s decimal.Decimal) bool {
	return s.GreaterThanOrEqual(MinConfidence)
}

// score sums the independent factor contributions for one candidate pair and
// lists the factors that fired.
func score(in, post *domain.PaymentRecord, opts Options) (decimal.Decimal, []string) {
	total := decimal.Zero
	var reasons []string

	if in.ConsumerID == post.ConsumerID {
		total = total.Add(weightConsumer)
		reasons = append(reasons, "consumer id match")
	} else if d := levenshtein.DistanceForStrings([]rune(in.ConsumerID), []rune(post.ConsumerID), levenshtein.DefaultOptions); d <= similarConsumerDistance {
		reasons = append(reasons, fmt.Sprintf("similar consumer id (edit distance %d)", d))
	}

	if in.PaymentMode == post.PaymentMode {
		total = total.Add(weightMode)
		reasons = append(reasons, "payment mode match")
	}

	diff := in.Amount.Sub(post.Amount).Abs()
	switch {
	case diff.LessThanOrEqual(opts.AmountTolerance):
		total = total.Add(weightAmountExact)
		reasons = append(reasons, "exact amount match")
	case diff.LessThanOrEqual(in.Amount.Mul(closeAmountRatio)):
		total = total.Add(weightAmountClose)
		reasons = append(reasons, "close amount match (within 1%)")
	}

	days := abs(domain.DaysBetween(in.EventDate, post.EventDate))
	if days <= opts.DaysTolerance {
		total = total.Add(dateFactor(days, opts.DaysTolerance))
		reasons = append(reasons, fmt.Sprintf("date within %d day(s)", days))
	}

	return total, reasons
}

// dateFactor scales the date weight linearly from full at zero days to
// nothing at the tolerance. A zero tolerance gives full weight to same-day
// pairs.
func dateFactor(days, tolerance int) decimal.Decimal {
	if tolerance == 0 {
		return weightDate
	}
	ratio := decimal.NewFromInt(int64(days)).Div(decimal.NewFromInt(int64(tolerance)))
	return weightDate.Mul(decimal.NewFromInt(1).Sub(ratio))
}

func confidenceTier(s decimal.Decimal) string {
	if s.GreaterThanOrEqual(highConfidence) {
		return "high confidence"
	}
	return "medium confidence"
}
