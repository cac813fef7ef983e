package reconciliation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billrecon/reconciler/internal/domain"
)

func TestFuzzy_PaisaDifferenceNextDay(t *testing.T) {
	intake := []domain.PaymentRecord{intakeRec("I1", "C1", "1000.00", domain.ModeBBPS, 0)}
	posting := []domain.PaymentRecord{postingRec("P1", "C1", "1000.01", domain.ModeBBPS, 1)}

	report := run(t, optionsAt(1), intake, posting)

	require.Len(t, report.Matches, 1)
	m := report.Matches[0]
	assert.Equal(t, domain.MatchFuzzy, m.Kind)
	assert.InDelta(t, 0.975, m.Score, 1e-9)
	assert.Equal(t, 1, m.DateDifferenceDays)
	assert.Equal(t, []string{
		"consumer id match",
		"payment mode match",
		"exact amount match",
		"date within 1 day(s)",
		"high confidence",
	}, m.Reasons)
	assert.Empty(t, report.Exceptions)
}

func TestScore_Factors(t *testing.T) {
	opts := DefaultOptions()
	in := intakeRec("I1", "C1", "1000.00", domain.ModeBBPS, 0)

	tests := []struct {
		name string
		post domain.PaymentRecord
		want string
	}{
		{"perfect", postingRec("P", "C1", "1000.00", domain.ModeBBPS, 0), "1"},
		{"close amount tier", postingRec("P", "C1", "1009.99", domain.ModeBBPS, 0), "0.9"},
		{"amount beyond 1%", postingRec("P", "C1", "1010.01", domain.ModeBBPS, 0), "0.75"},
		{"other consumer", postingRec("P", "C2", "1000.00", domain.ModeBBPS, 0), "0.6"},
		{"other mode", postingRec("P", "C1", "1000.00", domain.ModeSmartBS, 2), "0.65"},
		{"outside date tolerance", postingRec("P", "C1", "1000.00", domain.ModeBBPS, -3), "0.95"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := score(&in, &tt.post, opts)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestScore_DateFactor(t *testing.T) {
	assert.True(t, dateFactor(0, 2).Equal(decimal.RequireFromString("0.05")))
	assert.True(t, dateFactor(1, 2).Equal(decimal.RequireFromString("0.025")))
	assert.True(t, dateFactor(2, 2).IsZero())
	assert.True(t, dateFactor(0, 0).Equal(decimal.RequireFromString("0.05")))
	assert.InDelta(t, 0.0333333, dateFactor(1, 3).InexactFloat64(), 1e-6)
}

func TestAccepts_ThresholdBoundary(t *testing.T) {
	assert.True(t, accepts(decimal.RequireFromString("0.8")))
	assert.True(t, accepts(decimal.RequireFromString("0.80")))
	assert.False(t, accepts(decimal.RequireFromString("0.7999")))
	assert.True(t, accepts(decimal.RequireFromString("1")))
}

func TestFuzzy_BelowThresholdStaysUnmatched(t *testing.T) {
	// Mode and amount agree but the consumer does not: 0.30 + 0.25 + 0.05.
	intake := []domain.PaymentRecord{intakeRec("I1", "C1", "300.00", domain.ModeSmartBS, 0)}
	posting := []domain.PaymentRecord{postingRec("P1", "C7", "300.00", domain.ModeSmartBS, 0)}

	report := run(t, optionsAt(0), intake, posting)

	assert.Empty(t, report.Matches)
	require.Len(t, report.Exceptions, 2)
	assert.Equal(t, domain.IntakeOnly, report.Exceptions[0].Direction)
	assert.Equal(t, domain.PostingOnly, report.Exceptions[1].Direction)
}

func TestFuzzy_PicksHighestScore(t *testing.T) {
	intake := []domain.PaymentRecord{intakeRec("I1", "C1", "640.00", domain.ModeJKBankMPay, 0)}
	posting := []domain.PaymentRecord{
		postingRec("P-close", "C1", "640.50", domain.ModeJKBankMPay, 0),
		postingRec("P-exact", "C1", "640.01", domain.ModeJKBankMPay, 1),
	}

	report := run(t, optionsAt(1), intake, posting)

	// 0.975 beats 0.90.
	assert.Equal(t, []string{"I1->P-exact/FUZZY"}, pairs(report.Matches))
}

func TestFuzzy_EqualScoresKeepEarliestPosting(t *testing.T) {
	intake := []domain.PaymentRecord{intakeRec("I1", "C1", "640.00", domain.ModeJKBankMPay, 0)}
	posting := []domain.PaymentRecord{
		postingRec("P-a", "C1", "640.01", domain.ModeJKBankMPay, 1),
		postingRec("P-b", "C1", "639.99", domain.ModeJKBankMPay, 1),
	}

	report := run(t, optionsAt(1), intake, posting)

	assert.Equal(t, []string{"I1->P-a/FUZZY"}, pairs(report.Matches))
}

func TestFuzzy_GreedyWithoutRematch(t *testing.T) {
	// I1 comes first and takes P1 even though I2 would have scored it higher.
	intake := []domain.PaymentRecord{
		intakeRec("I1", "C1", "100.50", domain.ModeBBPS, 0),
		intakeRec("I2", "C1", "100.00", domain.ModeBBPS, 1),
	}
	posting := []domain.PaymentRecord{postingRec("P1", "C1", "100.01", domain.ModeBBPS, 1)}

	report := run(t, optionsAt(1), intake, posting)

	assert.Equal(t, []string{"I1->P1/FUZZY"}, pairs(report.Matches))
	require.Len(t, report.Exceptions, 1)
	assert.Equal(t, "I2", report.Exceptions[0].Record.ExternalRef)
}

func TestFuzzy_BucketFilterMissesLargeDifference(t *testing.T) {
	// A 1% difference on a large amount spans several rupee buckets and is
	// never scored, although it would have reached 0.90.
	intake := []domain.PaymentRecord{intakeRec("I1", "C1", "1000.00", domain.ModeBBPS, 0)}
	posting := []domain.PaymentRecord{postingRec("P1", "C1", "1010.00", domain.ModeBBPS, 0)}

	in, post := intake[0], posting[0]
	s, _ := score(&in, &post, DefaultOptions())
	assert.True(t, accepts(s))

	report := run(t, optionsAt(0), intake, posting)
	assert.Empty(t, report.Matches)
	assert.Len(t, report.Exceptions, 2)
}

func TestFuzzy_SimilarConsumerIsDisplayOnly(t *testing.T) {
	in := intakeRec("I1", "C10021", "500.00", domain.ModeBBPS, 0)
	post := postingRec("P1", "C10012", "500.00", domain.ModeBBPS, 0)

	s, reasons := score(&in, &post, DefaultOptions())

	assert.True(t, s.Equal(decimal.RequireFromString("0.6")), "got %s", s)
	assert.Contains(t, reasons, "similar consumer id (edit distance 2)")
	assert.NotContains(t, reasons, "consumer id match")
}

func TestFuzzy_Disabled(t *testing.T) {
	intake := []domain.PaymentRecord{intakeRec("I1", "C1", "1000.00", domain.ModeBBPS, 0)}
	posting := []domain.PaymentRecord{postingRec("P1", "C1", "1000.01", domain.ModeBBPS, 1)}

	opts := optionsAt(1)
	opts.IncludePartialMatches = false
	report := run(t, opts, intake, posting)

	assert.Empty(t, report.Matches)
	assert.Len(t, report.Exceptions, 2)
}
