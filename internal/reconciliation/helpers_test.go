package reconciliation

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/billrecon/reconciler/internal/domain"
)

var d0 = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

func intakeRec(ref, consumer, amount string, mode domain.PaymentMode, dayOffset int) domain.PaymentRecord {
	return record(domain.SourceIntake, ref, consumer, amount, mode, dayOffset)
}

func postingRec(ref, consumer, amount string, mode domain.PaymentMode, dayOffset int) domain.PaymentRecord {
	return record(domain.SourcePosting, ref, consumer, amount, mode, dayOffset)
}

func record(src domain.SourceSystem, ref, consumer, amount string, mode domain.PaymentMode, dayOffset int) domain.PaymentRecord {
	status := "SUCCESS"
	if src == domain.SourcePosting {
		status = "POSTED"
	}
	return domain.PaymentRecord{
		ConsumerID:   consumer,
		PaymentMode:  mode,
		Amount:       decimal.RequireFromString(amount),
		ExternalRef:  ref,
		EventDate:    d0.AddDate(0, 0, dayOffset),
		SourceSystem: src,
		Status:       status,
	}
}

// optionsAt returns default options evaluated at d0 + days.
func optionsAt(days int) Options {
	opts := DefaultOptions()
	now := d0.AddDate(0, 0, days)
	opts.Now = func() time.Time { return now }
	return opts
}

// run executes one engine pass and fails the test on an error.
func run(t *testing.T, opts Options, intake, posting []domain.PaymentRecord) *domain.ReconciliationReport {
	t.Helper()
	report, err := NewEngine(opts).Run(intake, posting)
	require.NoError(t, err)
	return report
}

func refs(records []*domain.PaymentRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ExternalRef
	}
	return out
}

// pairs lists matches as "intakeRef->postingRef/KIND".
func pairs(matches []domain.MatchResult) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = fmt.Sprintf("%s->%s/%s", m.Intake.ExternalRef, m.Posting.ExternalRef, m.Kind)
	}
	return out
}

// randomLedgers builds a messy but reproducible pair of ledgers: most intake
// records have a posting counterpart with settlement drift, some postings
// carry a paisa of difference, some are missing, and a few postings are
// orphans. Duplicate same-key payments are frequent.
func randomLedgers(seed int64, n int) ([]domain.PaymentRecord, []domain.PaymentRecord) {
	rng := rand.New(rand.NewSource(seed))
	amounts := []string{"100.00", "250.50", "500.00", "1000.00", "1000.40", "999.60"}

	var intake, posting []domain.PaymentRecord
	for i := 0; i < n; i++ {
		consumer := fmt.Sprintf("C%03d", rng.Intn(15))
		mode := domain.PaymentModes[rng.Intn(len(domain.PaymentModes))]
		amount := amounts[rng.Intn(len(amounts))]
		day := rng.Intn(10)
		intake = append(intake, intakeRec(fmt.Sprintf("I%04d", i), consumer, amount, mode, day))

		roll := rng.Float64()
		switch {
		case roll < 0.10:
			// never posted
		case roll < 0.20:
			amt := decimal.RequireFromString(amount).Add(decimal.RequireFromString("0.01"))
			posting = append(posting, postingRec(fmt.Sprintf("P%04d", i), consumer, amt.StringFixed(2), mode, day+1))
		default:
			posting = append(posting, postingRec(fmt.Sprintf("P%04d", i), consumer, amount, mode, day+mode.SettlementDays()+rng.Intn(2)))
		}
	}
	for i := 0; i < n/10; i++ {
		consumer := fmt.Sprintf("C%03d", rng.Intn(15))
		posting = append(posting, postingRec(fmt.Sprintf("X%04d", i), consumer, amounts[rng.Intn(len(amounts))], domain.ModeBBPS, rng.Intn(10)))
	}
	return intake, posting
}
