package ingestion

import (
	"fmt"
	"strings"
	"time"

	"github.com/billrecon/reconciler/internal/currency"
	"github.com/billrecon/reconciler/internal/domain"
)

var (
	intakeSuccess  = map[string]bool{"SUCCESS": true, "COMPLETED": true}
	postingSuccess = map[string]bool{"POSTED": true, "SUCCESS": true}
)

// NormalizeIntake converts bank-imported rows into payment records. Rows
// whose status is not a success status are dropped; any other malformed row
// fails the whole batch.
func NormalizeIntake(rows []domain.IntakeRow) ([]domain.PaymentRecord, error) {
	out := make([]domain.PaymentRecord, 0, len(rows))
	for i, row := range rows {
		if !intakeSuccess[strings.ToUpper(strings.TrimSpace(row.Status))] {
			continue
		}
		rec, err := normalize(domain.SourceIntake, row.ConsumerID, row.PaymentMode,
			row.Amount, row.TransactionID, row.PaymentDate, row.Status)
		if err != nil {
			return nil, fmt.Errorf("intake row %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// NormalizePosting converts billing-system rows into payment records.
func NormalizePosting(rows []domain.PostingRow) ([]domain.PaymentRecord, error) {
	out := make([]domain.PaymentRecord, 0, len(rows))
	for i, row := range rows {
		if !postingSuccess[strings.ToUpper(strings.TrimSpace(row.PostingStatus))] {
			continue
		}
		rec, err := normalize(domain.SourcePosting, row.ConsumerID, row.PaymentChannel,
			row.AmountPaid, row.TransactionRef, row.PostingDate, row.PostingStatus)
		if err != nil {
			return nil, fmt.Errorf("posting row %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func normalize(src domain.SourceSystem, consumerID, mode, amount, ref, date, status string) (domain.PaymentRecord, error) {
	consumerID = strings.TrimSpace(consumerID)
	if consumerID == "" {
		return domain.PaymentRecord{}, domain.Invalid("consumer_id", "required")
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.PaymentRecord{}, domain.Invalid("external_ref", "required")
	}

	pm, err := domain.ParsePaymentMode(mode)
	if err != nil {
		return domain.PaymentRecord{}, domain.Invalid("payment_mode", "%v", err)
	}

	amt, err := currency.ParseAmount(amount)
	if err != nil {
		return domain.PaymentRecord{}, domain.Invalid("amount", "%v", err)
	}
	if !amt.IsPositive() {
		return domain.PaymentRecord{}, domain.Invalid("amount", "must be > 0, got %s", amt.StringFixed(2))
	}

	day, err := ParseDate(date)
	if err != nil {
		return domain.PaymentRecord{}, domain.Invalid("event_date", "%v", err)
	}

	return domain.PaymentRecord{
		ConsumerID:   consumerID,
		PaymentMode:  pm,
		Amount:       amt,
		ExternalRef:  ref,
		EventDate:    day,
		SourceSystem: src,
		Status:       strings.ToUpper(strings.TrimSpace(status)),
	}, nil
}

// ParseDate accepts a plain date or an RFC3339 timestamp and returns the
// calendar day at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("unrecognised date %q", s)
		}
		// Timestamps keep the calendar day of their own zone.
		t = domain.CalendarDay(t)
	}
	return domain.TruncateDay(t), nil
}
