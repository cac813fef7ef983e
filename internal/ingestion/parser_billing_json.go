package ingestion

import (
	"encoding/json"
	"fmt"

	"github.com/billrecon/reconciler/internal/domain"
)

// billingExport is the top-level JSON document the billing system emits.
type billingExport struct {
	ExportID    string         `json:"export_id"`
	GeneratedAt string         `json:"generated_at"`
	Postings    []billingEntry `json:"postings"`
}

// Amounts arrive either as JSON numbers or strings depending on the export
// version, so they are decoded as json.Number.
type billingEntry struct {
	TransactionRef string      `json:"transaction_reference"`
	ConsumerID     string      `json:"consumer_id"`
	PaymentChannel string      `json:"payment_channel"`
	AmountPaid     json.Number `json:"amount_paid"`
	PostingDate    string      `json:"posting_date"`
	PostingStatus  string      `json:"posting_status"`
	BillMonth      string      `json:"bill_month"`
}

// ParseBillingJSON parses the billing system posting export.
func ParseBillingJSON(data []byte) ([]domain.PostingRow, string, error) {
	var file billingExport
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, "", fmt.Errorf("unmarshal: %w", err)
	}

	rows := make([]domain.PostingRow, 0, len(file.Postings))
	for _, e := range file.Postings {
		rows = append(rows, domain.PostingRow{
			TransactionRef: e.TransactionRef,
			ConsumerID:     e.ConsumerID,
			PaymentChannel: e.PaymentChannel,
			AmountPaid:     e.AmountPaid.String(),
			PostingDate:    e.PostingDate,
			PostingStatus:  e.PostingStatus,
			BillMonth:      e.BillMonth,
		})
	}
	return rows, file.ExportID, nil
}
