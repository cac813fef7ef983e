package domain

import "time"

// IntakeRow is a payment as captured from a bank file import, before
// normalization. Amount and date stay textual until the normalizer parses them.
type IntakeRow struct {
	TransactionID string `json:"transaction_id"`
	ConsumerID    string `json:"consumer_id"`
	PaymentMode   string `json:"payment_mode"`
	Amount        string `json:"amount"`
	PaymentDate   string `json:"payment_date"`
	Status        string `json:"status"`
	BankName      string `json:"bank_name,omitempty"`
}

// PostingRow is a payment as applied to a customer account by the billing system.
type PostingRow struct {
	TransactionRef string `json:"transaction_reference"`
	ConsumerID     string `json:"consumer_id"`
	PaymentChannel string `json:"payment_channel"`
	AmountPaid     string `json:"amount_paid"`
	PostingDate    string `json:"posting_date"`
	PostingStatus  string `json:"posting_status"`
	BillMonth      string `json:"bill_month,omitempty"`
}

// ImportBatch records one imported file. The hash makes imports idempotent.
type ImportBatch struct {
	ID          string       `json:"id"`
	Source      SourceSystem `json:"source"`
	Format      string       `json:"format"`
	FileHash    string       `json:"file_hash"`
	RecordCount int          `json:"record_count"`
	ImportedAt  time.Time    `json:"imported_at"`
}
