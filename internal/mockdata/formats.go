package mockdata

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"time"

	"github.com/billrecon/reconciler/internal/domain"
)

// WriteBankCSV writes every non-MPay intake row in the bank_csv import format.
func WriteBankCSV(w io.Writer, rows []domain.IntakeRow) (int, error) {
	cw := csv.NewWriter(w)
	cw.Write([]string{"transaction_id", "consumer_id", "payment_mode", "amount", "payment_date", "status", "bank_name"})

	count := 0
	for _, r := range rows {
		if r.PaymentMode == string(domain.ModeJKBankMPay) {
			continue
		}
		cw.Write([]string{r.TransactionID, r.ConsumerID, r.PaymentMode, r.Amount, r.PaymentDate, r.Status, r.BankName})
		count++
	}
	cw.Flush()
	return count, cw.Error()
}

// WriteMPayPipe writes the MPay intake rows in the mpay_pipe import format.
func WriteMPayPipe(w io.Writer, rows []domain.IntakeRow) (int, error) {
	cw := csv.NewWriter(w)
	cw.Comma = '|'
	cw.Write([]string{"TXN_ID", "CONSUMER_NO", "CHANNEL", "AMOUNT", "TXN_DATE", "STATUS"})

	count := 0
	for i, r := range rows {
		if r.PaymentMode != string(domain.ModeJKBankMPay) {
			continue
		}
		channel := "APP"
		if i%3 == 0 {
			channel = "WEB"
		}
		cw.Write([]string{r.TransactionID, r.ConsumerID, channel, r.Amount, r.PaymentDate, r.Status})
		count++
	}
	cw.Flush()
	return count, cw.Error()
}

type billingFile struct {
	ExportID    string         `json:"export_id"`
	GeneratedAt string         `json:"generated_at"`
	Postings    []billingEntry `json:"postings"`
}

type billingEntry struct {
	TransactionRef string `json:"transaction_reference"`
	ConsumerID     string `json:"consumer_id"`
	PaymentChannel string `json:"payment_channel"`
	AmountPaid     string `json:"amount_paid"`
	PostingDate    string `json:"posting_date"`
	PostingStatus  string `json:"posting_status"`
	BillMonth      string `json:"bill_month,omitempty"`
}

// WriteBillingJSON writes postings in the billing_json import format.
func WriteBillingJSON(w io.Writer, exportID string, generatedAt time.Time, rows []domain.PostingRow) error {
	out := billingFile{
		ExportID:    exportID,
		GeneratedAt: generatedAt.UTC().Format(time.RFC3339),
		Postings:    make([]billingEntry, 0, len(rows)),
	}
	for _, r := range rows {
		out.Postings = append(out.Postings, billingEntry{
			TransactionRef: r.TransactionRef,
			ConsumerID:     r.ConsumerID,
			PaymentChannel: r.PaymentChannel,
			AmountPaid:     r.AmountPaid,
			PostingDate:    r.PostingDate,
			PostingStatus:  r.PostingStatus,
			BillMonth:      r.BillMonth,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
