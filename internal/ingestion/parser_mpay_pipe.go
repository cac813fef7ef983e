package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/billrecon/reconciler/internal/domain"
)

// ParseMPayPipe parses the pipe-delimited JK Bank MPay collection export.
// Every row in this file is an MPay payment, so the file carries no mode
// column; the channel column only distinguishes app from web.
//
// Expected header:
//
//	TXN_ID|CONSUMER_NO|CHANNEL|AMOUNT|TXN_DATE|STATUS
func ParseMPayPipe(data []byte) ([]domain.IntakeRow, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.Comma = '|'
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 6 {
		return nil, fmt.Errorf("expected 6 columns, got %d", len(header))
	}

	var rows []domain.IntakeRow
	lineNum := 1
	for {
		lineNum++
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		rows = append(rows, domain.IntakeRow{
			TransactionID: strings.TrimSpace(rec[0]),
			ConsumerID:    strings.TrimSpace(rec[1]),
			PaymentMode:   string(domain.ModeJKBankMPay),
			Amount:        strings.TrimSpace(rec[3]),
			PaymentDate:   strings.TrimSpace(rec[4]),
			Status:        strings.TrimSpace(rec[5]),
			BankName:      "JK Bank",
		})
	}

	return rows, nil
}
