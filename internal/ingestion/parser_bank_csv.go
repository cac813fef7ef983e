package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/billrecon/reconciler/internal/domain"
)

var bankCSVColumns = []string{
	"transaction_id", "consumer_id", "payment_mode", "amount", "payment_date", "status",
}

// ParseBankCSV parses the comma-separated bank collection file.
//
// Expected header (bank_name optional, column order free):
//
//	transaction_id,consumer_id,payment_mode,amount,payment_date,status,bank_name
func ParseBankCSV(data []byte) ([]domain.IntakeRow, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := columnIndex(header, bankCSVColumns)
	if err != nil {
		return nil, err
	}
	bankCol, hasBank := cols["bank_name"]

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
		if blank(rec) {
			continue
		}
		if len(rec) < len(header) {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", lineNum, len(header), len(rec))
		}

		row := domain.IntakeRow{
			TransactionID: strings.TrimSpace(rec[cols["transaction_id"]]),
			ConsumerID:    strings.TrimSpace(rec[cols["consumer_id"]]),
			PaymentMode:   strings.TrimSpace(rec[cols["payment_mode"]]),
			Amount:        strings.TrimSpace(rec[cols["amount"]]),
			PaymentDate:   strings.TrimSpace(rec[cols["payment_date"]]),
			Status:        strings.TrimSpace(rec[cols["status"]]),
		}
		if hasBank {
			row.BankName = strings.TrimSpace(rec[bankCol])
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// columnIndex maps lower-cased header names to their position and checks
// that every required column is present.
func columnIndex(header, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, c := range required {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
