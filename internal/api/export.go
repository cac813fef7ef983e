package api

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/billrecon/reconciler/internal/domain"
)

var exportHeader = []string{
	"record_type", "kind", "consumer_id", "payment_mode",
	"intake_ref", "intake_amount", "intake_date",
	"posting_ref", "posting_amount", "posting_date",
	"score", "date_difference_days", "requires_action", "age_days", "reasons",
}

// writeReportCSV writes matches first, then exceptions, one row each.
func writeReportCSV(w io.Writer, report *domain.ReconciliationReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}

	for _, m := range report.Matches {
		row := []string{"MATCH", string(m.Kind), m.Intake.ConsumerID, string(m.Intake.PaymentMode)}
		row = append(row, recordCols(m.Intake)...)
		row = append(row, recordCols(m.Posting)...)
		row = append(row,
			strconv.FormatFloat(m.Score, 'f', 4, 64),
			strconv.Itoa(m.DateDifferenceDays),
			"", "",
			strings.Join(m.Reasons, "; "),
		)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write match row: %w", err)
		}
	}

	for _, e := range report.Exceptions {
		row := []string{"EXCEPTION", string(e.Direction), e.Record.ConsumerID, string(e.Record.PaymentMode)}
		if e.Direction == domain.IntakeOnly {
			row = append(row, recordCols(e.Record)...)
			row = append(row, "", "", "")
		} else {
			row = append(row, "", "", "")
			row = append(row, recordCols(e.Record)...)
		}
		row = append(row,
			"", "",
			strconv.FormatBool(e.RequiresAction),
			strconv.Itoa(e.AgeDays),
			"",
		)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write exception row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func recordCols(r *domain.PaymentRecord) []string {
	return []string{r.ExternalRef, r.Amount.StringFixed(2), r.EventDate.Format(dayLayout)}
}
