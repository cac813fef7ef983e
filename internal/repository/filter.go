package repository

import (
	"strings"
	"time"

	"github.com/billrecon/reconciler/internal/domain"
)

const dayLayout = "2006-01-02"

// ListFilter narrows a paged listing of either ledger.
type ListFilter struct {
	From  *time.Time
	To    *time.Time
	Mode  *domain.PaymentMode
	Page  int
	Limit int
}

func (f ListFilter) query() domain.FetchQuery {
	var q domain.FetchQuery
	if f.From != nil {
		q.From = *f.From
	}
	if f.To != nil {
		q.To = *f.To
	}
	q.Mode = f.Mode
	return q
}

func (f *ListFilter) normalize() {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
}

// rangeWhere builds the WHERE clause shared by both ledgers. Dates are
// compared on their first ten characters so stored timestamps and plain
// dates filter the same way; modes are compared in canonical form.
func rangeWhere(dateCol, modeCol string, q domain.FetchQuery) (string, []any) {
	var clauses []string
	var args []any

	if !q.From.IsZero() {
		clauses = append(clauses, "substr("+dateCol+", 1, 10) >= ?")
		args = append(args, q.From.Format(dayLayout))
	}
	if !q.To.IsZero() {
		clauses = append(clauses, "substr("+dateCol+", 1, 10) <= ?")
		args = append(args, q.To.Format(dayLayout))
	}
	if q.Mode != nil {
		clauses = append(clauses,
			"REPLACE(REPLACE(UPPER(TRIM("+modeCol+")), ' ', '_'), '-', '_') = ?")
		args = append(args, string(*q.Mode))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
