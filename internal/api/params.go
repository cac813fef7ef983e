package api

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billrecon/reconciler/internal/domain"
	"github.com/billrecon/reconciler/internal/ingestion"
	"github.com/billrecon/reconciler/internal/reconciliation"
)

const dayLayout = "2006-01-02"

// reconcileBody is the POST /reconciliation payload. Unset tolerances fall
// back to the configured defaults.
type reconcileBody struct {
	From                  string           `json:"from"`
	To                    string           `json:"to"`
	PaymentMode           string           `json:"payment_mode,omitempty"`
	AmountTolerance       *decimal.Decimal `json:"amount_tolerance,omitempty"`
	DaysTolerance         *int             `json:"days_tolerance,omitempty"`
	IncludePartialMatches *bool            `json:"include_partial_matches,omitempty"`
}

func (h *Handlers) requestFromBody(b reconcileBody) (reconciliation.Request, error) {
	from, to, err := h.parseRange(b.From, b.To)
	if err != nil {
		return reconciliation.Request{}, err
	}
	mode, err := parseMode(b.PaymentMode)
	if err != nil {
		return reconciliation.Request{}, err
	}

	opts := h.defaults
	if b.AmountTolerance != nil {
		opts.AmountTolerance = *b.AmountTolerance
	}
	if b.DaysTolerance != nil {
		opts.DaysTolerance = *b.DaysTolerance
	}
	if b.IncludePartialMatches != nil {
		opts.IncludePartialMatches = *b.IncludePartialMatches
	}
	return reconciliation.Request{From: from, To: to, Mode: mode, Options: opts}, nil
}

func (h *Handlers) requestFromQuery(q url.Values) (reconciliation.Request, error) {
	b := reconcileBody{From: q.Get("from"), To: q.Get("to"), PaymentMode: q.Get("payment_mode")}
	if v := q.Get("days_tolerance"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return reconciliation.Request{}, domain.Invalid("days_tolerance", "not an integer: %q", v)
		}
		b.DaysTolerance = &n
	}
	if v := q.Get("amount_tolerance"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return reconciliation.Request{}, domain.Invalid("amount_tolerance", "not a number: %q", v)
		}
		b.AmountTolerance = &d
	}
	if v := q.Get("include_partial_matches"); v != "" {
		p, err := strconv.ParseBool(v)
		if err != nil {
			return reconciliation.Request{}, domain.Invalid("include_partial_matches", "not a boolean: %q", v)
		}
		b.IncludePartialMatches = &p
	}
	return h.requestFromBody(b)
}

// parseRange requires both ends, from <= to and a span within the
// configured maximum.
func (h *Handlers) parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	if fromStr == "" || toStr == "" {
		return time.Time{}, time.Time{}, domain.Invalid("date_range", "from and to are required")
	}
	from, err := ingestion.ParseDate(fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Invalid("from", "%v", err)
	}
	to, err := ingestion.ParseDate(toStr)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Invalid("to", "%v", err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, domain.Invalid("date_range", "from %s is after to %s", fromStr, toStr)
	}
	if span := domain.DaysBetween(from, to); span > h.server.MaxRangeDays {
		return time.Time{}, time.Time{}, domain.Invalid("date_range", "span of %d days exceeds the maximum of %d", span, h.server.MaxRangeDays)
	}
	return from, to, nil
}

// optionalDay parses a day that may be omitted.
func optionalDay(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := ingestion.ParseDate(s)
	if err != nil {
		return nil, domain.Invalid(field, "%v", err)
	}
	return &t, nil
}

func parseMode(s string) (*domain.PaymentMode, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	m, err := domain.ParsePaymentMode(s)
	if err != nil {
		return nil, domain.Invalid("payment_mode", "%v", err)
	}
	return &m, nil
}

func parseDirection(s string) (domain.ExceptionDirection, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "INTAKE_ONLY", "INTAKE":
		return domain.IntakeOnly, nil
	case "POSTING_ONLY", "POSTING":
		return domain.PostingOnly, nil
	}
	return "", domain.Invalid("direction", "must be INTAKE_ONLY or POSTING_ONLY, got %q", s)
}

func parseOptionalBool(field, s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, domain.Invalid(field, "not a boolean: %q", s)
	}
	return &b, nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}
