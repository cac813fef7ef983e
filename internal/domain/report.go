package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type MatchKind string

const (
	MatchExact MatchKind = "EXACT"
	MatchFuzzy MatchKind = "FUZZY"
)

// MatchResult pairs one intake record with one posting record. The records
// are shared with the input sets, not copied.
type MatchResult struct {
	Kind               MatchKind      `json:"kind"`
	Intake             *PaymentRecord `json:"intake_record"`
	Posting            *PaymentRecord `json:"posting_record"`
	Score              float64        `json:"score"`
	DateDifferenceDays int            `json:"date_difference_days"`
	Reasons            []string       `json:"reasons,omitempty"`
}

type ExceptionDirection string

const (
	IntakeOnly  ExceptionDirection = "INTAKE_ONLY"
	PostingOnly ExceptionDirection = "POSTING_ONLY"
)

type Exception struct {
	Direction      ExceptionDirection `json:"direction"`
	Record         *PaymentRecord     `json:"record"`
	RequiresAction bool               `json:"requires_action"`
	AgeDays        int                `json:"age_days"`
}

// Summary holds the top-level totals and KPIs of a reconciliation.
type Summary struct {
	TotalIntakeCount         int             `json:"total_intake_count"`
	TotalIntakeAmount        decimal.Decimal `json:"total_intake_amount"`
	TotalPostingCount        int             `json:"total_posting_count"`
	TotalPostingAmount       decimal.Decimal `json:"total_posting_amount"`
	MatchedCount             int             `json:"matched_count"`
	ExactMatchCount          int             `json:"exact_match_count"`
	FuzzyMatchCount          int             `json:"fuzzy_match_count"`
	MatchedAmount            decimal.Decimal `json:"matched_amount"`
	UnmatchedIntakeCount     int             `json:"unmatched_intake_count"`
	UnmatchedIntakeAmount    decimal.Decimal `json:"unmatched_intake_amount"`
	UnmatchedPostingCount    int             `json:"unmatched_posting_count"`
	UnmatchedPostingAmount   decimal.Decimal `json:"unmatched_posting_amount"`
	Variance                 decimal.Decimal `json:"variance"`
	ReconciliationEfficiency float64         `json:"reconciliation_efficiency"`
	AmountReconciliationRate float64         `json:"amount_reconciliation_rate"`
	CriticalExceptionCount   int             `json:"critical_exception_count"`
	AvgSettlementDays        float64         `json:"avg_settlement_days"`
}

// ModeBreakdown mirrors Summary for a single payment mode.
type ModeBreakdown struct {
	Mode                     PaymentMode     `json:"payment_mode"`
	IntakeCount              int             `json:"intake_count"`
	IntakeAmount             decimal.Decimal `json:"intake_amount"`
	PostingCount             int             `json:"posting_count"`
	PostingAmount            decimal.Decimal `json:"posting_amount"`
	MatchedCount             int             `json:"matched_count"`
	MatchedAmount            decimal.Decimal `json:"matched_amount"`
	UnmatchedIntakeCount     int             `json:"unmatched_intake_count"`
	UnmatchedPostingCount    int             `json:"unmatched_posting_count"`
	Variance                 decimal.Decimal `json:"variance"`
	ReconciliationEfficiency float64         `json:"reconciliation_efficiency"`
}

// ReconciliationReport is the full output of one reconciliation pass.
type ReconciliationReport struct {
	RunID       string          `json:"run_id,omitempty"`
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	EvaluatedAt time.Time       `json:"evaluated_at"`
	Summary     Summary         `json:"summary"`
	ByMode      []ModeBreakdown `json:"by_payment_mode"`
	Matches     []MatchResult   `json:"matches"`
	Exceptions  []Exception     `json:"exceptions"`
}
