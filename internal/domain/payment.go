package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMode string

const (
	ModeBankCounter       PaymentMode = "BANK_COUNTER"
	ModeBillSahuliyatPlus PaymentMode = "BILLSAHULIYAT_PLUS"
	ModeSmartBS           PaymentMode = "SMART_BS"
	ModeJKBankMPay        PaymentMode = "JK_BANK_MPAY"
	ModeBBPS              PaymentMode = "BBPS"
	ModePOSMachines       PaymentMode = "POS_MACHINES"
)

// PaymentModes is the fixed reporting order of every payment channel.
var PaymentModes = []PaymentMode{
	ModeBankCounter,
	ModeBillSahuliyatPlus,
	ModeSmartBS,
	ModeJKBankMPay,
	ModeBBPS,
	ModePOSMachines,
}

// ParsePaymentMode accepts the canonical name in any case, with spaces or
// hyphens in place of underscores.
func ParsePaymentMode(s string) (PaymentMode, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for _, m := range PaymentModes {
		if string(m) == norm {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown payment mode %q", s)
}

// SettlementDays is the expected T+n delay between intake and posting.
func (m PaymentMode) SettlementDays() int {
	if m == ModeBankCounter {
		return 0
	}
	return 1
}

// SettlementAllowance is the age in days an intake-only record may reach
// before it needs action.
func (m PaymentMode) SettlementAllowance() int {
	if m == ModeBankCounter {
		return 1
	}
	return 2
}

type SourceSystem string

const (
	SourceIntake  SourceSystem = "INTAKE"
	SourcePosting SourceSystem = "POSTING"
)

// PaymentRecord is the normalized shape shared by both ledgers. Records are
// never modified once the normalizer has produced them.
type PaymentRecord struct {
	ConsumerID   string          `json:"consumer_id"`
	PaymentMode  PaymentMode     `json:"payment_mode"`
	Amount       decimal.Decimal `json:"amount"`
	ExternalRef  string          `json:"external_ref"`
	EventDate    time.Time       `json:"event_date"`
	SourceSystem SourceSystem    `json:"source_system"`
	Status       string          `json:"status"`
}

// DaysBetween returns b - a in whole days. Both dates are expected to be
// truncated to midnight UTC.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}

// IST is the zone payment dates are recorded in.
var IST = time.FixedZone("IST", 5*3600+1800)

// CalendarDay returns the calendar date t has in its own zone, as midnight UTC.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TruncateDay drops the clock part of t, keeping the calendar date it has in UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FetchQuery selects rows from either ledger. Both bounds are inclusive days.
type FetchQuery struct {
	From time.Time
	To   time.Time
	Mode *PaymentMode
}
