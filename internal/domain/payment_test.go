package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaymentMode(t *testing.T) {
	tests := []struct {
		in   string
		want PaymentMode
	}{
		{"BANK_COUNTER", ModeBankCounter},
		{"bank counter", ModeBankCounter},
		{" jk-bank-mpay ", ModeJKBankMPay},
		{"BillSahuliyat_Plus", ModeBillSahuliyatPlus},
		{"bbps", ModeBBPS},
	}
	for _, tt := range tests {
		got, err := ParsePaymentMode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParsePaymentMode("CHEQUE")
	assert.Error(t, err)
}

func TestSettlementAllowance(t *testing.T) {
	assert.Equal(t, 1, ModeBankCounter.SettlementAllowance())
	assert.Equal(t, 0, ModeBankCounter.SettlementDays())
	for _, m := range PaymentModes[1:] {
		assert.Equal(t, 2, m.SettlementAllowance(), m)
		assert.Equal(t, 1, m.SettlementDays(), m)
	}
}

func TestDaysBetween(t *testing.T) {
	d := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysBetween(d, d))
	assert.Equal(t, 2, DaysBetween(d, d.AddDate(0, 0, 2)))
	assert.Equal(t, -1, DaysBetween(d, d.AddDate(0, 0, -1)))
}

func TestTruncateDay(t *testing.T) {
	got := TruncateDay(time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC).In(IST))
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), got)
}

func TestCalendarDay(t *testing.T) {
	at := time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), CalendarDay(at.In(IST)))
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), CalendarDay(at))
}

func TestErrorHelpers(t *testing.T) {
	ve := Invalid("amount", "must be > 0, got %s", "-5")
	assert.Equal(t, "validation: amount: must be > 0, got -5", ve.Error())
	assert.True(t, IsValidation(fmt.Errorf("normalize: %w", ve)))
	assert.False(t, IsDataSource(ve))

	cause := errors.New("connection refused")
	de := &DataSourceError{Source: SourcePosting, Err: cause}
	wrapped := fmt.Errorf("reconcile: %w", de)
	assert.True(t, IsDataSource(wrapped))
	assert.ErrorIs(t, wrapped, cause)
}
