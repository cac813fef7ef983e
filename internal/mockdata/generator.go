// Package mockdata generates reproducible intake and posting ledgers that
// look like a month of utility bill collections: most payments settle on
// time, some never reach billing, some arrive with a rounding drift and a few
// postings have no intake behind them.
package mockdata

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billrecon/reconciler/internal/domain"
)

// Options controls the shape of a generated dataset.
type Options struct {
	Seed      int64
	From      time.Time
	To        time.Time
	PerDay    int // intake payments per day
	Consumers int // size of the consumer pool
}

// Dataset is a pair of raw ledgers.
type Dataset struct {
	Intake  []domain.IntakeRow  `json:"intake"`
	Posting []domain.PostingRow `json:"posting"`
}


var banks = []string{"JK Bank", "HDFC Bank", "SBI", "Axis Bank", "ICICI Bank"}

// Generate builds a dataset for the inclusive day range in opts.
//
// Distribution per intake payment: 4% non-success, 8% never posted, 3% posted
// one paisa off, 1% posted 1% off, the rest posted exactly. Postings land
// on the mode's settlement day, a fifth of them one day later. Every mode
// also gets two orphan postings.
func Generate(opts Options) Dataset {
	if opts.PerDay <= 0 {
		opts.PerDay = 20
	}
	if opts.Consumers <= 0 {
		opts.Consumers = 200
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	from := domain.TruncateDay(opts.From)
	days := domain.DaysBetween(from, domain.TruncateDay(opts.To)) + 1
	if days < 1 {
		return Dataset{}
	}

	var ds Dataset
	seq := 0
	for d := 0; d < days; d++ {
		day := from.AddDate(0, 0, d)
		for i := 0; i < opts.PerDay; i++ {
			seq++
			mode := domain.PaymentModes[rng.Intn(len(domain.PaymentModes))]
			consumer := consumerID(rng.Intn(opts.Consumers))
			amount := billAmount(rng)
			paidAt := day.Add(time.Duration(8+rng.Intn(10))*time.Hour + time.Duration(rng.Intn(60))*time.Minute)

			status := "SUCCESS"
			if rng.Float64() < 0.3 {
				status = "COMPLETED"
			}
			roll := rng.Float64()
			if roll < 0.04 {
				status = "FAILED"
			}

			ds.Intake = append(ds.Intake, domain.IntakeRow{
				TransactionID: fmt.Sprintf("TXN-%s-%06d", modeCode(mode), seq),
				ConsumerID:    consumer,
				PaymentMode:   string(mode),
				Amount:        amount.StringFixed(2),
				PaymentDate:   paidAt.Format("2006-01-02"),
				Status:        status,
				BankName:      banks[rng.Intn(len(banks))],
			})

			if status == "FAILED" || roll >= 0.92 {
				continue
			}

			posted := amount
			switch {
			case roll < 0.07:
				posted = amount.Add(decimal.New(1, -2))
			case roll < 0.08:
				posted = amount.Mul(decimal.RequireFromString("1.01")).Round(2)
			}
			lag := mode.SettlementDays()
			if rng.Float64() < 0.2 {
				lag++
			}
			postedAt := paidAt.AddDate(0, 0, lag).In(domain.IST)

			ds.Posting = append(ds.Posting, domain.PostingRow{
				TransactionRef: fmt.Sprintf("BILL-%07d", seq),
				ConsumerID:     consumer,
				PaymentChannel: string(mode),
				AmountPaid:     posted.StringFixed(2),
				PostingDate:    postedAt.Format(time.RFC3339),
				PostingStatus:  "POSTED",
				BillMonth:      day.AddDate(0, -1, 0).Format("2006-01"),
			})
		}
	}

	for i, mode := range domain.PaymentModes {
		for j := 0; j < 2; j++ {
			day := from.AddDate(0, 0, rng.Intn(days))
			ds.Posting = append(ds.Posting, domain.PostingRow{
				TransactionRef: fmt.Sprintf("ORPH-%d%d-%04d", i, j, rng.Intn(10000)),
				ConsumerID:     consumerID(opts.Consumers + rng.Intn(1000)),
				PaymentChannel: string(mode),
				AmountPaid:     billAmount(rng).StringFixed(2),
				PostingDate:    day.Add(11 * time.Hour).In(domain.IST).Format(time.RFC3339),
				PostingStatus:  "POSTED",
				BillMonth:      day.AddDate(0, -1, 0).Format("2006-01"),
			})
		}
	}

	// A couple of reversed postings that must never be reconciled.
	for i := 0; i < 2 && len(ds.Posting) > 0; i++ {
		src := ds.Posting[rng.Intn(len(ds.Posting))]
		src.TransactionRef = fmt.Sprintf("REV-%04d", i+1)
		src.PostingStatus = "REVERSED"
		ds.Posting = append(ds.Posting, src)
	}

	return ds
}

func consumerID(n int) string {
	return fmt.Sprintf("JKPDD%07d", 1000000+n)
}

// billAmount returns a bill between 150 and 5000 rupees. Two thirds are
// whole rupees, the rest carry paise.
func billAmount(rng *rand.Rand) decimal.Decimal {
	rupees := int64(150 + rng.Intn(4851))
	if rng.Intn(3) > 0 {
		return decimal.NewFromInt(rupees)
	}
	return decimal.New(rupees*100+int64(rng.Intn(100)), -2)
}

func modeCode(m domain.PaymentMode) string {
	switch m {
	case domain.ModeBankCounter:
		return "BC"
	case domain.ModeBillSahuliyatPlus:
		return "BSP"
	case domain.ModeSmartBS:
		return "SBS"
	case domain.ModeJKBankMPay:
		return "MPAY"
	case domain.ModeBBPS:
		return "BBPS"
	case domain.ModePOSMachines:
		return "POS"
	}
	return "OTH"
}
