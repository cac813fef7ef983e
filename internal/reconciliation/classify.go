package reconciliation

import (
	"time"

	"github.com/billrecon/reconciler/internal/domain"
)

// classifyExceptions turns every unclaimed record into an exception:
// intake-only records first, then posting-only records, each in ledger order.
// today is a calendar day in the same form as normalized event dates.
func classifyExceptions(intake, posting *Index, intakeClaims, postingClaims *claims, today time.Time) []domain.Exception {
	var out []domain.Exception

	for _, i := range intakeClaims.remaining() {
		r := intake.Records[i]
		age := ageDays(r.EventDate, today)
		out = append(out, domain.Exception{
			Direction:      domain.IntakeOnly,
			Record:         r,
			RequiresAction: age > r.PaymentMode.SettlementAllowance(),
			AgeDays:        age,
		})
	}

	// A posting with no intake behind it always needs a look.
	for _, i := range postingClaims.remaining() {
		r := posting.Records[i]
		out = append(out, domain.Exception{
			Direction:      domain.PostingOnly,
			Record:         r,
			RequiresAction: true,
			AgeDays:        ageDays(r.EventDate, today),
		})
	}
	return out
}

func ageDays(eventDate, today time.Time) int {
	age := domain.DaysBetween(domain.TruncateDay(eventDate), today)
	if age < 0 {
		return 0
	}
	return age
}
