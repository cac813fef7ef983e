package reconciliation

import (
	"time"

	"github.com/billrecon/reconciler/internal/currency"
	"github.com/billrecon/reconciler/internal/domain"
)

// compositeKey identifies records that can match exactly. Amount is kept in
// its two-decimal string form so 1000 and 1000.00 share a key.
type compositeKey struct {
	consumerID string
	amount     string
	mode       domain.PaymentMode
}

func keyOf(r *domain.PaymentRecord) compositeKey {
	return compositeKey{
		consumerID: r.ConsumerID,
		amount:     r.Amount.StringFixed(2),
		mode:       r.PaymentMode,
	}
}

// Index holds lookups over one ledger. Every map value is a list of
// positions into Records in insertion order, so claims can be tracked with
// a single array per ledger.
type Index struct {
	Records         []*domain.PaymentRecord
	Exact           map[compositeKey][]int
	ByConsumer      map[string][]int
	ByRoundedAmount map[int64][]int
	ByDate          map[time.Time][]int
}

// BuildIndex indexes records of a single ledger. The records are referenced,
// not copied.
func BuildIndex(records []*domain.PaymentRecord) *Index {
	idx := &Index{
		Records:         records,
		Exact:           make(map[compositeKey][]int),
		ByConsumer:      make(map[string][]int),
		ByRoundedAmount: make(map[int64][]int),
		ByDate:          make(map[time.Time][]int),
	}
	for i, r := range records {
		idx.Exact[keyOf(r)] = append(idx.Exact[keyOf(r)], i)
		idx.ByConsumer[r.ConsumerID] = append(idx.ByConsumer[r.ConsumerID], i)
		b := currency.Bucket(r.Amount)
		idx.ByRoundedAmount[b] = append(idx.ByRoundedAmount[b], i)
		d := domain.TruncateDay(r.EventDate)
		idx.ByDate[d] = append(idx.ByDate[d], i)
	}
	return idx
}

// Len is the number of indexed records.
func (idx *Index) Len() int { return len(idx.Records) }

// nearAmount returns the positions in the bucket of amount and its two
// neighbours, ascending.
func (idx *Index) nearAmount(bucket int64) []int {
	lo, mid, hi := idx.ByRoundedAmount[bucket-1], idx.ByRoundedAmount[bucket], idx.ByRoundedAmount[bucket+1]
	return mergeSorted(mergeSorted(lo, mid), hi)
}

func mergeSorted(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
