package reconciliation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billrecon/reconciler/internal/domain"
)

type fakeIntake struct {
	mu    sync.Mutex
	rows  []domain.IntakeRow
	err   error
	query domain.FetchQuery
}

func (f *fakeIntake) FetchPayments(_ context.Context, q domain.FetchQuery) ([]domain.IntakeRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.query = q
	return f.rows, f.err
}

type fakePosting struct {
	rows []domain.PostingRow
	err  error
}

func (f *fakePosting) FetchPayments(_ context.Context, _ domain.FetchQuery) ([]domain.PostingRow, error) {
	return f.rows, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func sampleRows() ([]domain.IntakeRow, []domain.PostingRow) {
	intake := []domain.IntakeRow{
		{TransactionID: "T1", ConsumerID: "C100", PaymentMode: "BBPS", Amount: "1,000.00", PaymentDate: "2024-03-10", Status: "SUCCESS"},
		{TransactionID: "T2", ConsumerID: "C200", PaymentMode: "Bank Counter", Amount: "₹450", PaymentDate: "2024-03-11", Status: "completed"},
		{TransactionID: "T3", ConsumerID: "C300", PaymentMode: "SMART_BS", Amount: "99.00", PaymentDate: "2024-03-11", Status: "FAILED"},
		{TransactionID: "T4", ConsumerID: "C400", PaymentMode: "BBPS", Amount: "10.00", PaymentDate: "2024-04-20", Status: "SUCCESS"},
	}
	posting := []domain.PostingRow{
		{TransactionRef: "R1", ConsumerID: "C100", PaymentChannel: "BBPS", AmountPaid: "1000", PostingDate: "2024-03-11", PostingStatus: "POSTED"},
		{TransactionRef: "R2", ConsumerID: "C200", PaymentChannel: "BANK_COUNTER", AmountPaid: "450.01", PostingDate: "2024-03-11T09:30:00+05:30", PostingStatus: "POSTED"},
		{TransactionRef: "R3", ConsumerID: "C900", PaymentChannel: "POS_MACHINES", AmountPaid: "55.00", PostingDate: "2024-03-12", PostingStatus: "REVERSED"},
	}
	return intake, posting
}

func request() Request {
	opts := DefaultOptions()
	opts.Now = func() time.Time { return day("2024-03-15") }
	return Request{From: day("2024-03-01"), To: day("2024-03-31"), Options: opts}
}

func TestService_Reconcile(t *testing.T) {
	intakeRows, postingRows := sampleRows()
	intake := &fakeIntake{rows: intakeRows}
	svc := NewService(intake, &fakePosting{rows: postingRows}, discardLogger())

	report, err := svc.Reconcile(context.Background(), request())
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, day("2024-03-01"), report.From)
	assert.Equal(t, day("2024-03-31"), report.To)
	assert.Equal(t, day("2024-03-01"), intake.query.From)

	// T3 failed, R3 was reversed and T4 is out of range.
	assert.Equal(t, 2, report.Summary.TotalIntakeCount)
	assert.Equal(t, 2, report.Summary.TotalPostingCount)
	assert.Equal(t, []string{"T1->R1/EXACT", "T2->R2/FUZZY"}, pairs(report.Matches))
	assert.Empty(t, report.Exceptions)
	assert.Equal(t, 100.0, report.Summary.ReconciliationEfficiency)
}

func TestService_RunIDsDiffer(t *testing.T) {
	intakeRows, postingRows := sampleRows()
	svc := NewService(&fakeIntake{rows: intakeRows}, &fakePosting{rows: postingRows}, discardLogger())

	a, err := svc.Reconcile(context.Background(), request())
	require.NoError(t, err)
	b, err := svc.Reconcile(context.Background(), request())
	require.NoError(t, err)

	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, pairs(a.Matches), pairs(b.Matches))
}

func TestService_ModeFilter(t *testing.T) {
	intakeRows, postingRows := sampleRows()
	svc := NewService(&fakeIntake{rows: intakeRows}, &fakePosting{rows: postingRows}, discardLogger())

	req := request()
	mode := domain.ModeBankCounter
	req.Mode = &mode
	report, err := svc.Reconcile(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []string{"T2->R2/FUZZY"}, pairs(report.Matches))
	assert.Equal(t, 1, report.Summary.TotalIntakeCount)
}

func TestService_DataSourceError(t *testing.T) {
	down := errors.New("connection refused")
	svc := NewService(&fakeIntake{}, &fakePosting{err: down}, discardLogger())

	report, err := svc.Reconcile(context.Background(), request())

	assert.Nil(t, report)
	require.Error(t, err)
	assert.True(t, domain.IsDataSource(err))
	assert.ErrorIs(t, err, down)

	var dse *domain.DataSourceError
	require.ErrorAs(t, err, &dse)
	assert.Equal(t, domain.SourcePosting, dse.Source)
}

func TestService_ValidationErrors(t *testing.T) {
	intakeRows, postingRows := sampleRows()

	tests := []struct {
		name   string
		mutate func(*Request)
		rows   func() []domain.IntakeRow
	}{
		{
			name:   "inverted range",
			mutate: func(r *Request) { r.From, r.To = r.To, r.From },
		},
		{
			name:   "missing range",
			mutate: func(r *Request) { r.From = time.Time{} },
		},
		{
			name:   "negative days tolerance",
			mutate: func(r *Request) { r.Options.DaysTolerance = -1 },
		},
		{
			name: "malformed row",
			rows: func() []domain.IntakeRow {
				return append(append([]domain.IntakeRow{}, intakeRows...), domain.IntakeRow{
					TransactionID: "T9", ConsumerID: "C9", PaymentMode: "CHEQUE",
					Amount: "10", PaymentDate: "2024-03-10", Status: "SUCCESS",
				})
			},
		},
		{
			name: "non-positive amount",
			rows: func() []domain.IntakeRow {
				return []domain.IntakeRow{{
					TransactionID: "T9", ConsumerID: "C9", PaymentMode: "BBPS",
					Amount: "0", PaymentDate: "2024-03-10", Status: "SUCCESS",
				}}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := intakeRows
			if tt.rows != nil {
				rows = tt.rows()
			}
			req := request()
			if tt.mutate != nil {
				tt.mutate(&req)
			}
			svc := NewService(&fakeIntake{rows: rows}, &fakePosting{rows: postingRows}, discardLogger())

			report, err := svc.Reconcile(context.Background(), req)

			assert.Nil(t, report)
			assert.True(t, domain.IsValidation(err), "got %v", err)
		})
	}
}

func TestService_ReconcileRowsSameDayRange(t *testing.T) {
	intakeRows, postingRows := sampleRows()
	svc := NewService(nil, nil, discardLogger())

	req := request()
	req.From, req.To = day("2024-03-10"), day("2024-03-10")
	report, err := svc.ReconcileRows(req, intakeRows, postingRows)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.TotalIntakeCount)
	assert.Zero(t, report.Summary.TotalPostingCount)
	require.Len(t, report.Exceptions, 1)
	assert.Equal(t, "T1", report.Exceptions[0].Record.ExternalRef)
	assert.True(t, report.Exceptions[0].RequiresAction, "BBPS aged five days")
}

func TestService_SubPaisaAmountFailsTheRun(t *testing.T) {
	intakeRows, postingRows := sampleRows()
	intakeRows[0].Amount = "999.999"
	svc := NewService(nil, nil, discardLogger())

	report, err := svc.ReconcileRows(request(), intakeRows, postingRows)

	require.Error(t, err)
	assert.Nil(t, report)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "amount", ve.Field)
}
