package reconciliation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/billrecon/reconciler/internal/domain"
	"github.com/billrecon/reconciler/internal/ingestion"
)

// IntakeSource yields payments as received from bank imports.
type IntakeSource interface {
	FetchPayments(ctx context.Context, q domain.FetchQuery) ([]domain.IntakeRow, error)
}

// PostingSource yields payments as posted by the billing system.
type PostingSource interface {
	FetchPayments(ctx context.Context, q domain.FetchQuery) ([]domain.PostingRow, error)
}

// Request describes one reconciliation. From and To are inclusive days.
type Request struct {
	From    time.Time
	To      time.Time
	Mode    *domain.PaymentMode
	Options Options
}

func (r Request) validate() error {
	if r.From.IsZero() || r.To.IsZero() {
		return domain.Invalid("date_range", "from and to are required")
	}
	if r.To.Before(r.From) {
		return domain.Invalid("date_range", "from %s is after to %s",
			r.From.Format("2006-01-02"), r.To.Format("2006-01-02"))
	}
	return r.Options.Validate()
}

func (r Request) query() domain.FetchQuery {
	return domain.FetchQuery{From: domain.TruncateDay(r.From), To: domain.TruncateDay(r.To), Mode: r.Mode}
}

// Service fetches both ledgers and runs the engine over them.
type Service struct {
	intake  IntakeSource
	posting PostingSource
	logger  *slog.Logger
}

// NewService creates a new reconciliation service.
func NewService(intake IntakeSource, posting PostingSource, logger *slog.Logger) *Service {
	return &Service{
		intake:  intake,
		posting: posting,
		logger:  logger.With("component", "reconciliation"),
	}
}

// Reconcile fetches both ledgers concurrently and reconciles them. A failed
// fetch aborts the whole call with a DataSourceError; no partial report is
// produced.
func (s *Service) Reconcile(ctx context.Context, req Request) (*domain.ReconciliationReport, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var intakeRows []domain.IntakeRow
	var postingRows []domain.PostingRow
	q := req.query()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.intake.FetchPayments(gctx, q)
		if err != nil {
			return &domain.DataSourceError{Source: domain.SourceIntake, Err: err}
		}
		intakeRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.posting.FetchPayments(gctx, q)
		if err != nil {
			return &domain.DataSourceError{Source: domain.SourcePosting, Err: err}
		}
		postingRows = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("fetch failed", "error", err)
		return nil, err
	}

	return s.ReconcileRows(req, intakeRows, postingRows)
}

// ReconcileRows runs the pipeline over rows the caller already holds, such as
// synthetic data. Rows outside the request's range or mode are ignored.
func (s *Service) ReconcileRows(req Request, intakeRows []domain.IntakeRow, postingRows []domain.PostingRow) (*domain.ReconciliationReport, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	intake, err := ingestion.NormalizeIntake(intakeRows)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	posting, err := ingestion.NormalizePosting(postingRows)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}

	q := req.query()
	intake = inScope(intake, q)
	posting = inScope(posting, q)

	started := time.Now()
	report, err := NewEngine(req.Options).Run(intake, posting)
	if err != nil {
		return nil, err
	}
	report.RunID = uuid.NewString()
	report.From = q.From
	report.To = q.To

	sum := report.Summary
	s.logger.Info("reconciliation complete",
		"run_id", report.RunID,
		"from", q.From.Format("2006-01-02"),
		"to", q.To.Format("2006-01-02"),
		"intake", sum.TotalIntakeCount,
		"posting", sum.TotalPostingCount,
		"exact", sum.ExactMatchCount,
		"fuzzy", sum.FuzzyMatchCount,
		"intake_only", sum.UnmatchedIntakeCount,
		"posting_only", sum.UnmatchedPostingCount,
		"critical", sum.CriticalExceptionCount,
		"elapsed", time.Since(started))

	return report, nil
}

func inScope(records []domain.PaymentRecord, q domain.FetchQuery) []domain.PaymentRecord {
	out := records[:0]
	for _, r := range records {
		if r.EventDate.Before(q.From) || r.EventDate.After(q.To) {
			continue
		}
		if q.Mode != nil && r.PaymentMode != *q.Mode {
			continue
		}
		out = append(out, r)
	}
	return out
}
