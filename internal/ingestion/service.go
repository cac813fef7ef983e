package ingestion

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/billrecon/reconciler/internal/domain"
	"github.com/billrecon/reconciler/internal/repository"
)

// Supported import formats.
const (
	FormatBankCSV     = "bank_csv"
	FormatMPayPipe    = "mpay_pipe"
	FormatBillingJSON = "billing_json"
)

// AlreadyIngested is the batch id reported for a file whose hash was seen
// before.
const AlreadyIngested = "already-ingested"

// IngestResult is returned from a successful import.
type IngestResult struct {
	BatchID           string `json:"batch_id"`
	Source            string `json:"source"`
	Format            string `json:"format"`
	RecordsIngested   int    `json:"records_ingested"`
	DuplicatesSkipped int    `json:"duplicates_skipped"`
}

// Service imports ledger files into the intake and posting tables.
type Service struct {
	batches *repository.BatchRepo
	intake  *repository.IntakeRepo
	posting *repository.PostingRepo
	logger  *slog.Logger
}

// NewService creates a new ingestion service.
func NewService(
	batches *repository.BatchRepo,
	intake *repository.IntakeRepo,
	posting *repository.PostingRepo,
	logger *slog.Logger,
) *Service {
	return &Service{
		batches: batches,
		intake:  intake,
		posting: posting,
		logger:  logger.With("component", "ingestion"),
	}
}

// IngestFile parses an uploaded file and stores its rows. Importing the same
// bytes twice is a no-op; rows whose transaction id is already stored are
// counted as duplicates.
//
// format must be one of: bank_csv, mpay_pipe (intake) or billing_json (posting).
func (s *Service) IngestFile(ctx context.Context, data []byte, source domain.SourceSystem, format string) (*IngestResult, error) {
	if err := checkFormat(source, format); err != nil {
		return nil, err
	}

	// Idempotency check via file hash.
	hash := fmt.Sprintf("%x", sha256.Sum256(data))
	exists, err := s.batches.ExistsByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("check hash: %w", err)
	}
	if exists {
		s.logger.Info("file already ingested", "hash", hash[:12], "format", format)
		return &IngestResult{BatchID: AlreadyIngested, Source: string(source), Format: format}, nil
	}

	batch := &domain.ImportBatch{
		ID:         uuid.NewString(),
		Source:     source,
		Format:     format,
		FileHash:   hash,
		ImportedAt: time.Now(),
	}
	batchID := batch.ID
	var parsed, inserted int

	switch format {
	case FormatBankCSV, FormatMPayPipe:
		var rows []domain.IntakeRow
		if format == FormatBankCSV {
			rows, err = ParseBankCSV(data)
		} else {
			rows, err = ParseMPayPipe(data)
		}
		if err != nil {
			return nil, domain.Invalid("file", "parse %s: %v", format, err)
		}
		parsed = len(rows)
		batch.RecordCount = parsed
		inserted, err = s.intake.BulkInsert(ctx, rows, batch)
	case FormatBillingJSON:
		var rows []domain.PostingRow
		var exportID string
		rows, exportID, err = ParseBillingJSON(data)
		if err != nil {
			return nil, domain.Invalid("file", "parse %s: %v", format, err)
		}
		if exportID != "" {
			s.logger.Debug("billing export", "export_id", exportID, "batch_id", batchID)
		}
		parsed = len(rows)
		batch.RecordCount = parsed
		inserted, err = s.posting.BulkInsert(ctx, rows, batch)
	}
	if errors.Is(err, repository.ErrBatchExists) {
		// Lost a race with a concurrent upload of the same file.
		s.logger.Info("file already ingested", "hash", hash[:12], "format", format)
		return &IngestResult{BatchID: AlreadyIngested, Source: string(source), Format: format}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("insert rows: %w", err)
	}

	s.logger.Info("file ingested",
		"batch_id", batchID,
		"source", source,
		"format", format,
		"records", parsed,
		"new", inserted)

	return &IngestResult{
		BatchID:           batchID,
		Source:            string(source),
		Format:            format,
		RecordsIngested:   inserted,
		DuplicatesSkipped: parsed - inserted,
	}, nil
}

// Batches lists recent imports, newest first.
func (s *Service) Batches(ctx context.Context, limit int) ([]domain.ImportBatch, error) {
	return s.batches.List(ctx, limit)
}

func checkFormat(source domain.SourceSystem, format string) error {
	switch source {
	case domain.SourceIntake:
		if format == FormatBankCSV || format == FormatMPayPipe {
			return nil
		}
	case domain.SourcePosting:
		if format == FormatBillingJSON {
			return nil
		}
	default:
		return domain.Invalid("source", "unknown source %q", source)
	}
	return domain.Invalid("format", "unsupported format %q for %s", format, source)
}

// ParseSource maps a request parameter to a source system.
func ParseSource(s string) (domain.SourceSystem, error) {
	switch domain.SourceSystem(strings.ToUpper(strings.TrimSpace(s))) {
	case domain.SourceIntake:
		return domain.SourceIntake, nil
	case domain.SourcePosting:
		return domain.SourcePosting, nil
	}
	return "", domain.Invalid("source", "must be intake or posting, got %q", s)
}
