package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/billrecon/reconciler/internal/domain"
)

// BatchRepo tracks imported files.
type BatchRepo struct {
	db *sql.DB
}

func NewBatchRepo(db *sql.DB) *BatchRepo {
	return &BatchRepo{db: db}
}

// ExistsByHash checks whether a file with the given hash has already been
// imported.
func (r *BatchRepo) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM import_batches WHERE file_hash = ?", hash,
	).Scan(&count)
	return count > 0, err
}

// ErrBatchExists is returned when a batch with the same file hash is
// already stored.
var ErrBatchExists = errors.New("batch already imported")

// insertBatch writes b inside tx. A stored batch with the same file hash
// makes it fail with ErrBatchExists.
func insertBatch(ctx context.Context, tx *sql.Tx, b *domain.ImportBatch) error {
	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO import_batches (id, source, format, file_hash, record_count, imported_at)
		VALUES (?,?,?,?,?,?)`,
		b.ID, string(b.Source), b.Format, b.FileHash, b.RecordCount,
		b.ImportedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBatchExists
	}
	return nil
}

func batchID(b *domain.ImportBatch) any {
	if b == nil {
		return nil
	}
	return nullable(b.ID)
}

// List returns the most recent imports first.
func (r *BatchRepo) List(ctx context.Context, limit int) ([]domain.ImportBatch, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, source, format, file_hash, record_count, imported_at
		FROM import_batches ORDER BY imported_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var out []domain.ImportBatch
	for rows.Next() {
		var b domain.ImportBatch
		var source, importedAt string
		if err := rows.Scan(&b.ID, &source, &b.Format, &b.FileHash, &b.RecordCount, &importedAt); err != nil {
			return nil, err
		}
		b.Source = domain.SourceSystem(source)
		b.ImportedAt, _ = time.Parse(time.RFC3339, importedAt)
		out = append(out, b)
	}
	return out, rows.Err()
}
