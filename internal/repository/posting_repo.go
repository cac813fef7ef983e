package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/billrecon/reconciler/internal/domain"
)

// PostingRepo stores payments as posted to consumer accounts by billing.
type PostingRepo struct {
	db *sql.DB
}

func NewPostingRepo(db *sql.DB) *PostingRepo {
	return &PostingRepo{db: db}
}

// BulkInsert behaves like IntakeRepo.BulkInsert.
func (r *PostingRepo) BulkInsert(ctx context.Context, rows []domain.PostingRow, batch *domain.ImportBatch) (int, error) {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	if batch != nil {
		if err := insertBatch(ctx, sqlTx, batch); err != nil {
			return 0, err
		}
	}

	stmt, err := sqlTx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO posted_payments
		(transaction_reference, consumer_id, payment_channel, amount_paid,
		 posting_date, posting_status, bill_month, batch_id)
		VALUES (?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range rows {
		row := &rows[i]
		res, err := stmt.ExecContext(ctx,
			row.TransactionRef, row.ConsumerID, row.PaymentChannel, row.AmountPaid,
			row.PostingDate, row.PostingStatus, row.BillMonth, batchID(batch),
		)
		if err != nil {
			return 0, fmt.Errorf("insert row %d: %w", i, err)
		}
		ra, _ := res.RowsAffected()
		inserted += int(ra)
	}

	if err := sqlTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (r *PostingRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posted_payments").Scan(&count)
	return count, err
}

// FetchPayments returns every posting row dated within the query range.
func (r *PostingRepo) FetchPayments(ctx context.Context, q domain.FetchQuery) ([]domain.PostingRow, error) {
	where, args := rangeWhere("posting_date", "payment_channel", q)
	rows, err := r.db.QueryContext(ctx,
		postingSelect+where+" ORDER BY substr(posting_date, 1, 10), consumer_id, rowid", args...)
	if err != nil {
		return nil, fmt.Errorf("query postings: %w", err)
	}
	defer rows.Close()
	return scanPostingRows(rows)
}

func (r *PostingRepo) List(ctx context.Context, f ListFilter) ([]domain.PostingRow, int, error) {
	where, args := rangeWhere("posting_date", "payment_channel", f.query())

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posted_payments"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	f.normalize()
	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	rows, err := r.db.QueryContext(ctx,
		postingSelect+where+" ORDER BY posting_date DESC, rowid DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	out, err := scanPostingRows(rows)
	return out, total, err
}

const postingSelect = `SELECT transaction_reference, consumer_id, payment_channel, amount_paid,
	posting_date, posting_status, bill_month FROM posted_payments`

func scanPostingRows(rows *sql.Rows) ([]domain.PostingRow, error) {
	var out []domain.PostingRow
	for rows.Next() {
		var row domain.PostingRow
		if err := rows.Scan(
			&row.TransactionRef, &row.ConsumerID, &row.PaymentChannel, &row.AmountPaid,
			&row.PostingDate, &row.PostingStatus, &row.BillMonth,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
