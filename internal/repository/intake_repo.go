package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/billrecon/reconciler/internal/domain"
)

// IntakeRepo stores payments as received from bank file imports.
type IntakeRepo struct {
	db *sql.DB
}

func NewIntakeRepo(db *sql.DB) *IntakeRepo {
	return &IntakeRepo{db: db}
}

// BulkInsert stores rows in one transaction, together with batch when it is
// not nil. Rows whose transaction id is already present are skipped; the
// returned count covers new rows only.
func (r *IntakeRepo) BulkInsert(ctx context.Context, rows []domain.IntakeRow, batch *domain.ImportBatch) (int, error) {
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
		`INSERT OR IGNORE INTO intake_payments
		(transaction_id, consumer_id, payment_mode, amount, payment_date, status, bank_name, batch_id)
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
			row.TransactionID, row.ConsumerID, row.PaymentMode, row.Amount,
			row.PaymentDate, row.Status, row.BankName, batchID(batch),
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

func (r *IntakeRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM intake_payments").Scan(&count)
	return count, err
}

// FetchPayments returns every intake row dated within the query range, in
// (date, consumer, insertion) order.
func (r *IntakeRepo) FetchPayments(ctx context.Context, q domain.FetchQuery) ([]domain.IntakeRow, error) {
	where, args := rangeWhere("payment_date", "payment_mode", q)
	rows, err := r.db.QueryContext(ctx,
		intakeSelect+where+" ORDER BY substr(payment_date, 1, 10), consumer_id, rowid", args...)
	if err != nil {
		return nil, fmt.Errorf("query intake: %w", err)
	}
	defer rows.Close()
	return scanIntakeRows(rows)
}

// List pages through intake rows for browsing.
func (r *IntakeRepo) List(ctx context.Context, f ListFilter) ([]domain.IntakeRow, int, error) {
	where, args := rangeWhere("payment_date", "payment_mode", f.query())

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM intake_payments"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	f.normalize()
	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	rows, err := r.db.QueryContext(ctx,
		intakeSelect+where+" ORDER BY payment_date DESC, rowid DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	out, err := scanIntakeRows(rows)
	return out, total, err
}

const intakeSelect = `SELECT transaction_id, consumer_id, payment_mode, amount,
	payment_date, status, bank_name FROM intake_payments`

func scanIntakeRows(rows *sql.Rows) ([]domain.IntakeRow, error) {
	var out []domain.IntakeRow
	for rows.Next() {
		var row domain.IntakeRow
		if err := rows.Scan(
			&row.TransactionID, &row.ConsumerID, &row.PaymentMode, &row.Amount,
			&row.PaymentDate, &row.Status, &row.BankName,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
