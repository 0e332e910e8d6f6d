package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"salesledger/internal/core"
	"salesledger/internal/ledger"

	_ "modernc.org/sqlite"
)

// Ensure interface conformance
var (
	_ ledger.Source = (*SQLiteRepository)(nil)
	_ ledger.Writer = (*SQLiteRepository)(nil)
)

// ErrNoBatch is returned when nothing has been imported yet.
var ErrNoBatch = errors.New("no ledger import found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReplaceTransactions implements ledger.Writer. The batch becomes the current
// ledger and rows of older batches are removed in the same transaction.
func (r *SQLiteRepository) ReplaceTransactions(ctx context.Context, batch ledger.Batch, txs []core.Transaction) error {
	if batch.ID == "" {
		return errors.New("batch id is required")
	}
	if batch.ImportedAt.IsZero() {
		batch.ImportedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO import_batches (id, source, row_count, imported_at) VALUES (?, ?, ?, ?)`,
		batch.ID, batch.Source, len(txs), batch.ImportedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("insert import batch: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE batch_id <> ?`, batch.ID); err != nil {
		return fmt.Errorf("delete previous transactions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO transactions
		(batch_id, position, txn_date, amount, product, customer, location, company, currency)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range txs {
		if _, err := stmt.ExecContext(ctx, batch.ID, i, t.Date.String(), t.Amount.String(),
			t.Product, t.Customer, t.Location, t.Company, t.Currency); err != nil {
			return fmt.Errorf("insert transaction %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Ledger batch saved to SQLite",
		"batch_id", batch.ID,
		"source", batch.Source,
		"rows", len(txs))
	return nil
}

// LatestBatch returns the most recent import.
func (r *SQLiteRepository) LatestBatch(ctx context.Context) (ledger.Batch, error) {
	var (
		b          ledger.Batch
		importedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, source, row_count, imported_at FROM import_batches
		 ORDER BY imported_at DESC, rowid DESC LIMIT 1`).
		Scan(&b.ID, &b.Source, &b.Rows, &importedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Batch{}, ErrNoBatch
	}
	if err != nil {
		return ledger.Batch{}, fmt.Errorf("get latest batch: %w", err)
	}
	if t, perr := time.Parse(time.RFC3339Nano, importedAt); perr == nil {
		b.ImportedAt = t
	}
	return b, nil
}

// LoadTransactions implements ledger.Source. It returns the rows of the
// latest batch in import order, or an empty ledger before the first import.
func (r *SQLiteRepository) LoadTransactions(ctx context.Context) ([]core.Transaction, error) {
	batch, err := r.LatestBatch(ctx)
	if errors.Is(err, ErrNoBatch) {
		slog.WarnContext(ctx, "SQLite ledger is empty, no import batch found")
		return []core.Transaction{}, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT txn_date, amount, product, customer, location, company, currency
		FROM transactions WHERE batch_id = ? ORDER BY position`, batch.ID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0, batch.Rows)
	for rows.Next() {
		var (
			t            core.Transaction
			date, amount string
		)
		if err := rows.Scan(&date, &amount, &t.Product, &t.Customer, &t.Location, &t.Company, &t.Currency); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("stored date %q: %w", date, err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("stored amount %q: %w", amount, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}
