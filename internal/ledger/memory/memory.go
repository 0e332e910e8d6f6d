package memory

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"

	"salesledger/internal/core"
	"salesledger/internal/ledger"
)

// Ensure interface conformance
var (
	_ ledger.Source = (*Store)(nil)
	_ ledger.Writer = (*Store)(nil)
)

// Store keeps the ledger in memory, optionally seeded from a CSV export.
type Store struct {
	mu      sync.Mutex
	path    string
	batch   ledger.Batch
	items   []core.Transaction
}

func New(txs []core.Transaction) *Store {
	return &Store{items: slices.Clone(txs)}
}

// NewFromFile creates a store backed by a CSV ledger export. The file is
// re-read on every load so a reload picks up edits.
func NewFromFile(path string) *Store {
	return &Store{path: path}
}

// LoadTransactions returns a copy of the stored ledger.
func (s *Store) LoadTransactions(ctx context.Context) ([]core.Transaction, error) {
	if s.path != "" {
		txs, err := ReadCSVFile(ctx, s.path)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.items = txs
		s.mu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items), nil
}

// ReplaceTransactions swaps the in-memory ledger.
func (s *Store) ReplaceTransactions(_ context.Context, batch ledger.Batch, txs []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch.Rows = len(txs)
	s.batch = batch
	s.items = slices.Clone(txs)
	return nil
}

// Batch returns the last replaced batch.
func (s *Store) Batch() ledger.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batch
}

// ReadCSVFile parses a header-first CSV ledger export.
func ReadCSVFile(ctx context.Context, path string) ([]core.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()
	return ReadCSV(ctx, f)
}

// ReadCSV parses a header-first CSV ledger.
func ReadCSV(ctx context.Context, r io.Reader) ([]core.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	values, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read ledger csv: %w", err)
	}
	txs, stats, err := ledger.ParseRows(values)
	if err != nil {
		return nil, err
	}
	if stats.InvalidRows > 0 {
		slog.WarnContext(ctx, "Dropped unparseable ledger rows",
			"invalid_rows", stats.InvalidRows,
			"rows", stats.Rows)
	}
	return txs, nil
}
