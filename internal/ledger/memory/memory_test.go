package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"salesledger/internal/core"
	"salesledger/internal/ledger"
)

const sampleCSV = `Date,Amount,Account Name,Customer,Location,Company,Original Currency (CAD)
2023-01-15,"1,200.50",Widgets,Acme Corp,Toronto,Fangtooth Technologies Inc.,CAD
2023-02-01,(50),Widgets,Acme Corp,Toronto,Fangtooth Technologies Inc.,CAD
not-a-date,10,Gadgets,Other,Vancouver,Fangtooth Technologies Inc.,USD
,,,,,,
2023-03-31 00:00:00,99.99,,Other,Vancouver,Fangtooth Technologies Inc.,USD
`

func TestReadCSV(t *testing.T) {
	txs, err := ReadCSV(context.Background(), strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("got %d transactions, want 3: %+v", len(txs), txs)
	}
	first := txs[0]
	if !first.Date.Equal(core.NewDate(2023, time.January, 15).Time) ||
		!first.Amount.Equal(decimal.RequireFromString("1200.50")) ||
		first.Product != "Widgets" || first.Currency != "CAD" || first.Company != "Fangtooth Technologies Inc." {
		t.Fatalf("unexpected first transaction %+v", first)
	}
	if !txs[1].Amount.Equal(decimal.NewFromInt(-50)) {
		t.Fatalf("parenthesised amount should be negative, got %s", txs[1].Amount)
	}
	if txs[2].Product != "" {
		t.Fatalf("blank product rows are kept for the aggregator to count")
	}
}

func TestReadCSVMissingHeader(t *testing.T) {
	_, err := ReadCSV(context.Background(), strings.NewReader("When,How much\n2023-01-01,1\n"))
	if err == nil || !strings.Contains(err.Error(), "missing Date,Amount,Account Name") {
		t.Fatalf("expected header error, got %v", err)
	}
}

func TestStoreFromFileReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.csv")
	mustWrite := func(content string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	mustWrite(sampleCSV)
	s := NewFromFile(path)
	txs, err := s.LoadTransactions(context.Background())
	if err != nil || len(txs) != 3 {
		t.Fatalf("first load: %d %v", len(txs), err)
	}

	mustWrite("Date,Amount,Account Name\n2024-01-01,1,Widgets\n")
	txs, err = s.LoadTransactions(context.Background())
	if err != nil || len(txs) != 1 {
		t.Fatalf("second load: %d %v", len(txs), err)
	}
}

func TestStoreReplace(t *testing.T) {
	s := New(nil)
	in := []core.Transaction{{Date: core.NewDate(2023, 1, 1), Product: "P", Amount: decimal.NewFromInt(1)}}
	if err := s.ReplaceTransactions(context.Background(), ledger.Batch{ID: "batch-1", Source: "test"}, in); err != nil {
		t.Fatalf("replace: %v", err)
	}
	in[0].Product = "mutated"
	got, _ := s.LoadTransactions(context.Background())
	if len(got) != 1 || got[0].Product != "P" || s.Batch().ID != "batch-1" || s.Batch().Rows != 1 {
		t.Fatalf("unexpected store state %+v %+v", got, s.Batch())
	}
}

func TestMissingFile(t *testing.T) {
	if _, err := NewFromFile(filepath.Join(t.TempDir(), "nope.csv")).LoadTransactions(context.Background()); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
