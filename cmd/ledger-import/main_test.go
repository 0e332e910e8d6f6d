package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"salesledger/internal/config"
	"salesledger/internal/log"
	"salesledger/internal/storage"
)

const ledgerCSV = `Date,Amount,Account Name,Customer,Location,Company,Original Currency (CAD)
2023-01-15,100,Widgets,Acme Corp,Toronto,Fangtooth Ltd,CAD
2023-02-01,50,Gadgets,Globex,Vancouver,Fangtooth Ltd,USD
`

func quietLogger() *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel("error")
	return log.New(cfg)
}

func TestRunImportsCSVIntoSQLite(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "ledger.csv")
	if err := os.WriteFile(csvPath, []byte(ledgerCSV), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := &config.Config{LedgerCSVPath: csvPath, SQLiteDBPath: filepath.Join(dir, "ledger.db")}

	batch, err := run(context.Background(), cfg, "csv", false, quietLogger())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if batch.Rows != 2 || batch.ID == "" || !strings.HasPrefix(batch.Source, "csv:") {
		t.Fatalf("unexpected batch %+v", batch)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()
	txs, err := repo.LoadTransactions(context.Background())
	if err != nil || len(txs) != 2 {
		t.Fatalf("stored %d rows, err %v", len(txs), err)
	}
	latest, err := repo.LatestBatch(context.Background())
	if err != nil || latest.ID != batch.ID {
		t.Fatalf("latest batch = %+v, %v", latest, err)
	}
}

func TestOpenSourceErrors(t *testing.T) {
	cfg := &config.Config{LedgerCSVPath: filepath.Join(t.TempDir(), "missing.csv")}
	if _, _, err := openSource(context.Background(), cfg, "csv"); err == nil {
		t.Error("expected error for missing CSV")
	}
	if _, _, err := openSource(context.Background(), cfg, "xlsx"); err == nil {
		t.Error("expected error for unknown source")
	}
}
