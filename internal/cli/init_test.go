package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("SALESLEDGER_TEST_VALUE=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("SALESLEDGER_TEST_VALUE", "")
	os.Unsetenv("SALESLEDGER_TEST_VALUE")

	LoadEnvFile(path)
	if got := os.Getenv("SALESLEDGER_TEST_VALUE"); got != "from-dotenv" {
		t.Fatalf("env = %q, want from-dotenv", got)
	}

	// A missing file is not an error.
	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "ledger.db"))
	t.Setenv("FISCAL_YEAR_END", "03-31")

	cfg, err := LoadAndValidateConfig()
	if err != nil {
		t.Fatalf("LoadAndValidateConfig: %v", err)
	}
	if cfg.DataBackend != "sqlite" {
		t.Errorf("DataBackend = %q", cfg.DataBackend)
	}

	t.Setenv("FISCAL_YEAR_END", "02-29")
	if _, err := LoadAndValidateConfig(); err == nil || !strings.Contains(err.Error(), "FISCAL_YEAR_END") {
		t.Fatalf("expected fiscal year end error, got %v", err)
	}
}

func TestInitSQLite(t *testing.T) {
	logger := SetupLogger("error")
	repo, err := InitSQLite(logger, filepath.Join(t.TempDir(), "data", "ledger.db"))
	if err != nil {
		t.Fatalf("InitSQLite: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestSignalContextStop(t *testing.T) {
	ctx, stop := SignalContext(context.Background(), SetupLogger("error"))
	stop()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled by stop")
	}
}
