package storage

import (
	"path/filepath"
	"testing"
)

func TestRunMigrationsIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	version, _, err := SchemaVersion(dbPath)
	if err != nil {
		t.Fatalf("SchemaVersion on fresh db: %v", err)
	}
	if version != 0 {
		t.Fatalf("fresh db version = %d, want 0", version)
	}

	for i := 0; i < 2; i++ {
		if err := RunMigrations(dbPath); err != nil {
			t.Fatalf("RunMigrations pass %d: %v", i+1, err)
		}
	}

	version, dirty, err := SchemaVersion(dbPath)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != 1 || dirty {
		t.Fatalf("version = %d dirty = %v, want 1 clean", version, dirty)
	}
}
