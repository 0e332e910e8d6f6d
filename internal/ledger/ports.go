package ledger

import (
	"context"
	"time"

	"salesledger/internal/core"
)

// Batch identifies one ledger import.
type Batch struct {
	ID         string
	Source     string
	Rows       int
	ImportedAt time.Time
}

// Ports for ledger sources.
type (
	// Source loads the full transaction table.
	Source interface {
		LoadTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	// Writer replaces the stored ledger with a new import batch.
	Writer interface {
		ReplaceTransactions(ctx context.Context, batch Batch, txs []core.Transaction) error
	}
)
