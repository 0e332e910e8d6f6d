package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"salesledger/internal/amqp"
	"salesledger/internal/ledger"
)

// ReloadPublisher announces a stored batch to running servers.
type ReloadPublisher interface {
	PublishLedgerReload(ctx context.Context, msg *amqp.LedgerReloadMessage) error
}

// ImportService copies a ledger source into a writable store as one batch
// and notifies consumers.
type ImportService struct {
	writer    ledger.Writer
	publisher ReloadPublisher
	now       func() time.Time
	newID     func() string
}

// NewImportService accepts a nil publisher when notifications are disabled.
func NewImportService(writer ledger.Writer, publisher ReloadPublisher) *ImportService {
	return &ImportService{
		writer:    writer,
		publisher: publisher,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// Import loads every record from source and stores them under a fresh batch
// id. A failed publish is logged, the batch stays stored.
func (s *ImportService) Import(ctx context.Context, source ledger.Source, sourceName string) (ledger.Batch, error) {
	if source == nil {
		return ledger.Batch{}, errors.New("import: source is nil")
	}

	txs, err := source.LoadTransactions(ctx)
	if err != nil {
		return ledger.Batch{}, fmt.Errorf("load source %s: %w", sourceName, err)
	}

	batch := ledger.Batch{
		ID:         s.newID(),
		Source:     sourceName,
		Rows:       len(txs),
		ImportedAt: s.now().UTC(),
	}

	if err := s.writer.ReplaceTransactions(ctx, batch, txs); err != nil {
		return ledger.Batch{}, fmt.Errorf("store batch %s: %w", batch.ID, err)
	}

	slog.InfoContext(ctx, "Ledger batch imported",
		"batch_id", batch.ID,
		"source", sourceName,
		"rows", batch.Rows)

	if err := s.publishReload(ctx, batch); err != nil {
		slog.ErrorContext(ctx, "Failed to publish reload message",
			"batch_id", batch.ID, "error", err)
	}

	return batch, nil
}

func (s *ImportService) publishReload(ctx context.Context, batch ledger.Batch) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping reload message")
		return nil
	}
	return s.publisher.PublishLedgerReload(ctx, amqp.NewLedgerReloadMessage(batch.ID, batch.Source, batch.Rows))
}
