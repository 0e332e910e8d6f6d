package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"salesledger/internal/amqp"
	"salesledger/internal/ledger"
)

// Reloader rebuilds the in-memory ledger snapshot.
type Reloader interface {
	Reload(ctx context.Context) (*ledger.Snapshot, error)
}

// Consumer delivers reload notifications and can re-establish its broker link.
type Consumer interface {
	ConsumeLedgerReload(ctx context.Context, handler func(context.Context, *amqp.LedgerReloadMessage) error) error
	Reconnect() error
}

// ReloadWorker swaps the published snapshot whenever a new import batch is
// announced on the queue.
type ReloadWorker struct {
	reloader Reloader
	consumer Consumer
	sleep    func(context.Context, time.Duration) error

	mu        sync.Mutex
	lastBatch string
}

func NewReloadWorker(reloader Reloader, consumer Consumer) *ReloadWorker {
	return &ReloadWorker{
		reloader: reloader,
		consumer: consumer,
		sleep:    sleepContext,
	}
}

// HandleReloadMessage reloads the snapshot for a new batch. Redelivery of the
// batch that is already loaded is a no-op.
func (w *ReloadWorker) HandleReloadMessage(ctx context.Context, msg *amqp.LedgerReloadMessage) error {
	w.mu.Lock()
	seen := msg.BatchID == w.lastBatch
	w.mu.Unlock()
	if seen {
		slog.InfoContext(ctx, "Batch already loaded, skipping reload", "batch_id", msg.BatchID)
		return nil
	}

	snap, err := w.reloader.Reload(ctx)
	if err != nil {
		return fmt.Errorf("reload ledger for batch %s: %w", msg.BatchID, err)
	}

	w.mu.Lock()
	w.lastBatch = msg.BatchID
	w.mu.Unlock()

	slog.InfoContext(ctx, "Ledger reloaded from import batch",
		"batch_id", msg.BatchID,
		"source", msg.Source,
		"snapshot_version", snap.Version(),
		"records", snap.Len())
	return nil
}

// Run consumes until ctx is done, reconnecting with backoff when the broker
// connection drops.
func (w *ReloadWorker) Run(ctx context.Context) error {
	attempt := 0
	for {
		err := w.consumer.ConsumeLedgerReload(ctx, w.HandleReloadMessage)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil || !amqp.IsConnectionError(err) {
			return err
		}

		delay := amqp.ExponentialBackoff(attempt)
		slog.WarnContext(ctx, "AMQP connection lost, reconnecting",
			"error", err,
			"attempt", attempt+1,
			"delay", delay)
		if err := w.sleep(ctx, delay); err != nil {
			return nil
		}

		if rerr := w.consumer.Reconnect(); rerr != nil {
			slog.ErrorContext(ctx, "AMQP reconnect failed", "error", rerr)
			attempt++
			continue
		}
		attempt = 0
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
