package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"salesledger/internal/amqp"
	"salesledger/internal/core"
	"salesledger/internal/ledger"
)

type countingReloader struct {
	calls int
	err   error
}

func (r *countingReloader) Reload(context.Context) (*ledger.Snapshot, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return ledger.NewSnapshot(uint64(r.calls), time.Now(), []core.Transaction{}), nil
}

type scriptedConsumer struct {
	errs       []error
	msgs       []*amqp.LedgerReloadMessage
	consumed   int
	reconnects int
}

func (c *scriptedConsumer) ConsumeLedgerReload(ctx context.Context, h func(context.Context, *amqp.LedgerReloadMessage) error) error {
	for _, m := range c.msgs {
		if err := h(ctx, m); err != nil {
			return err
		}
	}
	c.msgs = nil
	i := c.consumed
	c.consumed++
	if i < len(c.errs) {
		return c.errs[i]
	}
	return nil
}

func (c *scriptedConsumer) Reconnect() error {
	c.reconnects++
	return nil
}

func TestHandleReloadMessage_DeduplicatesBatch(t *testing.T) {
	r := &countingReloader{}
	w := NewReloadWorker(r, &scriptedConsumer{})
	ctx := context.Background()

	for _, id := range []string{"a", "a", "b"} {
		if err := w.HandleReloadMessage(ctx, amqp.NewLedgerReloadMessage(id, "csv", 1)); err != nil {
			t.Fatalf("handle %s: %v", id, err)
		}
	}
	if r.calls != 2 {
		t.Fatalf("expected 2 reloads, got %d", r.calls)
	}
}

func TestHandleReloadMessage_FailureAllowsRetry(t *testing.T) {
	r := &countingReloader{err: errors.New("db down")}
	w := NewReloadWorker(r, &scriptedConsumer{})
	msg := amqp.NewLedgerReloadMessage("a", "csv", 1)

	if err := w.HandleReloadMessage(context.Background(), msg); err == nil {
		t.Fatal("expected error")
	}
	r.err = nil
	if err := w.HandleReloadMessage(context.Background(), msg); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if r.calls != 2 {
		t.Fatalf("failed batch must be retried, calls=%d", r.calls)
	}
}

func TestRun_ReconnectsOnConnectionError(t *testing.T) {
	c := &scriptedConsumer{
		errs: []error{amqp.ErrConsumerClosed, errors.New("fatal: access refused")},
		msgs: []*amqp.LedgerReloadMessage{amqp.NewLedgerReloadMessage("x", "csv", 3)},
	}
	r := &countingReloader{}
	w := NewReloadWorker(r, c)
	var slept []time.Duration
	w.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	err := w.Run(context.Background())
	if err == nil || err.Error() != "fatal: access refused" {
		t.Fatalf("expected non-connection error to stop the worker, got %v", err)
	}
	if c.reconnects != 1 || len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("reconnects=%d slept=%v", c.reconnects, slept)
	}
	if r.calls != 1 {
		t.Fatalf("expected message to trigger reload, calls=%d", r.calls)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &scriptedConsumer{errs: []error{context.Canceled}}
	if err := NewReloadWorker(&countingReloader{}, c).Run(ctx); err != nil {
		t.Fatalf("cancelled run should return nil, got %v", err)
	}
}
