package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"salesledger/internal/core"
)

// ErrNotLoaded is returned before the first snapshot has been published.
var ErrNotLoaded = errors.New("ledger snapshot not loaded")

// Holder publishes snapshots by atomic pointer swap. Readers always see a
// complete snapshot; a reload never mutates the one in use.
type Holder struct {
	source  Source
	current atomic.Pointer[Snapshot]
	version atomic.Uint64
	group   singleflight.Group
	now     func() time.Time
}

func NewHolder(source Source) *Holder {
	return &Holder{source: source, now: time.Now}
}

// Snapshot returns the current snapshot or ErrNotLoaded.
func (h *Holder) Snapshot() (*Snapshot, error) {
	s := h.current.Load()
	if s == nil {
		return nil, ErrNotLoaded
	}
	return s, nil
}

// Ready reports whether a snapshot has been published.
func (h *Holder) Ready() bool {
	return h.current.Load() != nil
}

// Publish installs txs as the new snapshot.
func (h *Holder) Publish(txs []core.Transaction) *Snapshot {
	s := NewSnapshot(h.version.Add(1), h.now(), txs)
	h.current.Store(s)
	return s
}

// Reload loads the source and publishes the result. Concurrent callers share
// a single load. On failure the previous snapshot stays in place.
func (h *Holder) Reload(ctx context.Context) (*Snapshot, error) {
	v, err, shared := h.group.Do("reload", func() (any, error) {
		start := h.now()
		txs, err := h.source.LoadTransactions(ctx)
		if err != nil {
			return nil, fmt.Errorf("load transactions: %w", err)
		}
		s := h.Publish(txs)
		slog.InfoContext(ctx, "Ledger snapshot published",
			"snapshot_version", s.Version(),
			"records", s.Len(),
			"duration_ms", h.now().Sub(start).Milliseconds())
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.DebugContext(ctx, "Reload shared with in-flight load")
	}
	return v.(*Snapshot), nil
}
