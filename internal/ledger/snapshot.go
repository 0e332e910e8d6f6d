// Package ledger owns the immutable transaction snapshot that queries read.
package ledger

import (
	"slices"
	"time"

	"salesledger/internal/core"
)

// Snapshot is a point-in-time, read-only transaction table. It is never
// mutated after NewSnapshot returns.
type Snapshot struct {
	version  uint64
	loadedAt time.Time
	records  []core.Transaction
}

// NewSnapshot copies txs so later changes by the caller cannot leak in.
func NewSnapshot(version uint64, loadedAt time.Time, txs []core.Transaction) *Snapshot {
	return &Snapshot{
		version:  version,
		loadedAt: loadedAt,
		records:  slices.Clone(txs),
	}
}

func (s *Snapshot) Version() uint64 {
	return s.version
}

func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

func (s *Snapshot) Len() int {
	return len(s.records)
}

// Records returns an independent working copy of the table.
func (s *Snapshot) Records() []core.Transaction {
	return slices.Clone(s.records)
}

// Each calls fn for every record in load order without copying the table.
func (s *Snapshot) Each(fn func(core.Transaction)) {
	for _, t := range s.records {
		fn(t)
	}
}

// First returns the first record of the table.
func (s *Snapshot) First() (core.Transaction, bool) {
	if len(s.records) == 0 {
		return core.Transaction{}, false
	}
	return s.records[0], true
}
