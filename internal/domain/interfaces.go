package domain

import (
	"context"
)

// Checkpoint is an incremental unit of persisted ledger state.
type Checkpoint struct {
	Seq uint64
	// Ledger carries the full header. Accounts holds only the totals changed
	// since the previous successful checkpoint.
	Ledger LedgerSnapshot
	// Cleared means every previously stored account total must be dropped
	// before Ledger.Accounts is applied.
	Cleared bool
	Entries []OrderEntry
}

// LedgerRepository persists the ledger across restarts.
// SaveLedger must apply a checkpoint atomically.
type LedgerRepository interface {
	// LoadLedger returns the stored ledger and the last checkpointed sequence.
	// It returns ErrLedgerNotFound when nothing has been stored yet.
	LoadLedger(ctx context.Context) (LedgerSnapshot, uint64, error)
	SaveLedger(ctx context.Context, cp Checkpoint) error
	// Orders returns order log entries with Seq > afterSeq in ascending order.
	Orders(ctx context.Context, afterSeq uint64, limit int) ([]OrderEntry, error)
	Close() error
}
