package domain

import (
	"encoding/json"
	"fmt"
)

// SnapshotVersion is the current encoding version of LedgerSnapshot.
const SnapshotVersion = 1

// LedgerSnapshot is the explicit, versioned serialized form of a Ledger.
// Accounts are sorted by id so that equal ledgers encode to equal bytes.
type LedgerSnapshot struct {
	Version       int            `json:"version"`
	DailyCap      uint32         `json:"daily_cap"`
	Remaining     uint32         `json:"remaining"`
	PerAccountCap uint32         `json:"per_account_cap"`
	LastResetAt   Timestamp      `json:"last_reset_at"`
	TotalOrders   uint64         `json:"total_orders"`
	Accounts      []AccountTotal `json:"accounts"`
}

// Snapshot captures the full ledger state.
func (l *Ledger) Snapshot() LedgerSnapshot {
	return LedgerSnapshot{
		Version:       SnapshotVersion,
		DailyCap:      l.dailyCap,
		Remaining:     l.remaining,
		PerAccountCap: l.perAccountCap,
		LastResetAt:   l.lastResetAt,
		TotalOrders:   l.totalOrders,
		Accounts:      l.Accounts(),
	}
}

// Validate checks the snapshot against the ledger invariants without panicking.
func (s LedgerSnapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("%w: snapshot version %d", ErrUnsupportedVersion, s.Version)
	}
	if s.Remaining > s.DailyCap {
		return fmt.Errorf("%w: remaining %d exceeds daily cap %d", ErrCorruptSnapshot, s.Remaining, s.DailyCap)
	}
	seen := make(map[AccountID]struct{}, len(s.Accounts))
	var sum uint64
	for _, a := range s.Accounts {
		if _, dup := seen[a.Account]; dup {
			return fmt.Errorf("%w: duplicate account %s", ErrCorruptSnapshot, a.Account)
		}
		seen[a.Account] = struct{}{}
		if a.Total > s.PerAccountCap {
			return fmt.Errorf("%w: account %s total %d exceeds cap %d", ErrCorruptSnapshot, a.Account, a.Total, s.PerAccountCap)
		}
		sum += uint64(a.Total)
	}
	if sum > s.TotalOrders {
		return fmt.Errorf("%w: account totals %d exceed total orders %d", ErrCorruptSnapshot, sum, s.TotalOrders)
	}
	return nil
}

// RestoreLedger rebuilds a ledger from a snapshot, rejecting invalid state.
func RestoreLedger(s LedgerSnapshot) (*Ledger, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	l := &Ledger{
		dailyCap:      s.DailyCap,
		remaining:     s.Remaining,
		perAccountCap: s.PerAccountCap,
		accountTotals: make(map[AccountID]uint32, len(s.Accounts)),
		lastResetAt:   s.LastResetAt,
		totalOrders:   s.TotalOrders,
	}
	for _, a := range s.Accounts {
		l.accountTotals[a.Account] = a.Total
	}
	return l, nil
}

// EncodeSnapshot serializes a snapshot.
func EncodeSnapshot(s LedgerSnapshot) ([]byte, error) {
	if s.Version == 0 {
		s.Version = SnapshotVersion
	}
	if s.Accounts == nil {
		s.Accounts = []AccountTotal{}
	}
	return json.Marshal(s)
}

// DecodeSnapshot parses and validates a serialized snapshot.
func DecodeSnapshot(data []byte) (LedgerSnapshot, error) {
	var s LedgerSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return LedgerSnapshot{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if err := s.Validate(); err != nil {
		return LedgerSnapshot{}, err
	}
	return s, nil
}
