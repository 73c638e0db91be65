package storage

import (
	"encoding/binary"
	"time"

	"supply_go/internal/domain"
)

// Key layout shared by the key-value backends.
var (
	headerKey     = []byte("ledger")
	accountPrefix = []byte("account/")
	orderPrefix   = []byte("order/")
)

func accountKey(id domain.AccountID) []byte {
	return append(append([]byte{}, accountPrefix...), id...)
}

// orderKey encodes seq big-endian so that lexical order equals sequence order.
func orderKey(seq uint64) []byte {
	k := make([]byte, len(orderPrefix)+8)
	copy(k, orderPrefix)
	binary.BigEndian.PutUint64(k[len(orderPrefix):], seq)
	return k
}

func headerRecord(cp domain.Checkpoint) domain.LedgerRecord {
	return domain.LedgerRecord{
		ID:            domain.LedgerRecordID,
		Version:       domain.SnapshotVersion,
		DailyCap:      cp.Ledger.DailyCap,
		Remaining:     cp.Ledger.Remaining,
		PerAccountCap: cp.Ledger.PerAccountCap,
		LastResetAt:   int64(cp.Ledger.LastResetAt),
		TotalOrders:   cp.Ledger.TotalOrders,
		Seq:           cp.Seq,
		UpdatedAt:     time.Now().UTC(),
	}
}

// assemble rebuilds and validates a snapshot from persisted rows.
func assemble(rec domain.LedgerRecord, accounts []domain.AccountRecord) (domain.LedgerSnapshot, uint64, error) {
	snap := domain.LedgerSnapshot{
		Version:       rec.Version,
		DailyCap:      rec.DailyCap,
		Remaining:     rec.Remaining,
		PerAccountCap: rec.PerAccountCap,
		LastResetAt:   domain.Timestamp(rec.LastResetAt),
		TotalOrders:   rec.TotalOrders,
		Accounts:      make([]domain.AccountTotal, 0, len(accounts)),
	}
	for _, a := range accounts {
		snap.Accounts = append(snap.Accounts, domain.AccountTotal{Account: domain.AccountID(a.Account), Total: a.Total})
	}
	if err := snap.Validate(); err != nil {
		return domain.LedgerSnapshot{}, 0, err
	}
	return snap, rec.Seq, nil
}
