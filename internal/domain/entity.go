package domain

import (
	"time"
)

// LedgerRecordID is the primary key of the singleton ledger row.
const LedgerRecordID = 1

// LedgerRecord is the persisted ledger header (one row).
type LedgerRecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Version       int       `json:"version"`
	DailyCap      uint32    `json:"daily_cap"`
	Remaining     uint32    `json:"remaining"`
	PerAccountCap uint32    `json:"per_account_cap"`
	LastResetAt   int64     `json:"last_reset_at"` // Unix milliseconds
	TotalOrders   uint64    `json:"total_orders"`
	Seq           uint64    `json:"seq"` // Last checkpointed transition
	UpdatedAt     time.Time `json:"updated_at"`
}

// AccountRecord is the persisted cumulative total of one account.
type AccountRecord struct {
	Account   string    `gorm:"primaryKey;size:128" json:"account"`
	Total     uint32    `json:"total"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderRecord is one row of the append-only order log.
type OrderRecord struct {
	Seq      uint64 `gorm:"primaryKey;autoIncrement:false" json:"seq"`
	Account  string `gorm:"index;size:128" json:"account"`
	Quantity uint32 `json:"quantity"`
	NewTotal uint32 `json:"new_total"`
	At       int64  `gorm:"index" json:"at"` // Unix milliseconds
}

// ToEntry converts the record to its domain form.
func (r OrderRecord) ToEntry() OrderEntry {
	return OrderEntry{
		Seq:      r.Seq,
		Account:  AccountID(r.Account),
		Quantity: r.Quantity,
		NewTotal: r.NewTotal,
		At:       Timestamp(r.At),
	}
}

// OrderRecordOf converts an entry to its persisted form.
func OrderRecordOf(e OrderEntry) OrderRecord {
	return OrderRecord{
		Seq:      e.Seq,
		Account:  string(e.Account),
		Quantity: e.Quantity,
		NewTotal: e.NewTotal,
		At:       int64(e.At),
	}
}
