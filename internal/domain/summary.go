package domain

// Summary is an immutable view of the ledger header.
// The sequencer publishes a fresh value after each transition so reads never block writers.
type Summary struct {
	DailyCap      uint32    `json:"daily_cap"`
	Remaining     uint32    `json:"remaining"`
	PerAccountCap uint32    `json:"per_account_cap"`
	LastResetAt   Timestamp `json:"last_reset_at"`
	TotalOrders   uint64    `json:"total_orders"`
	Accounts      int       `json:"accounts"`
	Seq           uint64    `json:"seq"` // last applied transition
}

// NextResetAt returns the earliest instant at which a reset will succeed.
// ok is false if the window end is not representable.
func (s Summary) NextResetAt() (Timestamp, bool) {
	return s.LastResetAt.CheckedAdd(WindowDuration)
}

// AccountTotal pairs an account with its cumulative allocation.
type AccountTotal struct {
	Account AccountID `json:"account"`
	Total   uint32    `json:"total"`
}
