package domain

import (
	"fmt"
	"sort"
)

// DefaultDailyCap is the deployment constant for the daily supply.
const DefaultDailyCap uint32 = 50

// Ledger is the single authoritative supply state.
// It is not safe for concurrent use; the sequencer owns it exclusively.
type Ledger struct {
	dailyCap      uint32
	remaining     uint32
	perAccountCap uint32
	accountTotals map[AccountID]uint32
	lastResetAt   Timestamp
	totalOrders   uint64
}

// NewLedger creates a ledger with the default daily cap and a full supply.
func NewLedger(perAccountCap uint32, now Timestamp) *Ledger {
	return NewLedgerWithCap(DefaultDailyCap, perAccountCap, now)
}

// NewLedgerWithCap creates a ledger with an explicit daily cap.
func NewLedgerWithCap(dailyCap, perAccountCap uint32, now Timestamp) *Ledger {
	return &Ledger{
		dailyCap:      dailyCap,
		remaining:     dailyCap,
		perAccountCap: perAccountCap,
		accountTotals: make(map[AccountID]uint32),
		lastResetAt:   now,
	}
}

// RemainingSupply returns the units still available in the current window.
func (l *Ledger) RemainingSupply() uint32 { return l.remaining }

// DailyCap returns the per-window supply ceiling.
func (l *Ledger) DailyCap() uint32 { return l.dailyCap }

// PerAccountCap returns the lifetime per-account ceiling.
func (l *Ledger) PerAccountCap() uint32 { return l.perAccountCap }

// LastResetAt returns the start of the current window.
func (l *Ledger) LastResetAt() Timestamp { return l.lastResetAt }

// TotalOrders returns the cumulative units ever allocated.
func (l *Ledger) TotalOrders() uint64 { return l.totalOrders }

// AccountTotal returns the cumulative units allocated to account (0 if never seen).
func (l *Ledger) AccountTotal(account AccountID) uint32 {
	return l.accountTotals[account]
}

// AccountAllowance returns how many more units account may still order.
func (l *Ledger) AccountAllowance(account AccountID) uint32 {
	total := l.accountTotals[account]
	if total >= l.perAccountCap {
		return 0
	}
	return l.perAccountCap - total
}

// Accounts returns all account totals sorted by account id.
func (l *Ledger) Accounts() []AccountTotal {
	out := make([]AccountTotal, 0, len(l.accountTotals))
	for id, total := range l.accountTotals {
		out = append(out, AccountTotal{Account: id, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out
}

// Allocate applies an already-validated order.
// Callers must check quantity against RemainingSupply and AccountAllowance first.
func (l *Ledger) Allocate(account AccountID, quantity uint32) uint32 {
	l.remaining -= quantity
	total := l.accountTotals[account] + quantity
	l.accountTotals[account] = total
	l.totalOrders += uint64(quantity)
	return total
}

// Restore refills the window and stamps its start.
func (l *Ledger) Restore(now Timestamp) {
	l.remaining = l.dailyCap
	l.lastResetAt = now
}

// ClearAccountTotals forgets every account total.
func (l *Ledger) ClearAccountTotals() {
	l.accountTotals = make(map[AccountID]uint32)
}

// VerifyInvariant checks that the ledger satisfies its invariants.
// Call this after any state change; a violation is a programming error.
func (l *Ledger) VerifyInvariant() {
	// Invariant 1: Remaining never exceeds the daily cap
	if l.remaining > l.dailyCap {
		panic(fmt.Sprintf("LEDGER_INVARIANT_REMAINING_EXCEEDS_CAP: remaining=%d, cap=%d",
			l.remaining, l.dailyCap))
	}

	// Invariant 2: No account exceeds its cap
	var sum uint64
	for id, total := range l.accountTotals {
		if total > l.perAccountCap {
			panic(fmt.Sprintf("LEDGER_INVARIANT_ACCOUNT_EXCEEDS_CAP: %s total=%d, cap=%d",
				id, total, l.perAccountCap))
		}
		sum += uint64(total)
	}

	// Invariant 3: Lifetime orders cover every live account total
	if sum > l.totalOrders {
		panic(fmt.Sprintf("LEDGER_INVARIANT_TOTAL_BELOW_ACCOUNTS: total=%d, accounts=%d",
			l.totalOrders, sum))
	}
}

// Equal reports whether two ledgers hold the same state.
func (l *Ledger) Equal(other *Ledger) bool {
	if l == nil || other == nil {
		return l == other
	}
	if l.dailyCap != other.dailyCap ||
		l.remaining != other.remaining ||
		l.perAccountCap != other.perAccountCap ||
		l.lastResetAt != other.lastResetAt ||
		l.totalOrders != other.totalOrders ||
		len(l.accountTotals) != len(other.accountTotals) {
		return false
	}
	for id, total := range l.accountTotals {
		if v, ok := other.accountTotals[id]; !ok || v != total {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (l *Ledger) Clone() *Ledger {
	c := *l
	c.accountTotals = make(map[AccountID]uint32, len(l.accountTotals))
	for id, total := range l.accountTotals {
		c.accountTotals[id] = total
	}
	return &c
}

// Summary returns the read-only view published to concurrent readers.
func (l *Ledger) Summary() Summary {
	return Summary{
		DailyCap:      l.dailyCap,
		Remaining:     l.remaining,
		PerAccountCap: l.perAccountCap,
		LastResetAt:   l.lastResetAt,
		TotalOrders:   l.totalOrders,
		Accounts:      len(l.accountTotals),
	}
}
