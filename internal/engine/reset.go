package engine

import (
	"supply_go/internal/domain"
	"supply_go/internal/event"
)

// ResetPolicy decides whether the supply window has elapsed and refills it.
// It holds no timer; something outside must call Apply.
type ResetPolicy struct {
	// ClearAccounts also forgets every account total on a successful reset.
	ClearAccounts bool
}

// ResetOutcome describes what Apply did.
type ResetOutcome struct {
	Remaining       uint32
	Applied         bool
	PreviousResetAt domain.Timestamp
	AccountsCleared bool
}

// Notification builds the reset payload, or nil if nothing was applied.
func (o ResetOutcome) Notification(base event.BaseEvent) *event.SupplyResetEvent {
	if !o.Applied {
		return nil
	}
	return &event.SupplyResetEvent{
		BaseEvent:       base,
		Remaining:       o.Remaining,
		PreviousResetAt: o.PreviousResetAt,
		AccountsCleared: o.AccountsCleared,
	}
}

// Elapsed reports now >= lastResetAt + 24h. An unrepresentable window end never elapses.
func (p ResetPolicy) Elapsed(l *domain.Ledger, now domain.Timestamp) bool {
	end, ok := l.LastResetAt().CheckedAdd(domain.WindowDuration)
	if !ok {
		return false
	}
	return now >= end
}

// Apply refills the supply if the window elapsed. Otherwise the ledger is untouched.
func (p ResetPolicy) Apply(l *domain.Ledger, now domain.Timestamp) ResetOutcome {
	if !p.Elapsed(l, now) {
		return ResetOutcome{Remaining: l.RemainingSupply(), PreviousResetAt: l.LastResetAt()}
	}

	prev := l.LastResetAt()
	l.Restore(now)
	if p.ClearAccounts {
		l.ClearAccountTotals()
	}
	return ResetOutcome{
		Remaining:       l.RemainingSupply(),
		Applied:         true,
		PreviousResetAt: prev,
		AccountsCleared: p.ClearAccounts,
	}
}
