package engine

import (
	"supply_go/internal/domain"
	"supply_go/internal/event"
)

// OrderResult is the outcome of an accepted order.
type OrderResult struct {
	Account   domain.AccountID
	Quantity  uint32
	NewTotal  uint32
	Remaining uint32
}

// Notification builds the order accepted payload for this result.
func (r OrderResult) Notification(base event.BaseEvent) *event.OrderAcceptedEvent {
	return &event.OrderAcceptedEvent{
		BaseEvent: base,
		Account:   r.Account,
		Quantity:  r.Quantity,
		NewTotal:  r.NewTotal,
		Remaining: r.Remaining,
	}
}

// Allocator validates and applies orders against a ledger.
type Allocator struct{}

// Order checks, in order, zero quantity, global supply and the account cap.
// Every check runs before any mutation, so a rejected order leaves the ledger untouched.
func (Allocator) Order(l *domain.Ledger, account domain.AccountID, quantity uint32) (OrderResult, error) {
	if quantity == 0 {
		return OrderResult{}, &domain.OrderError{Kind: domain.KindZeroQuantity, Account: account}
	}

	remaining := l.RemainingSupply()
	if remaining < quantity {
		return OrderResult{}, &domain.OrderError{
			Kind:      domain.KindSupplyExhausted,
			Account:   account,
			Requested: quantity,
			Available: remaining,
		}
	}

	// quantity > cap - total, never total + quantity > cap (overflow)
	allowance := l.AccountAllowance(account)
	if quantity > allowance {
		return OrderResult{}, &domain.OrderError{
			Kind:      domain.KindAccountLimitExceeded,
			Account:   account,
			Requested: quantity,
			Available: allowance,
		}
	}

	newTotal := l.Allocate(account, quantity)
	return OrderResult{
		Account:   account,
		Quantity:  quantity,
		NewTotal:  newTotal,
		Remaining: l.RemainingSupply(),
	}, nil
}
