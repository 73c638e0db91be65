package event

import (
	"supply_go/internal/domain"
)

// Request is an inbound command for the sequencer.
// Each request carries its own reply channel with capacity 1 so the
// sequencer never blocks on a caller that has gone away.
type Request interface {
	GetType() Type
}

// OrderReply is the outcome of an order request.
type OrderReply struct {
	Event *OrderAcceptedEvent // nil on rejection
	Err   error
}

// OrderRequestEvent asks the sequencer to allocate Quantity units to Account.
type OrderRequestEvent struct {
	Account  domain.AccountID
	Quantity uint32
	Reply    chan OrderReply
}

func (e *OrderRequestEvent) GetType() Type { return TypeOrderRequest }

// ResetReply is the outcome of a reset request.
type ResetReply struct {
	Remaining uint32
	Applied   bool
	Event     *SupplyResetEvent // nil when the window has not elapsed
}

// ResetRequestEvent asks the sequencer to apply the reset policy.
type ResetRequestEvent struct {
	Reply chan ResetReply
}

func (e *ResetRequestEvent) GetType() Type { return TypeResetRequest }

// NewResetRequest allocates a reset request with a buffered reply channel.
func NewResetRequest() *ResetRequestEvent {
	return &ResetRequestEvent{Reply: make(chan ResetReply, 1)}
}

// AccountReply carries an account total read inside the sequencer.
type AccountReply struct {
	Total     uint32
	Allowance uint32
}

// AccountQueryEvent reads one account total.
type AccountQueryEvent struct {
	Account domain.AccountID
	Reply   chan AccountReply
}

func (e *AccountQueryEvent) GetType() Type { return TypeAccountQuery }

// NewAccountQuery allocates an account query with a buffered reply channel.
func NewAccountQuery(account domain.AccountID) *AccountQueryEvent {
	return &AccountQueryEvent{Account: account, Reply: make(chan AccountReply, 1)}
}

// FlushRequestEvent forces a checkpoint of pending state.
type FlushRequestEvent struct {
	Reply chan error
}

func (e *FlushRequestEvent) GetType() Type { return TypeFlushRequest }

// NewFlushRequest allocates a flush request with a buffered reply channel.
func NewFlushRequest() *FlushRequestEvent {
	return &FlushRequestEvent{Reply: make(chan error, 1)}
}
