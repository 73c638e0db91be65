package event

import (
	"supply_go/internal/domain"

	"github.com/google/uuid"
)

// Type identifies a notification or request kind.
type Type string

const (
	TypeOrderAccepted Type = "order_accepted"
	TypeSupplyReset   Type = "supply_reset"

	TypeOrderRequest Type = "order_request"
	TypeResetRequest Type = "reset_request"
	TypeAccountQuery Type = "account_query"
	TypeFlushRequest Type = "flush_request"
)

// Event is a sequenced state transition emitted by the sequencer.
type Event interface {
	GetSeq() uint64
	GetType() Type
}

// Notification is an event delivered to external sinks.
type Notification interface {
	Event
	GetID() string
	GetTs() domain.Timestamp
}

// BaseEvent contains common fields for all notifications.
type BaseEvent struct {
	ID  string           `json:"-"`
	Seq uint64           `json:"-"`
	Ts  domain.Timestamp `json:"-"`
}

func (e BaseEvent) GetSeq() uint64 { return e.Seq }
func (e BaseEvent) GetID() string { return e.ID }
func (e BaseEvent) GetTs() domain.Timestamp { return e.Ts }

// NewBase stamps a fresh notification id.
func NewBase(seq uint64, ts domain.Timestamp) BaseEvent {
	return BaseEvent{ID: uuid.NewString(), Seq: seq, Ts: ts}
}

// OrderAcceptedEvent is emitted for every successful order.
type OrderAcceptedEvent struct {
	BaseEvent
	Account   domain.AccountID `json:"account"`
	Quantity  uint32           `json:"quantity"`
	NewTotal  uint32           `json:"new_total"`
	Remaining uint32           `json:"remaining"`
}

func (e *OrderAcceptedEvent) GetType() Type { return TypeOrderAccepted }

// SupplyResetEvent is emitted only when a reset actually refills the window.
type SupplyResetEvent struct {
	BaseEvent
	Remaining       uint32           `json:"remaining"`
	PreviousResetAt domain.Timestamp `json:"previous_reset_at"`
	AccountsCleared bool             `json:"accounts_cleared"`
}

func (e *SupplyResetEvent) GetType() Type { return TypeSupplyReset }
