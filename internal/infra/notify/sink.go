// Package notify delivers encoded ledger notifications to external systems.
package notify

import (
	"context"

	"supply_go/internal/domain"
	"supply_go/internal/event"
)

// Sink delivers one encoded notification.
// payload is the envelope produced by event.Encode for n.
type Sink interface {
	Name() string
	Publish(ctx context.Context, n event.Notification, payload []byte) error
	Close() error
}

// partitionKey groups notifications of one account; resets share one key.
func partitionKey(n event.Notification) string {
	if ev, ok := n.(*event.OrderAcceptedEvent); ok {
		return string(ev.Account)
	}
	return "supply"
}

func publishErr(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return domain.NewFatalNetworkError(op, err)
	}
	return domain.NewNetworkError(op, err)
}
