package service

import (
	"context"
	"errors"

	"supply_go/internal/domain"
	"supply_go/internal/event"
	"supply_go/internal/infra"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Engine is the sequenced ledger the service fronts.
type Engine interface {
	Order(ctx context.Context, account domain.AccountID, quantity uint32) (*event.OrderAcceptedEvent, error)
	Reset(ctx context.Context) (event.ResetReply, error)
	AccountTotal(ctx context.Context, account domain.AccountID) (event.AccountReply, error)
	Summary() domain.Summary
}

// OrderReceipt is returned for an accepted order.
type OrderReceipt struct {
	ID        string           `json:"id"`
	Seq       uint64           `json:"seq"`
	Account   domain.AccountID `json:"account"`
	Quantity  uint32           `json:"quantity"`
	NewTotal  uint32           `json:"new_total"`
	Remaining uint32           `json:"remaining"`
	At        domain.Timestamp `json:"at"`
}

// ResetResult reports the outcome of a reset attempt.
type ResetResult struct {
	Applied     bool             `json:"applied"`
	Remaining   uint32           `json:"remaining"`
	LastResetAt domain.Timestamp `json:"last_reset_at"`
}

// Status is the public view of the supply.
type Status struct {
	DailyCap      uint32            `json:"daily_cap"`
	Remaining     uint32            `json:"remaining"`
	PerAccountCap uint32            `json:"per_account_cap"`
	TotalOrders   uint64            `json:"total_orders"`
	Accounts      int               `json:"accounts"`
	Seq           uint64            `json:"seq"`
	LastResetAt   domain.Timestamp  `json:"last_reset_at"`
	NextResetAt   *domain.Timestamp `json:"next_reset_at,omitempty"` // nil if not representable
	Utilization   string            `json:"utilization_pct"`
}

// AccountView is the public view of one account.
type AccountView struct {
	Account       domain.AccountID `json:"account"`
	Total         uint32           `json:"total"`
	Allowance     uint32           `json:"allowance"`
	PerAccountCap uint32           `json:"per_account_cap"`
}

// LedgerService applies caller operations to the ledger engine.
type LedgerService struct {
	engine       Engine
	resetOnOrder bool
	tracer       trace.Tracer
}

// NewLedgerService creates a new ledger service.
// With resetOnOrder, every order first attempts a reset so the window rolls over lazily.
func NewLedgerService(engine Engine, resetOnOrder bool) *LedgerService {
	return &LedgerService{
		engine:       engine,
		resetOnOrder: resetOnOrder,
		tracer:       otel.Tracer(infra.TracerName),
	}
}

// Order allocates quantity units to the calling account.
func (s *LedgerService) Order(ctx context.Context, caller domain.Caller, quantity uint32) (OrderReceipt, error) {
	account, err := caller.Resolve()
	if err != nil {
		return OrderReceipt{}, err
	}

	ctx, span := s.tracer.Start(ctx, "ledger.order", trace.WithAttributes(
		attribute.String("supply.account", account.String()),
		attribute.Int64("supply.quantity", int64(quantity)),
	))
	defer span.End()

	if s.resetOnOrder {
		if _, err := s.engine.Reset(ctx); err != nil {
			failSpan(span, err)
			return OrderReceipt{}, err
		}
	}

	ev, err := s.engine.Order(ctx, account, quantity)
	if err != nil {
		failSpan(span, err)
		return OrderReceipt{}, err
	}

	span.SetAttributes(
		attribute.Int64("supply.seq", int64(ev.Seq)),
		attribute.Int64("supply.remaining", int64(ev.Remaining)),
	)
	return OrderReceipt{
		ID:        ev.ID,
		Seq:       ev.Seq,
		Account:   ev.Account,
		Quantity:  ev.Quantity,
		NewTotal:  ev.NewTotal,
		Remaining: ev.Remaining,
		At:        ev.Ts,
	}, nil
}

// Reset refills the supply if the window has elapsed.
func (s *LedgerService) Reset(ctx context.Context) (ResetResult, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.reset")
	defer span.End()

	reply, err := s.engine.Reset(ctx)
	if err != nil {
		failSpan(span, err)
		return ResetResult{}, err
	}
	span.SetAttributes(attribute.Bool("supply.reset_applied", reply.Applied))

	res := ResetResult{Applied: reply.Applied, Remaining: reply.Remaining}
	if reply.Event != nil {
		res.LastResetAt = reply.Event.Ts
	} else {
		res.LastResetAt = s.engine.Summary().LastResetAt
	}
	return res, nil
}

// Status returns the current supply view without entering the sequencer.
func (s *LedgerService) Status() Status {
	sum := s.engine.Summary()
	st := Status{
		DailyCap:      sum.DailyCap,
		Remaining:     sum.Remaining,
		PerAccountCap: sum.PerAccountCap,
		TotalOrders:   sum.TotalOrders,
		Accounts:      sum.Accounts,
		Seq:           sum.Seq,
		LastResetAt:   sum.LastResetAt,
		Utilization:   utilization(sum.DailyCap, sum.Remaining).StringFixed(2),
	}
	if next, ok := sum.NextResetAt(); ok {
		st.NextResetAt = &next
	}
	return st
}

// AccountTotal returns the cumulative allocation of the account named by raw.
func (s *LedgerService) AccountTotal(ctx context.Context, raw string) (AccountView, error) {
	account, err := domain.ParseAccountID(raw)
	if err != nil {
		return AccountView{}, err
	}

	ctx, span := s.tracer.Start(ctx, "ledger.account", trace.WithAttributes(
		attribute.String("supply.account", account.String()),
	))
	defer span.End()

	reply, err := s.engine.AccountTotal(ctx, account)
	if err != nil {
		failSpan(span, err)
		return AccountView{}, err
	}
	return AccountView{
		Account:       account,
		Total:         reply.Total,
		Allowance:     reply.Allowance,
		PerAccountCap: s.engine.Summary().PerAccountCap,
	}, nil
}

// utilization returns the allocated share of the window in percent.
func utilization(dailyCap, remaining uint32) decimal.Decimal {
	if dailyCap == 0 {
		return decimal.Zero
	}
	used := decimal.NewFromInt(int64(dailyCap - remaining))
	return used.Div(decimal.NewFromInt(int64(dailyCap))).Mul(decimal.NewFromInt(100)).Round(2)
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	if kind, ok := domain.KindOf(err); ok {
		span.SetAttributes(attribute.String("supply.error_kind", kind.Code()))
		span.SetStatus(codes.Error, kind.Code())
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		span.SetStatus(codes.Error, "cancelled")
		return
	}
	span.SetStatus(codes.Error, err.Error())
}
