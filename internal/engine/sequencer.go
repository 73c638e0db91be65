package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"supply_go/internal/domain"
	"supply_go/internal/event"
)

// Checkpointer persists incremental ledger state.
type Checkpointer interface {
	SaveLedger(ctx context.Context, cp domain.Checkpoint) error
}

// Recorder observes sequencer outcomes (metrics).
type Recorder interface {
	ObserveOrderAccepted(quantity uint32, latency time.Duration)
	ObserveOrderRejected(kind domain.ErrorKind)
	ObserveReset(applied bool)
	ObserveCheckpointFailure()
	ObserveOutboxDrop()
}

// Options configures a Sequencer. Zero values select defaults.
type Options struct {
	InboxSize   int
	OutboxSize  int // 0 disables the outbox
	Policy      ResetPolicy
	Clock       Clock
	Store       Checkpointer
	Recorder    Recorder
	SaveTimeout time.Duration
	DumpPath    string
}

// Sequencer owns the ledger in a single goroutine.
// Every order, reset and query is processed to completion before the next.
type Sequencer struct {
	inbox  chan event.Request
	outbox chan event.Notification
	done   chan struct{}

	ledger    *domain.Ledger
	allocator Allocator
	policy    ResetPolicy
	clock     Clock
	store     Checkpointer
	recorder  Recorder

	nextSeq  uint64
	savedSeq uint64

	// Pending checkpoint state
	dirty   map[domain.AccountID]struct{}
	entries []domain.OrderEntry
	cleared bool

	summary atomic.Pointer[domain.Summary] // external reads

	saveTimeout time.Duration
	dumpPath    string
}

// NewSequencer creates a sequencer for ledger. lastSeq is the sequence of the
// last transition already reflected in ledger (0 for a fresh ledger).
func NewSequencer(ledger *domain.Ledger, lastSeq uint64, opts Options) *Sequencer {
	ledger.VerifyInvariant()

	if opts.InboxSize <= 0 {
		opts.InboxSize = 1024
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = 5 * time.Second
	}
	if opts.DumpPath == "" {
		opts.DumpPath = "panic_dump.json"
	}

	s := &Sequencer{
		inbox:       make(chan event.Request, opts.InboxSize),
		done:        make(chan struct{}),
		ledger:      ledger,
		policy:      opts.Policy,
		clock:       opts.Clock,
		store:       opts.Store,
		recorder:    opts.Recorder,
		nextSeq:     lastSeq + 1,
		savedSeq:    lastSeq,
		dirty:       make(map[domain.AccountID]struct{}),
		saveTimeout: opts.SaveTimeout,
		dumpPath:    opts.DumpPath,
	}
	if opts.OutboxSize > 0 {
		s.outbox = make(chan event.Notification, opts.OutboxSize)
	}
	s.publishSummary()
	return s
}

// Inbox returns the request channel.
func (s *Sequencer) Inbox() chan<- event.Request {
	return s.inbox
}

// Outbox returns the notification channel, or nil when disabled.
func (s *Sequencer) Outbox() <-chan event.Notification {
	return s.outbox
}

// Done is closed once Run has returned.
func (s *Sequencer) Done() <-chan struct{} {
	return s.done
}

// Run starts the main loop. This MUST be run in a single goroutine.
func (s *Sequencer) Run(ctx context.Context) {
	slog.Info("Sequencer started (Single-Writer Ledger)",
		slog.Uint64("next_seq", s.nextSeq),
		slog.Any("remaining", s.ledger.RemainingSupply()))

	defer close(s.done)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r))
			s.DumpState(s.dumpPath)
			// Halt after dump.
			panic(fmt.Sprintf("HALTED: %v", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Sequencer stopping...")
			if err := s.commit(); err != nil {
				slog.Error("Final checkpoint failed", slog.Any("error", err))
			}
			return
		case req := <-s.inbox:
			s.process(req)
		}
	}
}

func (s *Sequencer) process(req event.Request) {
	switch r := req.(type) {
	case *event.OrderRequestEvent:
		s.handleOrder(r)
	case *event.ResetRequestEvent:
		s.handleReset(r)
	case *event.AccountQueryEvent:
		r.Reply <- event.AccountReply{
			Total:     s.ledger.AccountTotal(r.Account),
			Allowance: s.ledger.AccountAllowance(r.Account),
		}
	case *event.FlushRequestEvent:
		r.Reply <- s.commit()
	default:
		slog.Warn("Unknown request type", slog.Any("type", req.GetType()))
	}
}

func (s *Sequencer) handleOrder(r *event.OrderRequestEvent) {
	start := time.Now()

	res, err := s.allocator.Order(s.ledger, r.Account, r.Quantity)
	if err != nil {
		if kind, ok := domain.KindOf(err); ok && s.recorder != nil {
			s.recorder.ObserveOrderRejected(kind)
		}
		r.Reply <- event.OrderReply{Err: err}
		return
	}
	s.ledger.VerifyInvariant()

	seq := s.advance()
	now := s.clock.Now()
	s.dirty[r.Account] = struct{}{}
	s.entries = append(s.entries, domain.OrderEntry{
		Seq:      seq,
		Account:  r.Account,
		Quantity: r.Quantity,
		NewTotal: res.NewTotal,
		At:       now,
	})

	ev := res.Notification(event.NewBase(seq, now))
	s.afterTransition(ev)

	if s.recorder != nil {
		s.recorder.ObserveOrderAccepted(r.Quantity, time.Since(start))
	}
	r.Reply <- event.OrderReply{Event: ev}
}

func (s *Sequencer) handleReset(r *event.ResetRequestEvent) {
	now := s.clock.Now()

	out := s.policy.Apply(s.ledger, now)
	if s.recorder != nil {
		s.recorder.ObserveReset(out.Applied)
	}
	if !out.Applied {
		r.Reply <- event.ResetReply{Remaining: out.Remaining}
		return
	}
	s.ledger.VerifyInvariant()

	seq := s.advance()
	if out.AccountsCleared {
		s.cleared = true
		s.dirty = make(map[domain.AccountID]struct{})
	}

	ev := out.Notification(event.NewBase(seq, now))
	s.afterTransition(ev)

	slog.Info("✅ Supply window reset",
		slog.Uint64("seq", seq),
		slog.Any("remaining", out.Remaining),
		slog.String("previous_reset_at", out.PreviousResetAt.String()))

	r.Reply <- event.ResetReply{Remaining: out.Remaining, Applied: true, Event: ev}
}

func (s *Sequencer) advance() uint64 {
	seq := s.nextSeq
	s.nextSeq++
	return seq
}

// afterTransition checkpoints, republishes the summary and emits the notification.
// A checkpoint failure never rolls back the in-memory ledger; it is retried on the next commit.
func (s *Sequencer) afterTransition(n event.Notification) {
	if err := s.commit(); err != nil {
		slog.Warn("Checkpoint failed, will retry on next commit",
			slog.Uint64("seq", n.GetSeq()),
			slog.Any("error", err))
	}
	s.publishSummary()
	s.emit(n)
}

// commit writes every pending change since the last successful checkpoint.
func (s *Sequencer) commit() error {
	lastSeq := s.nextSeq - 1
	if lastSeq == s.savedSeq {
		return nil
	}
	if s.store == nil {
		s.resetPending(lastSeq)
		return nil
	}

	header := s.ledger.Snapshot()
	accounts := make([]domain.AccountTotal, 0, len(s.dirty))
	for _, a := range header.Accounts {
		if _, ok := s.dirty[a.Account]; ok {
			accounts = append(accounts, a)
		}
	}
	header.Accounts = accounts

	cp := domain.Checkpoint{
		Seq:     lastSeq,
		Ledger:  header,
		Cleared: s.cleared,
		Entries: s.entries,
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()
	if err := s.store.SaveLedger(ctx, cp); err != nil {
		if s.recorder != nil {
			s.recorder.ObserveCheckpointFailure()
		}
		return fmt.Errorf("checkpoint seq %d: %w", lastSeq, err)
	}

	s.resetPending(lastSeq)
	return nil
}

func (s *Sequencer) resetPending(savedSeq uint64) {
	s.savedSeq = savedSeq
	s.cleared = false
	s.entries = nil
	if len(s.dirty) > 0 {
		s.dirty = make(map[domain.AccountID]struct{})
	}
}

func (s *Sequencer) publishSummary() {
	sum := s.ledger.Summary()
	sum.Seq = s.nextSeq - 1
	s.summary.Store(&sum)
}

func (s *Sequencer) emit(n event.Notification) {
	if s.outbox == nil {
		return
	}
	select {
	case s.outbox <- n:
	default:
		slog.Warn("Outbox full, notification dropped",
			slog.String("type", string(n.GetType())),
			slog.Uint64("seq", n.GetSeq()))
		if s.recorder != nil {
			s.recorder.ObserveOutboxDrop()
		}
	}
}

// ======================================================================================
// Caller-side API
// ======================================================================================

// Order allocates quantity units to account.
func (s *Sequencer) Order(ctx context.Context, account domain.AccountID, quantity uint32) (*event.OrderAcceptedEvent, error) {
	req := event.AcquireOrderRequest()
	req.Account = account
	req.Quantity = quantity

	if err := s.send(ctx, req); err != nil {
		event.ReleaseOrderRequest(req)
		return nil, err
	}

	select {
	case reply := <-req.Reply:
		event.ReleaseOrderRequest(req)
		return reply.Event, reply.Err
	case <-ctx.Done():
		// The sequencer may still reply; the request is not returned to the pool.
		return nil, ctx.Err()
	case <-s.done:
		select {
		case reply := <-req.Reply:
			event.ReleaseOrderRequest(req)
			return reply.Event, reply.Err
		default:
			return nil, domain.ErrSequencerStopped
		}
	}
}

// Reset applies the reset policy.
func (s *Sequencer) Reset(ctx context.Context) (event.ResetReply, error) {
	req := event.NewResetRequest()
	if err := s.send(ctx, req); err != nil {
		return event.ResetReply{}, err
	}
	return await(ctx, s.done, req.Reply)
}

// AccountTotal reads the total and remaining allowance of account.
func (s *Sequencer) AccountTotal(ctx context.Context, account domain.AccountID) (event.AccountReply, error) {
	req := event.NewAccountQuery(account)
	if err := s.send(ctx, req); err != nil {
		return event.AccountReply{}, err
	}
	return await(ctx, s.done, req.Reply)
}

// Flush checkpoints all pending state.
func (s *Sequencer) Flush(ctx context.Context) error {
	req := event.NewFlushRequest()
	if err := s.send(ctx, req); err != nil {
		return err
	}
	res, err := await(ctx, s.done, req.Reply)
	if err != nil {
		return err
	}
	return res
}

// Summary returns the last published ledger view (lock-free).
func (s *Sequencer) Summary() domain.Summary {
	return *s.summary.Load()
}

func (s *Sequencer) send(ctx context.Context, req event.Request) error {
	select {
	case <-s.done:
		return domain.ErrSequencerStopped
	default:
	}
	select {
	case s.inbox <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return domain.ErrSequencerStopped
	}
}

func await[T any](ctx context.Context, done <-chan struct{}, reply <-chan T) (T, error) {
	var zero T
	select {
	case v := <-reply:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-done:
		select {
		case v := <-reply:
			return v, nil
		default:
			return zero, domain.ErrSequencerStopped
		}
	}
}

// DumpState writes the entire internal state to a file (for post-mortem).
func (s *Sequencer) DumpState(filename string) {
	slog.Info("Dumping internal state...", slog.String("file", filename))

	data := struct {
		NextSeq        uint64                `json:"next_seq"`
		SavedSeq       uint64                `json:"saved_seq"`
		PendingEntries int                   `json:"pending_entries"`
		Ledger         domain.LedgerSnapshot `json:"ledger"`
	}{
		NextSeq:        s.nextSeq,
		SavedSeq:       s.savedSeq,
		PendingEntries: len(s.entries),
		Ledger:         s.ledger.Snapshot(),
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal state", slog.Any("error", err))
		return
	}

	err = os.WriteFile(filename, b, 0644)
	if err != nil {
		slog.Error("Failed to write state dump", slog.Any("error", err))
	}
}
