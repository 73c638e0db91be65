package service

import (
	"context"
	"log/slog"
	"time"
)

// Resetter attempts a supply reset.
type Resetter interface {
	Reset(ctx context.Context) (ResetResult, error)
}

// ResetScheduler polls the ledger so the window rolls over without waiting for an order.
type ResetScheduler struct {
	resetter Resetter
	interval time.Duration
}

// NewResetScheduler creates a scheduler. A non-positive interval disables polling.
func NewResetScheduler(resetter Resetter, interval time.Duration) *ResetScheduler {
	return &ResetScheduler{resetter: resetter, interval: interval}
}

// Run attempts a reset immediately and then on every tick until ctx is cancelled.
func (s *ResetScheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		slog.Info("Reset scheduler disabled")
		<-ctx.Done()
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Reset scheduler panic recovered", slog.Any("panic", r))
		}
	}()

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Reset scheduler stopped")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *ResetScheduler) tick(ctx context.Context) {
	res, err := s.resetter.Reset(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("Scheduled reset failed", slog.Any("error", err))
		}
		return
	}
	if res.Applied {
		slog.Info("Scheduled reset applied",
			slog.Any("remaining", res.Remaining),
			slog.String("last_reset_at", res.LastResetAt.String()))
	}
}
