package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"supply_go/internal/api"
	"supply_go/internal/domain"
	"supply_go/internal/engine"
	"supply_go/internal/event"
	"supply_go/internal/infra"
	"supply_go/internal/infra/notify"
	"supply_go/internal/infra/storage"
	"supply_go/internal/service"

	"golang.org/x/sync/errgroup"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config    *infra.Config
	Repo      domain.LedgerRepository
	Metrics   *infra.Metrics
	Sequencer *engine.Sequencer
	Service   *service.LedgerService
	Sinks     []notify.Sink

	clock           engine.Clock
	feed            *notify.Feed
	history         api.History
	shutdownTracing func(context.Context) error
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{
		Metrics: infra.GlobalMetrics,
		clock:   engine.SystemClock{},
	}
}

// Initialize loads configuration and opens every dependency.
// On error, whatever was already opened is released.
func (b *Bootstrap) Initialize(ctx context.Context, configPath string) (err error) {
	slog.Info("🚀 Bootstrapping supply ledger...")

	defer func() {
		if err != nil {
			b.release(context.Background())
		}
	}()

	// 1. Load Config
	cfg, err := infra.LoadConfigOrDefault(configPath)
	if err != nil {
		return err
	}
	b.Config = cfg

	// 2. Setup Logger
	slog.SetDefault(infra.NewLogger(cfg))

	// 3. Tracing
	if b.shutdownTracing, err = infra.SetupTracing(ctx, cfg); err != nil {
		return err
	}

	// 4. Storage
	if b.Repo, err = storage.Open(cfg.Storage.Driver, cfg.Storage.Path); err != nil {
		return err
	}

	ledger, lastSeq, err := b.loadLedger(ctx)
	if err != nil {
		return err
	}

	// 5. Sinks
	if err = b.openSinks(); err != nil {
		return err
	}

	// 6. Sequencer & service
	event.Warmup()
	b.Sequencer = engine.NewSequencer(ledger, lastSeq, engine.Options{
		InboxSize:  cfg.Supply.InboxSize,
		OutboxSize: b.outboxSize(),
		Policy:     engine.ResetPolicy{ClearAccounts: cfg.Supply.ClearAccountsOnReset},
		Clock:      b.clock,
		Store:      b.Repo,
		Recorder:   b.Metrics,
	})
	b.Service = service.NewLedgerService(b.Sequencer, cfg.Supply.ResetOnOrder)

	slog.Info("✅ Ledger ready",
		slog.Uint64("seq", lastSeq),
		slog.Any("remaining", ledger.RemainingSupply()),
		slog.Any("daily_cap", ledger.DailyCap()),
		slog.Any("per_account_cap", ledger.PerAccountCap()))
	return nil
}

// loadLedger restores the persisted ledger, or creates a full one on first start.
// Persisted caps win over configuration.
func (b *Bootstrap) loadLedger(ctx context.Context) (*domain.Ledger, uint64, error) {
	cfg := b.Config

	snap, seq, err := b.Repo.LoadLedger(ctx)
	if errors.Is(err, domain.ErrLedgerNotFound) {
		slog.Info("No persisted ledger, starting a fresh window")
		return domain.NewLedgerWithCap(cfg.Supply.DailyCap, cfg.Supply.PerAccountCap, b.clock.Now()), 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load ledger: %w", err)
	}

	ledger, err := domain.RestoreLedger(snap)
	if err != nil {
		return nil, 0, fmt.Errorf("restore ledger: %w", err)
	}
	if ledger.DailyCap() != cfg.Supply.DailyCap || ledger.PerAccountCap() != cfg.Supply.PerAccountCap {
		slog.Warn("Persisted caps differ from configuration, keeping persisted values",
			slog.Any("persisted_daily_cap", ledger.DailyCap()),
			slog.Any("config_daily_cap", cfg.Supply.DailyCap),
			slog.Any("persisted_per_account_cap", ledger.PerAccountCap()),
			slog.Any("config_per_account_cap", cfg.Supply.PerAccountCap))
	}
	return ledger, seq, nil
}

func (b *Bootstrap) openSinks() error {
	n := b.Config.Notify

	if n.Log.Enabled {
		b.Sinks = append(b.Sinks, notify.NewLogSink(slog.Default()))
	}
	if n.Feed.Enabled {
		b.feed = notify.NewFeed(b.Metrics)
		b.Sinks = append(b.Sinks, b.feed)
	}
	if n.Kafka.Enabled {
		b.Sinks = append(b.Sinks, notify.NewKafkaSink(notify.NewKafkaWriter(n.Kafka.Brokers, n.Kafka.Topic)))
	}
	if n.NATS.Enabled {
		conn, err := notify.DialNATS(n.NATS.URL, b.Config.App.Name)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		b.Sinks = append(b.Sinks, notify.NewNATSSink(conn, n.NATS.Subject))
	}
	if n.Redis.Enabled {
		sink := notify.NewRedisSink(notify.NewRedisClient(n.Redis.Addr, n.Redis.Password, n.Redis.DB), n.Redis.Key, n.Redis.MaxLen)
		b.Sinks = append(b.Sinks, sink)
		b.history = sink
	}

	for _, s := range b.Sinks {
		slog.Info("✅ Notification sink enabled", slog.String("sink", s.Name()))
	}
	return nil
}

func (b *Bootstrap) outboxSize() int {
	if len(b.Sinks) == 0 {
		return 0
	}
	return b.Config.Supply.OutboxSize
}

// Server builds the HTTP server over the initialized service.
func (b *Bootstrap) Server() *api.Server {
	opts := api.Options{
		Mode:            b.Config.Server.Mode,
		IdentityHeader:  b.Config.Server.IdentityHeader,
		Orders:          b.Repo,
		Metrics:         b.Metrics,
		ShutdownTimeout: time.Duration(b.Config.Server.ShutdownTimeout) * time.Second,
	}
	if b.feed != nil {
		opts.Feed = b.feed
	}
	if b.history != nil {
		opts.History = b.history
	}
	return api.NewServer(b.Service, opts)
}

// Run serves until ctx is cancelled or a component fails, then shuts down.
// The sequencer outlives the HTTP server so in-flight requests are answered.
func (b *Bootstrap) Run(ctx context.Context) error {
	seqCtx, stopSequencer := context.WithCancel(context.Background())
	defer stopSequencer()
	go b.Sequencer.Run(seqCtx)
	slog.Info("✅ Sequencer started")

	cfg := b.Config
	dispatcher := service.NewDispatcher(b.Sequencer.Outbox(), b.Sinks, cfg.Notify.MaxRetries, b.Metrics)
	scheduler := service.NewResetScheduler(b.Service, time.Duration(cfg.Supply.ResetPollIntervalSec)*time.Second)
	server := b.Server()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx, cfg.Server.Addr) })
	g.Go(func() error { return scheduler.Run(gctx) })
	g.Go(func() error { return dispatcher.Run(gctx) })

	slog.Info("✨ Supply ledger fully operational", slog.String("addr", cfg.Server.Addr))
	runErr := g.Wait()

	slog.Info("👋 Shutting down gracefully...")
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := b.Sequencer.Flush(flushCtx); err != nil {
		slog.Error("Final flush failed", slog.Any("error", err))
	}
	cancel()
	stopSequencer()
	<-b.Sequencer.Done()

	b.release(context.Background())
	return runErr
}

func (b *Bootstrap) release(ctx context.Context) {
	for _, s := range b.Sinks {
		if err := s.Close(); err != nil {
			slog.Warn("Failed to close sink", slog.String("sink", s.Name()), slog.Any("error", err))
		}
	}
	b.Sinks = nil

	if b.Repo != nil {
		if err := b.Repo.Close(); err != nil {
			slog.Warn("Failed to close storage", slog.Any("error", err))
		}
		b.Repo = nil
	}

	if b.shutdownTracing != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := b.shutdownTracing(shutdownCtx); err != nil {
			slog.Warn("Failed to shut down tracing", slog.Any("error", err))
		}
		b.shutdownTracing = nil
	}
}
