package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"supply_go/internal/domain"
	"supply_go/internal/event"
	"supply_go/internal/infra"
	"supply_go/internal/service"

	"github.com/gin-gonic/gin"
)

// Ledger is the set of supply operations exposed over HTTP.
type Ledger interface {
	Order(ctx context.Context, caller domain.Caller, quantity uint32) (service.OrderReceipt, error)
	Reset(ctx context.Context) (service.ResetResult, error)
	Status() service.Status
	AccountTotal(ctx context.Context, raw string) (service.AccountView, error)
}

// History serves recently published notifications.
type History interface {
	Recent(ctx context.Context, limit int) ([]event.Envelope, error)
}

// OrderLog pages through persisted order entries.
type OrderLog interface {
	Orders(ctx context.Context, afterSeq uint64, limit int) ([]domain.OrderEntry, error)
}

// MetricsSource reports process counters.
type MetricsSource interface {
	Snapshot() infra.MetricsSnapshot
}

// Options configures optional routes. Nil fields disable their routes.
type Options struct {
	Mode            string
	IdentityHeader  string
	Feed            http.Handler
	History         History
	Orders          OrderLog
	Metrics         MetricsSource
	ShutdownTimeout time.Duration
}

// Server is the HTTP front of the ledger.
type Server struct {
	router          *gin.Engine
	ledger          Ledger
	identityHeader  string
	feed            http.Handler
	history         History
	orders          OrderLog
	metrics         MetricsSource
	shutdownTimeout time.Duration
}

// NewServer builds the router.
func NewServer(ledger Ledger, opts Options) *Server {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	if opts.IdentityHeader == "" {
		opts.IdentityHeader = infra.DefaultIdentityHeader
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		router:          gin.New(),
		ledger:          ledger,
		identityHeader:  opts.IdentityHeader,
		feed:            opts.Feed,
		history:         opts.History,
		orders:          opts.Orders,
		metrics:         opts.Metrics,
		shutdownTimeout: opts.ShutdownTimeout,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestLogger())

	s.router.GET("/health", s.health)

	v1 := s.router.Group("/v1")
	{
		v1.GET("/supply", s.getSupply)
		v1.POST("/supply/reset", s.resetSupply)
		v1.GET("/accounts/:id", s.getAccount)
		v1.POST("/orders", s.identity(), s.createOrder)

		if s.metrics != nil {
			v1.GET("/metrics", s.getMetrics)
		}
		if s.orders != nil {
			v1.GET("/orders", s.listOrders)
		}
		if s.history != nil {
			v1.GET("/notifications", s.listNotifications)
		}
		if s.feed != nil {
			v1.GET("/feed", gin.WrapH(s.feed))
		}
	}
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("🌐 HTTP server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("HTTP server stopped")
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("HTTP request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)))
	}
}
