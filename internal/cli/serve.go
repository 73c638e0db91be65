package cli

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"supply_go/internal/app"

	"github.com/spf13/cobra"

	_ "net/http/pprof" // For pprof profiling
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	PprofAddr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ledger server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.PprofAddr, "pprof", "", "pprof listen address, e.g. localhost:6060 (disabled when empty)")

	return cmd
}

func serve(cmd *cobra.Command, opts *ServeOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.PprofAddr != "" {
		go func() {
			slog.Info("🕵️ Pprof server started", slog.String("addr", opts.PprofAddr))
			if err := http.ListenAndServe(opts.PprofAddr, nil); err != nil {
				slog.Error("Pprof server failed", slog.Any("error", err))
			}
		}()
	}

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(ctx, opts.ConfigPath); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		return err
	}
	return bootstrap.Run(ctx)
}
