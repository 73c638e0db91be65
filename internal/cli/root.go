package cli

import (
	"fmt"
	"slices"

	"supply_go/internal/infra"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath     string
	Server         string
	IdentityHeader string
	Format         string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "supply",
		Short: "Limited daily supply ledger",
		Long: `A single-writer ledger for a limited daily supply.

Every window holds a fixed number of units; each account may order up to
its lifetime cap. "serve" runs the authoritative instance, the other
commands talk to it over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "configs/config.yaml", "configuration file")
	cmd.PersistentFlags().StringVar(&opts.Server, "server", "http://localhost:8080", "server base URL for client commands")
	cmd.PersistentFlags().StringVar(&opts.IdentityHeader, "identity-header", infra.DefaultIdentityHeader, "header carrying the caller account")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewOrderCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewAccountCommand(opts))
	cmd.AddCommand(NewOrdersCommand(opts))

	return cmd
}
