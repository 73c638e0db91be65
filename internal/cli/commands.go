package cli

import (
	"errors"
	"fmt"
	"io"

	"supply_go/internal/service"

	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the remaining supply and window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := NewClient(rootOpts.Server, rootOpts.IdentityHeader).Status(cmd.Context())
			if err != nil {
				return err
			}
			return newPrinter(rootOpts, cmd.OutOrStdout()).print(st, func(w io.Writer) {
				kv(w, "Remaining", fmt.Sprintf("%d / %d", st.Remaining, st.DailyCap))
				kv(w, "Utilization", st.Utilization+"%")
				kv(w, "Per-account cap", st.PerAccountCap)
				kv(w, "Total orders", st.TotalOrders)
				kv(w, "Accounts", st.Accounts)
				kv(w, "Last reset", st.LastResetAt.String())
				if st.NextResetAt != nil {
					kv(w, "Next reset", st.NextResetAt.String())
				}
			})
		},
	}
}

// OrderOptions holds flags for the order command.
type OrderOptions struct {
	*RootOptions
	Account  string
	Quantity uint32
}

// NewOrderCommand creates the order command.
func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OrderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "order",
		Short:   "Order units for an account",
		Example: `  supply order --account alice --quantity 2`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Account == "" {
				return errors.New("--account is required")
			}
			receipt, err := NewClient(opts.Server, opts.IdentityHeader).Order(cmd.Context(), opts.Account, opts.Quantity)
			if err != nil {
				return err
			}
			return newPrinter(rootOpts, cmd.OutOrStdout()).print(receipt, func(w io.Writer) {
				fmt.Fprintf(w, "✅ Order #%d accepted: %s +%d (total %d), %d remaining\n",
					receipt.Seq, receipt.Account, receipt.Quantity, receipt.NewTotal, receipt.Remaining)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Account, "account", "a", "", "ordering account")
	cmd.Flags().Uint32VarP(&opts.Quantity, "quantity", "q", 1, "units to order")

	return cmd
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Refill the supply if the window has elapsed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := NewClient(rootOpts.Server, rootOpts.IdentityHeader).Reset(cmd.Context())
			if err != nil {
				return err
			}
			return newPrinter(rootOpts, cmd.OutOrStdout()).print(res, func(w io.Writer) {
				if res.Applied {
					fmt.Fprintf(w, "✅ Supply reset to %d at %s\n", res.Remaining, res.LastResetAt)
					return
				}
				fmt.Fprintf(w, "Window still open since %s, %d remaining\n", res.LastResetAt, res.Remaining)
			})
		},
	}
}

// NewAccountCommand creates the account command.
func NewAccountCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "account <id>",
		Short: "Show the total ordered by an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := NewClient(rootOpts.Server, rootOpts.IdentityHeader).Account(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return newPrinter(rootOpts, cmd.OutOrStdout()).print(view, func(w io.Writer) {
				printAccount(w, view)
			})
		},
	}
}

func printAccount(w io.Writer, view service.AccountView) {
	kv(w, "Account", view.Account)
	kv(w, "Total", fmt.Sprintf("%d / %d", view.Total, view.PerAccountCap))
	kv(w, "Allowance", view.Allowance)
}

// OrdersOptions holds flags for the orders command.
type OrdersOptions struct {
	*RootOptions
	After uint64
	Limit int
}

// NewOrdersCommand creates the orders command.
func NewOrdersCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OrdersOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List persisted orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := NewClient(opts.Server, opts.IdentityHeader).Orders(cmd.Context(), opts.After, opts.Limit)
			if err != nil {
				return err
			}
			return newPrinter(rootOpts, cmd.OutOrStdout()).print(entries, func(w io.Writer) {
				if len(entries) == 0 {
					fmt.Fprintln(w, "No orders")
					return
				}
				for _, e := range entries {
					fmt.Fprintf(w, "#%-6d %s  %-20s +%d (total %d)\n", e.Seq, e.At, e.Account, e.Quantity, e.NewTotal)
				}
			})
		},
	}

	cmd.Flags().Uint64Var(&opts.After, "after", 0, "only orders with a greater sequence number")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "maximum number of orders")

	return cmd
}
