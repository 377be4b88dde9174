package courtctl

import (
	"github.com/spf13/cobra"

	tokenservice "github.com/louisbranch/decicourt/internal/services/court/api/grpc/token"
)

func (c *client) token(cmd *cobra.Command, method string, fields map[string]any) error {
	return c.invoke(cmd, tokenservice.ServiceName, method, fields)
}

func (c *client) tokenCommands() []*cobra.Command {
	var approveSpender string
	approve := &cobra.Command{
		Use:   "approve <amount>",
		Short: "Allow a spender, by default the court escrow, to pull tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.token(cmd, "Approve", map[string]any{
				"spender": approveSpender,
				"amount":  args[0],
			})
		},
	}
	approve.Flags().StringVar(&approveSpender, "spender", "", "Spender account (default: court escrow)")

	var owner, spender string
	allowance := &cobra.Command{
		Use:   "allowance",
		Short: "Show what a spender may still pull from an owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.token(cmd, "Allowance", map[string]any{
				"owner":   owner,
				"spender": spender,
			})
		},
	}
	allowance.Flags().StringVar(&owner, "owner", "", "Owner account (default: caller)")
	allowance.Flags().StringVar(&spender, "spender", "", "Spender account (default: court escrow)")

	balance := accountCommand("balance [account]", "Show a token balance", func(cmd *cobra.Command, fields map[string]any) error {
		return c.token(cmd, "BalanceOf", fields)
	})

	transfer := &cobra.Command{
		Use:   "transfer <to> <amount>",
		Short: "Send tokens to another account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.token(cmd, "Transfer", map[string]any{
				"to":     args[0],
				"amount": args[1],
			})
		},
	}

	return []*cobra.Command{approve, allowance, balance, transfer}
}
