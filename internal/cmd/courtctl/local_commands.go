package courtctl

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/louisbranch/decicourt/internal/services/court/domain/dispute"
)

func saltCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "salt",
		Short: "Print a random 32-byte salt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			salt, err := dispute.NewSalt()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), salt)
			return err
		},
	}
}

func commitmentCommand() *cobra.Command {
	var vote, salt string
	cmd := &cobra.Command{
		Use:   "commitment",
		Short: "Compute keccak256(vote || salt) without contacting the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sealed, _, err := seal(vote, salt)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), sealed)
			return err
		},
	}
	cmd.Flags().StringVar(&vote, "vote", "", "plaintiff or defendant")
	cmd.Flags().StringVar(&salt, "salt", "", "32-byte hex salt")
	_ = cmd.MarkFlagRequired("vote")
	_ = cmd.MarkFlagRequired("salt")
	return cmd
}
