package courtctl

import (
	"fmt"

	"github.com/spf13/cobra"

	courtservice "github.com/louisbranch/decicourt/internal/services/court/api/grpc/court"
	"github.com/louisbranch/decicourt/internal/services/court/domain/dispute"
)

func (c *client) court(cmd *cobra.Command, method string, fields map[string]any) error {
	return c.invoke(cmd, courtservice.ServiceName, method, fields)
}

func (c *client) courtCommands() []*cobra.Command {
	register := &cobra.Command{
		Use:   "register",
		Short: "Stake the juror deposit and join the pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.court(cmd, "RegisterAsJuror", nil)
		},
	}
	unregister := &cobra.Command{
		Use:   "unregister",
		Short: "Leave the juror pool and withdraw the remaining stake",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.court(cmd, "UnregisterAsJuror", nil)
		},
	}

	var evidence string
	createCase := &cobra.Command{
		Use:   "create-case <defendant>",
		Short: "File a case and pay the filing fee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.court(cmd, "CreateCase", map[string]any{
				"defendant":    args[0],
				"evidence_ref": evidence,
			})
		},
	}
	createCase.Flags().StringVar(&evidence, "evidence", "", "Evidence reference, e.g. an IPFS hash")

	var commitVote, commitSalt, commitment string
	commit := &cobra.Command{
		Use:   "commit <case-id>",
		Short: "Seal a vote",
		Long: `Seal a vote on a case.

Pass --commitment to send a precomputed commitment, or --vote to compute one
locally. Without --salt a fresh salt is generated and printed; keep it for
the reveal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if commitment == "" {
				sealed, salt, err := seal(commitVote, commitSalt)
				if err != nil {
					return err
				}
				if commitSalt == "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "salt: %s\n", salt)
				}
				commitment = sealed.String()
			}
			return c.court(cmd, "CommitVote", map[string]any{
				"case_id":    args[0],
				"commitment": commitment,
			})
		},
	}
	commit.Flags().StringVar(&commitVote, "vote", "", "plaintiff or defendant")
	commit.Flags().StringVar(&commitSalt, "salt", "", "32-byte hex salt")
	commit.Flags().StringVar(&commitment, "commitment", "", "Precomputed commitment")

	var revealVote, revealSalt string
	reveal := &cobra.Command{
		Use:   "reveal <case-id>",
		Short: "Reveal a sealed vote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.court(cmd, "RevealVote", map[string]any{
				"case_id": args[0],
				"vote":    revealVote,
				"salt":    revealSalt,
			})
		},
	}
	reveal.Flags().StringVar(&revealVote, "vote", "", "plaintiff or defendant")
	reveal.Flags().StringVar(&revealSalt, "salt", "", "Salt used for the commitment")
	_ = reveal.MarkFlagRequired("vote")
	_ = reveal.MarkFlagRequired("salt")

	verdict := caseCommand("verdict <case-id>", "Tally a case after its reveal phase", func(cmd *cobra.Command, caseID string) error {
		return c.court(cmd, "ExecuteVerdict", map[string]any{"case_id": caseID})
	})
	appeal := caseCommand("appeal <case-id>", "Appeal a resolved case and pay the deposit", func(cmd *cobra.Command, caseID string) error {
		return c.court(cmd, "Appeal", map[string]any{"case_id": caseID})
	})
	getCase := caseCommand("case <case-id>", "Show a case", func(cmd *cobra.Command, caseID string) error {
		return c.court(cmd, "GetCase", map[string]any{"case_id": caseID})
	})
	jurors := caseCommand("jurors <case-id>", "Show a case's jurors and ballot progress", func(cmd *cobra.Command, caseID string) error {
		return c.court(cmd, "GetCaseJurors", map[string]any{"case_id": caseID})
	})

	juror := accountCommand("juror [account]", "Show juror registration", func(cmd *cobra.Command, fields map[string]any) error {
		return c.court(cmd, "GetJuror", fields)
	})
	reputation := accountCommand("reputation [account]", "Show juror reputation", func(cmd *cobra.Command, fields map[string]any) error {
		return c.court(cmd, "GetJurorReputation", fields)
	})

	params := &cobra.Command{
		Use:   "params",
		Short: "Show court parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.court(cmd, "GetParams", nil)
		},
	}

	var filter, orderBy, pageToken string
	var pageSize int
	events := &cobra.Command{
		Use:   "events",
		Short: "List journal events",
		Long: `List journal events.

--filter takes an AIP-160 expression over type, actor_type, actor_id,
entity_type, entity_id, case_id and ts, for example:

  courtctl events --filter 'case_id = 1 AND type = "vote.revealed"'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.court(cmd, "ListEvents", map[string]any{
				"filter":     filter,
				"order_by":   orderBy,
				"page_size":  float64(pageSize),
				"page_token": pageToken,
			})
		},
	}
	events.Flags().StringVar(&filter, "filter", "", "Filter expression")
	events.Flags().StringVar(&orderBy, "order-by", "", `"seq" or "seq desc"`)
	events.Flags().IntVar(&pageSize, "page-size", 0, "Events per page (max 200)")
	events.Flags().StringVar(&pageToken, "page-token", "", "next_page_token from a previous call")

	verify := &cobra.Command{
		Use:   "verify",
		Short: "Verify the journal hash chain and signatures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.court(cmd, "VerifyJournal", nil)
		},
	}

	return []*cobra.Command{
		register, unregister, createCase, commit, reveal, verdict, appeal,
		getCase, jurors, juror, reputation, params, events, verify,
	}
}

func caseCommand(use, short string, run func(*cobra.Command, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}
}

func accountCommand(use, short string, run func(*cobra.Command, map[string]any) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := map[string]any{}
			if len(args) == 1 {
				fields["account"] = args[0]
			}
			return run(cmd, fields)
		},
	}
}

// seal computes a commitment for vote, generating a salt when salt is empty.
func seal(vote, salt string) (dispute.Word, dispute.Word, error) {
	parsed, err := dispute.ParseVote(vote)
	if err != nil {
		return dispute.Word{}, dispute.Word{}, err
	}
	var word dispute.Word
	if salt == "" {
		word, err = dispute.NewSalt()
	} else {
		word, err = dispute.ParseWord(salt)
	}
	if err != nil {
		return dispute.Word{}, dispute.Word{}, err
	}
	return dispute.Commit(parsed, word), word, nil
}
