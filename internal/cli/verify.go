package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-amm/internal/cli/render"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *cobra.Command {
	var tag string
	var failuresOnly bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the recorded contracts against the migration's expectations",
		Long: `Read the state of every recorded contract and compare it with the expect blocks of the
migration: role holder sets, address wiring and numeric parameters. Also fails for every
elevated role a step's sender kept, except roles the migration retains on purpose.

Exits non-zero when a check fails.

Examples:
  treb-amm verify --network mainnet
  treb-amm verify --network sepolia --tag V3 --failures-only`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			report, err := app.VerifyMigration.Execute(cmd.Context(), usecase.VerifyMigrationParams{
				Network: app.Config.Network,
				Tag:     tag,
			})
			if err != nil {
				return err
			}

			if app.Config.JSON {
				if err := render.JSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				renderer := render.NewVerifyRenderer(cmd.OutOrStdout())
				renderer.FailuresOnly = failuresOnly
				if err := renderer.Render(report); err != nil {
					return err
				}
			}

			if !report.Passed() {
				return errChecksFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "Only verify the closure of this tag")
	cmd.Flags().BoolVar(&failuresOnly, "failures-only", false, "Only print failed checks")

	return cmd
}
