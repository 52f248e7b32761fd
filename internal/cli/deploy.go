package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-amm/internal/cli/render"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	var reset bool
	var verify bool

	cmd := &cobra.Command{
		Use:   "deploy <tag>",
		Short: "Run every step of a tag and its dependencies",
		Long: `Run the closure of a tag on the selected network in dependency order.

Recorded steps are reused. Steps marked devOnly are skipped on production networks. Every
broadcast to a production network asks for confirmation unless --yes is given.

Examples:
  treb-amm deploy V3 --network sepolia
  treb-amm deploy V3 --network local --reset
  treb-amm deploy V3 --network mainnet --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.DeploySystem.Execute(cmd.Context(), usecase.DeploySystemParams{
				Network: app.Config.Network,
				Tag:     args[0],
				Reset:   reset,
				Verify:  verify,
				Yes:     app.Config.Yes,
			})
			if err != nil {
				return err
			}

			return renderDeployResult(cmd, app.Config.JSON, result)
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Delete the network's recorded artifacts first (development networks and forks only)")
	cmd.Flags().BoolVar(&verify, "verify", false, "Verify the deployed state afterwards")

	return cmd
}

func renderDeployResult(cmd *cobra.Command, asJSON bool, result *usecase.DeploySystemResult) error {
	if asJSON {
		if err := render.JSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else if err := render.NewDeployRenderer(cmd.OutOrStdout()).Render(result); err != nil {
		return err
	}

	if result.Report != nil && !result.Report.Passed() {
		return errChecksFailed
	}
	return nil
}
