package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// NewMigrateCmd creates the migrate command
func NewMigrateCmd() *cobra.Command {
	var from string
	var to string
	var verify bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Layer one tag on top of a fully recorded one",
		Long: `Check that every step of the --from tag is recorded and configured on the network, then run
the --to tag on top of it. Use this for staged rollouts where the first stage is already live.

Examples:
  treb-amm migrate --from V2 --to V3 --network mainnet
  treb-amm migrate --from V2 --to V3 --network mainnet --verify`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.MigrateSystem.Execute(cmd.Context(), usecase.MigrateSystemParams{
				Network: app.Config.Network,
				From:    from,
				To:      to,
				Verify:  verify,
				Yes:     app.Config.Yes,
			})
			if err != nil {
				return err
			}

			return renderDeployResult(cmd, app.Config.JSON, result)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Tag that must already be recorded")
	cmd.Flags().StringVar(&to, "to", "", "Tag to run")
	cmd.Flags().BoolVar(&verify, "verify", true, "Verify the migrated state afterwards")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}
