package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-amm/internal/cli/render"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// NewRolesCmd creates the roles command group
func NewRolesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Inspect and change role assignments",
	}

	cmd.AddCommand(newRolesSnapshotCmd())
	cmd.AddCommand(newRoleChangeCmd(false))
	cmd.AddCommand(newRoleChangeCmd(true))

	return cmd
}

func newRolesSnapshotCmd() *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "List the holders of every role on the recorded contracts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.SnapshotRoles.Execute(cmd.Context(), usecase.SnapshotRolesParams{
				Network: app.Config.Network,
				Tag:     tag,
			})
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), result.Snapshot.Grants())
			}
			names := artifactNames(cmd.Context(), app, result.Network)
			return render.NewRolesRenderer(cmd.OutOrStdout(), names).RenderSnapshot(result.Network, result.Snapshot)
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "Only read the contracts of this tag's closure")

	return cmd
}

func newRoleChangeCmd(revoke bool) *cobra.Command {
	var by string

	use, short := "give", "Grant a role on a recorded contract"
	if revoke {
		use, short = "revoke", "Revoke a role on a recorded contract"
	}

	cmd := &cobra.Command{
		Use:   use + " <identity> <role> <account>",
		Short: short,
		Long: short + `. The account is an account name from treb-amm.toml, a hex address or a
${artifact:<identity>} reference. The transaction is recorded in the history log.

Examples:
  treb-amm roles ` + use + ` MasterVault ROLE_ASSET_MANAGER foundation --network sepolia
  treb-amm roles ` + use + ` BNTGovernance ROLE_MINTER 0x1234... --by foundation --network sepolia`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ManageRole.Execute(cmd.Context(), usecase.ManageRoleParams{
				Network:  app.Config.Network,
				Identity: args[0],
				Role:     args[1],
				Account:  args[2],
				By:       by,
				Revoke:   revoke,
				Yes:      app.Config.Yes,
			})
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), result)
			}
			names := artifactNames(cmd.Context(), app, app.Config.Network)
			return render.NewRolesRenderer(cmd.OutOrStdout(), names).RenderChange(result)
		},
	}

	cmd.Flags().StringVar(&by, "by", "", "Account sending the transaction (default deployer)")

	return cmd
}
