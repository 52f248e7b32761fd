package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-amm/internal/cli/render"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// NewArtifactsCmd creates the artifacts command group
func NewArtifactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "artifacts",
		Aliases: []string{"ls"},
		Short:   "Inspect the contracts recorded for a network",
	}

	cmd.AddCommand(newArtifactsListCmd())
	cmd.AddCommand(newArtifactsShowCmd())

	return cmd
}

func newArtifactsListCmd() *cobra.Command {
	var template string
	var contains string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ListArtifacts.Execute(cmd.Context(), usecase.ListArtifactsParams{
				Network:  app.Config.Network,
				Template: template,
				Contains: contains,
			})
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), result.Artifacts)
			}
			return render.NewArtifactsRenderer(cmd.OutOrStdout()).RenderList(result)
		},
	}

	cmd.Flags().StringVar(&template, "template", "", "Only list records of this template")
	cmd.Flags().StringVar(&contains, "contains", "", "Only list identities containing this text")

	return cmd
}

func newArtifactsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <identity>",
		Short: "Show one recorded artifact",
		Long: `Show one recorded artifact and the history entry of its deployment.

A query that is not an exact identity matches identities containing it, case-insensitively.
Several matches open a fuzzy selector, or fail with --non-interactive.

Examples:
  treb-amm artifacts show MasterVault --network mainnet
  treb-amm artifacts show vault --network mainnet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ShowArtifact.Execute(cmd.Context(), app.Config.Network, args[0])
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), result)
			}
			return render.NewArtifactsRenderer(cmd.OutOrStdout()).RenderShow(result)
		},
	}

	return cmd
}
