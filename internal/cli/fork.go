package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-amm/internal/app"
	"github.com/trebuchet-org/treb-amm/internal/cli/render"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// NewForkCmd creates the fork command
func NewForkCmd() *cobra.Command {
	var port int
	var repeat bool
	var verify bool

	cmd := &cobra.Command{
		Use:   "fork <tag>",
		Short: "Rehearse a tag against a throwaway anvil fork of a production network",
		Long: `Start anvil forking the selected network, run the tag in production-fork mode with the
configured accounts impersonated, print the resulting role assignment and stop anvil.
Nothing is recorded for the forked network.

With --repeat the fork is reverted to its initial state and the tag is run a second time; the
two role assignments must match.

Examples:
  treb-amm fork V3 --network mainnet
  treb-amm fork V3 --network mainnet --repeat --verify`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.RunFork.Execute(cmd.Context(), usecase.RunForkParams{
				Network: app.Config.Network,
				Tag:     args[0],
				Port:    port,
				Repeat:  repeat,
				Verify:  verify,
			})
			if err != nil {
				return err
			}

			if app.Config.JSON {
				if err := render.JSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else if err := render.NewForkRenderer(cmd.OutOrStdout(), runNames(result.Run)).Render(result); err != nil {
				return err
			}

			if result.Diff != "" || (result.Report != nil && !result.Report.Passed()) {
				return errChecksFailed
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 8545, "Port anvil listens on")
	cmd.Flags().BoolVar(&repeat, "repeat", false, "Run the tag twice from the same fork state and compare role assignments")
	cmd.Flags().BoolVar(&verify, "verify", true, "Verify the forked state")

	return cmd
}

// runNames labels the addresses of a run's records with their identities
func runNames(run *usecase.RunTagResult) map[string]string {
	names := map[string]string{}
	if run == nil {
		return names
	}
	for identity, rec := range run.Records {
		if rec != nil && !rec.Skipped {
			names[rec.Address.Hex()] = identity
		}
	}
	return names
}

// artifactNames labels the addresses recorded for network with their identities
func artifactNames(ctx context.Context, a *app.App, network string) map[string]string {
	names := map[string]string{}
	result, err := a.ListArtifacts.Execute(ctx, usecase.ListArtifactsParams{Network: network})
	if err != nil {
		a.Log.Debug("could not label addresses", "error", err)
		return names
	}
	for _, rec := range result.Artifacts {
		names[rec.Address.Hex()] = rec.Identity
	}
	return names
}
