package cli

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-amm/internal/cli/render"
	"github.com/trebuchet-org/treb-amm/internal/config"
	domainconfig "github.com/trebuchet-org/treb-amm/internal/domain/config"
)

// NewNetworksCmd creates the networks command
func NewNetworksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "networks",
		Short: "List the networks configured in treb-amm.toml",
		Long: `List all networks of the [networks] section of treb-amm.toml with their mode and the number
of recorded artifacts. Chain IDs that are not configured are fetched from the node.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ListNetworks.Run(cmd.Context())
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), result.Networks)
			}
			return render.NewNetworksRenderer(cmd.OutOrStdout()).RenderNetworksList(result)
		},
	}

	cmd.AddCommand(newNetworksEnvCmd())

	return cmd
}

func newNetworksEnvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env [network...]",
		Short: "Move hardcoded rpc_url values from treb-amm.toml into .env",
		Long: `Replace every literal rpc_url of treb-amm.toml with a ${<NAME>_RPC_URL} reference and
append the value to .env, so that endpoints carrying API keys stay out of version control.
Networks that already reference an env var are left alone.

Examples:
  treb-amm networks env
  treb-amm networks env mainnet sepolia --non-interactive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			return runNetworksEnv(cmd, app.Config, args)
		},
	}

	return cmd
}

// runNetworksEnv moves the hardcoded endpoints of the named networks, or of all networks
func runNetworksEnv(cmd *cobra.Command, cfg *domainconfig.RuntimeConfig, names []string) error {
	out := cmd.OutOrStdout()

	raw, err := config.LoadRawRPCEndpoints(cfg.ProjectRoot)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		for name := range raw {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var pending []string
	for _, name := range names {
		value, ok := raw[name]
		if !ok {
			return fmt.Errorf("network '%s' not found in %s [networks]", name, config.ProjectFileName)
		}
		if _, isRef := config.DetectEnvVar(value); isRef || value == "" {
			continue
		}
		pending = append(pending, name)
	}

	if len(pending) == 0 {
		fmt.Fprintln(out, "No hardcoded rpc_url values found, nothing to move.")
		return nil
	}

	fmt.Fprintln(out, "The following endpoints will be moved to .env:")
	fmt.Fprintln(out)
	for _, name := range pending {
		fmt.Fprintf(out, "  %-12s rpc_url = \"${%s}\"\n", name, config.GenerateEnvVarName(name))
	}
	fmt.Fprintln(out)

	if !cfg.NonInteractive && !cfg.Yes && !confirmPrompt("Update treb-amm.toml and .env?") {
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}

	green := color.New(color.FgGreen, color.Bold)
	for _, name := range pending {
		envVar, err := config.MigrateRPCEndpoint(cfg.ProjectRoot, name, raw[name])
		if err != nil {
			return fmt.Errorf("network %s: %w", name, err)
		}
		green.Fprintf(out, "✓ %s now reads ${%s}\n", name, envVar)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Make sure .env is listed in .gitignore.")
	return nil
}

// confirmPrompt asks the user a yes/no question and returns their choice.
func confirmPrompt(label string) bool {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}

	_, err := prompt.Run()
	return err == nil
}
