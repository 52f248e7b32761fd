package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-amm/internal/cli/render"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// NewFormulasCmd creates the formulas command group
func NewFormulasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formulas",
		Short: "Verify the pool formulas against their reference values",
	}
	cmd.AddCommand(newFormulasVerifyCmd())
	return cmd
}

func newFormulasVerifyCmd() *cobra.Command {
	var formulas []string
	var stress bool
	var sweeps bool
	var quickRows int
	var concurrency int

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Replay the formula case tables",
		Long: `Replay the bundled case tables, and the tables of [verification] tables_dir, through the
fixed-point formulas. With --network the cases run through the deployed formula harness
contract instead.

Quick mode replays the first rows of every table; --stress replays all of them.

Examples:
  treb-amm formulas verify
  treb-amm formulas verify --stress --sweeps
  treb-amm formulas verify --formula withdrawalAmounts --network local`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			if quickRows == 0 {
				quickRows = app.Config.Verification.QuickRows
			}
			result, err := app.VerifyFormulas.Execute(cmd.Context(), usecase.VerifyFormulasParams{
				Network:        app.Config.Network,
				Formulas:       formulas,
				Stress:         stress,
				Sweeps:         sweeps,
				QuickRows:      quickRows,
				TablesDir:      app.Config.Verification.TablesDir,
				TolerancesFile: app.Config.Verification.Tolerances,
				Concurrency:    concurrency,
			})
			if err != nil {
				return err
			}

			if app.Config.JSON {
				if err := render.JSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else if err := render.NewFormulasRenderer(cmd.OutOrStdout()).Render(result); err != nil {
				return err
			}

			if !result.Passed() {
				return errChecksFailed
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&formulas, "formula", nil, "Only verify these formulas")
	cmd.Flags().BoolVar(&stress, "stress", false, "Replay every row instead of the quick subset")
	cmd.Flags().BoolVar(&sweeps, "sweeps", false, "Also run the parameter sweeps")
	cmd.Flags().IntVar(&quickRows, "quick-rows", 0, "Rows per table in quick mode")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Tables verified in parallel (0 for no limit)")

	return cmd
}
