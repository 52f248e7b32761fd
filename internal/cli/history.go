package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-amm/internal/cli/render"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// NewHistoryCmd creates the history command
func NewHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the transactions recorded for a network, newest session first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			sessions, err := app.ShowHistory.Execute(cmd.Context(), usecase.ShowHistoryParams{
				Network: app.Config.Network,
				Limit:   limit,
			})
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), sessions)
			}
			return render.NewHistoryRenderer(cmd.OutOrStdout()).Render(app.Config.Network, sessions)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Only show the newest N sessions")

	return cmd
}
