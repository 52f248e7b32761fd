package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-amm/internal/cli/render"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// NewPoolCmd creates the pool command group
func NewPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Manage liquidity pools",
	}
	cmd.AddCommand(newPoolCreateCmd())
	return cmd
}

func newPoolCreateCmd() *cobra.Command {
	var networkIdentity string
	var collectionIdentity string
	var from string

	cmd := &cobra.Command{
		Use:   "create <token>",
		Short: "Create a pool for a token in the default pool collection",
		Long: `Call createPools([token], collection) on the network contract. The token is an artifact
identity, a ${artifact:<identity>} reference or a hex address.

Examples:
  treb-amm pool create TestToken1 --network local
  treb-amm pool create 0x6B175474E89094C44Da98b954EedeAC495271d0F --network mainnet --from foundation`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.CreatePool.Execute(cmd.Context(), usecase.CreatePoolParams{
				Network:            app.Config.Network,
				Token:              args[0],
				NetworkIdentity:    networkIdentity,
				CollectionIdentity: collectionIdentity,
				From:               from,
				Yes:                app.Config.Yes,
			})
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), result)
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.FormatSuccess(fmt.Sprintf("Created pool for %s in collection %s", result.Token.Hex(), result.Collection.Hex())))
			if result.Receipt != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "  tx %s (block %s)\n", result.Receipt.TxHash.Hex(), result.Receipt.BlockNumber)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&networkIdentity, "network-contract", "", "Identity of the network contract (default BancorNetwork)")
	cmd.Flags().StringVar(&collectionIdentity, "collection", "", "Identity of the pool collection (default PoolCollection)")
	cmd.Flags().StringVar(&from, "from", "", "Account sending the transaction (default deployer)")

	return cmd
}
