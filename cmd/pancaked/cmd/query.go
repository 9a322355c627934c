package cmd

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/spf13/cobra"

	"github.com/openalpha/pancake/app"
	"github.com/openalpha/pancake/x/pancake/types"
)

const flagLimit = "limit"

// QueryCmd returns the query commands
func QueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "query",
		Aliases: []string{"q"},
		Short:   "Read pool state",
	}
	cmd.AddCommand(
		queryPoolCmd(),
		queryTierCmd(),
		queryBalanceCmd(),
		queryHoldersCmd(),
		queryEstimateCmd(),
		queryConverterCmd(),
		queryHistoryCmd(),
	)
	return cmd
}

// runQuery opens the node read-only and prints what fn returns
func runQuery(cmd *cobra.Command, fn func(n *node, ctx sdk.Context) (interface{}, error)) error {
	n, err := openNode(cmd)
	if err != nil {
		return err
	}
	defer n.Close()

	var out interface{}
	if err := n.Query(func(ctx sdk.Context) error {
		var err error
		out, err = fn(n, ctx)
		return err
	}); err != nil {
		return err
	}
	return printJSON(cmd, out)
}

func queryPoolCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pool",
		Short: "Show the pool and both tiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := openNode(cmd)
			if err != nil {
				return err
			}
			defer n.Close()

			snap, err := n.Snapshot()
			if err != nil {
				return err
			}
			return printJSON(cmd, snap)
		},
	}
}

func queryTierCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tier [senior|junior]",
		Short: "Show one tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, err := types.ParseTier(args[0])
			if err != nil {
				return err
			}
			return runQuery(cmd, func(n *node, ctx sdk.Context) (interface{}, error) {
				return n.PancakeKeeper.TierInfo(ctx, tier)
			})
		},
	}
}

func queryBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance [account]",
		Short: "Show an account's tier tokens and wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := resolveAddress(args[0])
			if err != nil {
				return err
			}
			return runQuery(cmd, func(n *node, ctx sdk.Context) (interface{}, error) {
				return n.PancakeKeeper.Balance(ctx, addr)
			})
		},
	}
}

func queryHoldersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holders [senior|junior]",
		Short: "List the largest holders of a tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, err := types.ParseTier(args[0])
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt(flagLimit)
			return runQuery(cmd, func(n *node, ctx sdk.Context) (interface{}, error) {
				return n.PancakeKeeper.Holders(ctx, tier, limit)
			})
		},
	}
	cmd.Flags().Int(flagLimit, 10, "maximum holders to list")
	return cmd
}

func queryEstimateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "estimate [senior|junior] [amount]",
		Short: "Estimate the ETH paid for redeeming tier tokens",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, err := types.ParseTier(args[0])
			if err != nil {
				return err
			}
			amount, err := app.ParseUnits(args[1])
			if err != nil {
				return err
			}
			return runQuery(cmd, func(n *node, ctx sdk.Context) (interface{}, error) {
				payout, err := n.PancakeKeeper.EstimateWithdrawal(ctx, tier, amount)
				if err != nil {
					return nil, err
				}
				return map[string]string{
					"tier":   string(tier),
					"amount": amount.String(),
					"payout": payout.String(),
					"eth":    app.FormatUnits(payout),
				}, nil
			})
		},
	}
}

func queryConverterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "converter",
		Short: "Show the DAI to ETH converter reserves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuery(cmd, func(n *node, ctx sdk.Context) (interface{}, error) {
				reserves := n.Converter.GetReserves(ctx)
				quote, err := n.Converter.QuoteDaiToEth(ctx, math.NewIntWithDecimal(1000, 18))
				if err != nil {
					quote = math.ZeroInt()
				}
				return map[string]interface{}{
					"address":        n.Converter.Address().String(),
					"reserves":       reserves,
					"eth_per_1k_dai": app.FormatUnits(quote),
				}, nil
			})
		},
	}
}

func queryHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded pool marks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := openNode(cmd)
			if err != nil {
				return err
			}
			defer n.Close()

			limit, _ := cmd.Flags().GetInt(flagLimit)
			marks, err := n.history.History(limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, marks)
		},
	}
	cmd.Flags().Int(flagLimit, 20, "maximum marks to list")
	return cmd
}
