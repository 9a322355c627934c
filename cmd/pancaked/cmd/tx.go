package cmd

import (
	"fmt"
	"strings"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/spf13/cobra"

	"github.com/openalpha/pancake/app"
	"github.com/openalpha/pancake/x/pancake/types"
)

const (
	flagFrom  = "from"
	flagTimes = "times"
)

// txOutput is printed after every committed transaction
type txOutput struct {
	Op     string      `json:"op"`
	Height int64       `json:"height"`
	Result interface{} `json:"result"`
	Events sdk.Events  `json:"events,omitempty"`
}

// TxCmd returns the transaction commands
func TxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Pool transactions",
	}
	cmd.AddCommand(
		txDepositCmd(),
		txKickoffCmd(),
		txUpdateCmd(),
		txEnableWithdrawalsCmd(),
		txWithdrawCmd(),
		txTransferCmd(),
		txApproveCmd(),
		txTransferFromCmd(),
	)
	return cmd
}

// runTx opens the node and commits one message through the msg server
func runTx[R any](cmd *cobra.Command, op string, run func(n *node, ctx sdk.Context) (*R, error)) error {
	n, err := openNode(cmd)
	if err != nil {
		return err
	}
	defer n.Close()

	var resp *R
	res, err := n.Exec(op, func(ctx sdk.Context) error {
		var err error
		resp, err = run(n, ctx)
		return err
	})
	if err != nil {
		return err
	}
	return printJSON(cmd, txOutput{Op: op, Height: res.Height, Result: resp, Events: res.Events})
}

// tokens parses a whole-token amount into base units
func tokens(s string) (string, error) {
	amount, err := app.ParseUnits(s)
	if err != nil {
		return "", err
	}
	return amount.String(), nil
}

func address(s string) (string, error) {
	addr, err := resolveAddress(s)
	if err != nil {
		return "", err
	}
	return addr.String(), nil
}

func fromFlag(cmd *cobra.Command, cfg func(*app.Config) string) (string, error) {
	if v, _ := cmd.Flags().GetString(flagFrom); v != "" {
		return address(v)
	}
	c, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	return cfg(c), nil
}

func txDepositCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "deposit [account] [senior|junior] [ETH|DAI] [amount]",
		Short:   "Deposit ETH or DAI into a tier",
		Example: "pancaked tx deposit alice senior ETH 1.5",
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			depositor, err := address(args[0])
			if err != nil {
				return err
			}
			amount, err := tokens(args[3])
			if err != nil {
				return err
			}
			msg := &types.MsgDeposit{Depositor: depositor, Tier: args[1], Asset: args[2], Amount: amount}
			if err := msg.ValidateBasic(); err != nil {
				return err
			}
			return runTx(cmd, types.TypeMsgDeposit, func(n *node, ctx sdk.Context) (*types.MsgDepositResponse, error) {
				return n.MsgServer.Deposit(ctx, msg)
			})
		},
	}
}

func txKickoffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kickoff",
		Short: "Close deposits, convert DAI to ETH and start the lockup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			operator, err := fromFlag(cmd, func(c *app.Config) string { return c.Pool.Operator })
			if err != nil {
				return err
			}
			msg := &types.MsgKickoff{Operator: operator}
			return runTx(cmd, types.TypeMsgKickoff, func(n *node, ctx sdk.Context) (*types.MsgKickoffResponse, error) {
				return n.MsgServer.Kickoff(ctx, msg)
			})
		},
	}
	cmd.Flags().String(flagFrom, "", "operator (default from config)")
	return cmd
}

func txUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Reprice the tiers at the current feed rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			caller, err := fromFlag(cmd, func(c *app.Config) string { return c.Updater.Caller })
			if err != nil {
				return err
			}
			times, _ := cmd.Flags().GetInt(flagTimes)
			if times < 1 {
				return fmt.Errorf("--%s must be at least 1", flagTimes)
			}
			msg := &types.MsgUpdate{Caller: caller}
			for i := 0; i < times; i++ {
				if err := runTx(cmd, types.TypeMsgUpdate, func(n *node, ctx sdk.Context) (*types.MsgUpdateResponse, error) {
					return n.MsgServer.Update(ctx, msg)
				}); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().String(flagFrom, "", "caller (default updater account from config)")
	cmd.Flags().Int(flagTimes, 1, "number of updates to run")
	return cmd
}

func txEnableWithdrawalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enable-withdrawals",
		Short: "Open withdrawals after the lockup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			operator, err := fromFlag(cmd, func(c *app.Config) string { return c.Pool.Operator })
			if err != nil {
				return err
			}
			msg := &types.MsgEnableWithdrawals{Operator: operator}
			return runTx(cmd, types.TypeMsgEnableWithdrawals, func(n *node, ctx sdk.Context) (*types.MsgEnableWithdrawalsResponse, error) {
				return n.MsgServer.EnableWithdrawals(ctx, msg)
			})
		},
	}
	cmd.Flags().String(flagFrom, "", "operator (default from config)")
	return cmd
}

func txWithdrawCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "withdraw [account] [senior|junior] [amount|all]",
		Short:   "Redeem tier tokens for ETH",
		Example: "pancaked tx withdraw alice junior all",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			holder, err := resolveAddress(args[0])
			if err != nil {
				return err
			}
			tier, err := types.ParseTier(args[1])
			if err != nil {
				return err
			}
			all := strings.EqualFold(args[2], "all")
			var amount string
			if !all {
				if amount, err = tokens(args[2]); err != nil {
					return err
				}
			}
			return runTx(cmd, types.TypeMsgWithdraw, func(n *node, ctx sdk.Context) (*types.MsgWithdrawResponse, error) {
				msg := &types.MsgWithdraw{Holder: holder.String(), Tier: string(tier), Amount: amount}
				if all {
					msg.Amount = n.PancakeKeeper.Ledger(tier).BalanceOf(ctx, holder).String()
				}
				return n.MsgServer.Withdraw(ctx, msg)
			})
		},
	}
}

func txTransferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transfer [from] [to] [senior|junior] [amount]",
		Short: "Transfer tier tokens",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := address(args[0])
			if err != nil {
				return err
			}
			to, err := address(args[1])
			if err != nil {
				return err
			}
			amount, err := tokens(args[3])
			if err != nil {
				return err
			}
			msg := &types.MsgTransfer{From: from, To: to, Tier: args[2], Amount: amount}
			if err := msg.ValidateBasic(); err != nil {
				return err
			}
			return runTx(cmd, types.TypeMsgTransfer, func(n *node, ctx sdk.Context) (*types.MsgTransferResponse, error) {
				return n.MsgServer.Transfer(ctx, msg)
			})
		},
	}
}

func txApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve [owner] [spender] [senior|junior] [amount]",
		Short: "Set a spender allowance",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := address(args[0])
			if err != nil {
				return err
			}
			spender, err := address(args[1])
			if err != nil {
				return err
			}
			amount, err := tokens(args[3])
			if err != nil {
				return err
			}
			msg := &types.MsgApprove{Owner: owner, Spender: spender, Tier: args[2], Amount: amount}
			if err := msg.ValidateBasic(); err != nil {
				return err
			}
			return runTx(cmd, types.TypeMsgApprove, func(n *node, ctx sdk.Context) (*types.MsgApproveResponse, error) {
				return n.MsgServer.Approve(ctx, msg)
			})
		},
	}
}

func txTransferFromCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transfer-from [spender] [from] [to] [senior|junior] [amount]",
		Short: "Transfer tier tokens using an allowance",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			addrs := make([]string, 3)
			for i := range addrs {
				addr, err := address(args[i])
				if err != nil {
					return err
				}
				addrs[i] = addr
			}
			amount, err := tokens(args[4])
			if err != nil {
				return err
			}
			msg := &types.MsgTransferFrom{Spender: addrs[0], From: addrs[1], To: addrs[2], Tier: args[3], Amount: amount}
			if err := msg.ValidateBasic(); err != nil {
				return err
			}
			return runTx(cmd, types.TypeMsgTransferFrom, func(n *node, ctx sdk.Context) (*types.MsgTransferFromResponse, error) {
				return n.MsgServer.TransferFrom(ctx, msg)
			})
		},
	}
}
