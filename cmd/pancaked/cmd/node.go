package cmd

import (
	"fmt"
	"os"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/spf13/cobra"

	"github.com/openalpha/pancake/app"
	"github.com/openalpha/pancake/x/pancake/types"
)

const (
	flagOperator      = "operator"
	flagLockup        = "lockup"
	flagTargetBps     = "target-bps"
	flagEthRate       = "eth-rate"
	flagDaiRate       = "dai-rate"
	flagAllowOneSided = "allow-one-sided"
	flagEth           = "eth"
	flagDai           = "dai"
)

// InitCmd writes the config file and creates the pool
func InitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the pool and seed the converter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if v, _ := cmd.Flags().GetString(flagOperator); v != "" {
				addr, err := resolveAddress(v)
				if err != nil {
					return err
				}
				cfg.Pool.Operator = addr.String()
			}
			if cmd.Flags().Changed(flagLockup) {
				d, _ := cmd.Flags().GetDuration(flagLockup)
				cfg.Pool.LockupSeconds = int64(d / time.Second)
			}
			if cmd.Flags().Changed(flagTargetBps) {
				cfg.Pool.SeniorTargetBps, _ = cmd.Flags().GetInt64(flagTargetBps)
			}
			if v, _ := cmd.Flags().GetString(flagEthRate); v != "" {
				cfg.Feed.EthRate = v
			}
			if v, _ := cmd.Flags().GetString(flagDaiRate); v != "" {
				cfg.Feed.DaiRate = v
			}
			if oneSided, _ := cmd.Flags().GetBool(flagAllowOneSided); oneSided {
				cfg.Pool.RequireBothTiers = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			n, err := openNodeWithConfig(cmd, cfg)
			if err != nil {
				return err
			}
			defer n.Close()

			if _, err := n.InitChain(); err != nil {
				return err
			}
			if err := cfg.Save(configPath(cmd)); err != nil {
				return err
			}

			snap, err := n.Snapshot()
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]interface{}{
				"config":   configPath(cmd),
				"operator": cfg.Pool.Operator,
				"senior":   snap.Senior.Metadata,
				"junior":   snap.Junior.Metadata,
			})
		},
	}
	cmd.Flags().String(flagOperator, "", "operator address or account name")
	cmd.Flags().Duration(flagLockup, time.Duration(types.DefaultLockupSeconds)*time.Second, "lockup after kickoff")
	cmd.Flags().Int64(flagTargetBps, types.DefaultSeniorTargetBps, "senior coupon per update in basis points")
	cmd.Flags().String(flagEthRate, "", "fixed ETH rate in USD")
	cmd.Flags().String(flagDaiRate, "", "fixed DAI rate in USD")
	cmd.Flags().Bool(flagAllowOneSided, false, "allow kickoff with an empty tier")
	return cmd
}

// FundCmd mints test ETH and DAI to an account
func FundCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fund [account]",
		Short: "Mint test ETH and DAI to an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := resolveAddress(args[0])
			if err != nil {
				return err
			}
			coins := sdk.NewCoins()
			for flag, denom := range map[string]string{flagEth: types.DenomEth, flagDai: types.DenomDai} {
				v, _ := cmd.Flags().GetString(flag)
				amount, err := app.ParseUnits(v)
				if err != nil {
					return fmt.Errorf("--%s: %w", flag, err)
				}
				coins = coins.Add(sdk.NewCoin(denom, amount))
			}

			n, err := openNode(cmd)
			if err != nil {
				return err
			}
			defer n.Close()

			if _, err := n.Fund(addr, coins); err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{"address": addr.String(), "minted": coins.String()})
		},
	}
	cmd.Flags().String(flagEth, "10", "ETH to mint")
	cmd.Flags().String(flagDai, "10000", "DAI to mint")
	return cmd
}

// AddrCmd prints the address derived from an account name
func AddrCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "addr [name]",
		Short: "Print the address of a named account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(app.NamedAddress(args[0]).String())
		},
	}
}

// SetRateCmd changes the fixed feed rate stored in the config file
func SetRateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-rate [ETH|DAI] [usd]",
		Short: "Set a fixed feed rate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			asset, err := types.ParseAsset(args[0])
			if err != nil {
				return err
			}
			if _, err := app.ParseRate(args[1]); err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Feed.Mode != app.FeedModeFixed {
				return fmt.Errorf("feed mode is %q, rates come from the schedule", cfg.Feed.Mode)
			}
			if asset == types.AssetEth {
				cfg.Feed.EthRate = args[1]
			} else {
				cfg.Feed.DaiRate = args[1]
			}
			if err := cfg.Save(configPath(cmd)); err != nil {
				return err
			}
			cmd.Printf("%s rate set to $%s\n", asset, args[1])
			return nil
		},
	}
}

// AdvanceCmd moves the node clock forward
func AdvanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advance [duration]",
		Short: "Move the node clock forward, e.g. 720h",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := time.ParseDuration(args[0])
			if err != nil {
				return err
			}
			if d <= 0 {
				return fmt.Errorf("duration must be positive")
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if _, err := os.Stat(configPath(cmd)); err != nil {
				return fmt.Errorf("no config at %s, run init first", configPath(cmd))
			}
			cfg.ClockOffset += d
			if err := cfg.Save(configPath(cmd)); err != nil {
				return err
			}
			cmd.Printf("clock offset is now %s (block time %s)\n", cfg.ClockOffset, time.Now().Add(cfg.ClockOffset).UTC().Format(time.RFC3339))
			return nil
		},
	}
}
