package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/spf13/cobra"

	"github.com/openalpha/pancake/app"
	"github.com/openalpha/pancake/x/pancake/types"
)

const (
	flagRates = "rates"
	flagStep  = "step"
)

// SimulateCmd runs a whole pool lifecycle in memory
func SimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a full pool lifecycle in memory against scripted ETH rates",
		Example: `pancaked simulate --rates 200,210,190,220
pancaked simulate --rates 2000,1500 --step 168h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ratesFlag, _ := cmd.Flags().GetString(flagRates)
			step, _ := cmd.Flags().GetDuration(flagStep)
			lockup, _ := cmd.Flags().GetDuration(flagLockup)

			rates, err := parseRates(ratesFlag)
			if err != nil {
				return err
			}
			if len(rates) < 2 {
				return fmt.Errorf("--%s needs a kickoff rate and at least one update rate", flagRates)
			}

			cfg := app.DefaultConfig()
			cfg.Home, _ = cmd.Flags().GetString(flagHome)
			cfg.DBBackend = app.BackendMemDB
			cfg.Pool.LockupSeconds = int64(lockup / time.Second)
			cfg.Feed.EthRate = strings.TrimSpace(strings.Split(ratesFlag, ",")[0])

			sim, err := newSimulation(cmd, cfg)
			if err != nil {
				return err
			}
			defer sim.Close()
			return sim.run(cmd, rates, step, lockup)
		},
	}
	cmd.Flags().String(flagRates, "200,210,190,220", "comma separated ETH rates in USD, the first is used at kickoff")
	cmd.Flags().Duration(flagStep, 24*time.Hour, "time between updates")
	cmd.Flags().Duration(flagLockup, 30*24*time.Hour, "lockup after kickoff")
	return cmd
}

func parseRates(s string) ([]math.Int, error) {
	var rates []math.Int
	for _, part := range strings.Split(s, ",") {
		rate, err := app.ParseRate(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		rates = append(rates, rate)
	}
	return rates, nil
}

// simulation drives an in-memory app with a manual clock
type simulation struct {
	*app.App
	now      time.Time
	accounts []simAccount
}

type simAccount struct {
	name  string
	addr  sdk.AccAddress
	tier  types.Tier
	asset types.Asset
	units string
}

func newSimulation(cmd *cobra.Command, cfg *app.Config) (*simulation, error) {
	a, err := app.New(cfg, newLogger(cmd, cfg))
	if err != nil {
		return nil, err
	}
	sim := &simulation{
		App: a,
		now: time.Now().UTC().Truncate(time.Second),
		accounts: []simAccount{
			{name: "alice", tier: types.TierSenior, asset: types.AssetEth, units: "1"},
			{name: "bob", tier: types.TierJunior, asset: types.AssetEth, units: "1"},
			{name: "carol", tier: types.TierSenior, asset: types.AssetDai, units: "500"},
		},
	}
	a.SetClock(func() time.Time { return sim.now })
	for i := range sim.accounts {
		sim.accounts[i].addr = app.NamedAddress(sim.accounts[i].name)
	}
	return sim, nil
}

func (s *simulation) run(cmd *cobra.Command, rates []math.Int, step, lockup time.Duration) error {
	if _, err := s.InitChain(); err != nil {
		return err
	}
	operator := s.Config().Params().OperatorAddress()

	for _, acc := range s.accounts {
		if _, err := s.Fund(acc.addr, sdk.NewCoins(
			sdk.NewCoin(types.DenomEth, math.NewIntWithDecimal(10, 18)),
			sdk.NewCoin(types.DenomDai, math.NewIntWithDecimal(10_000, 18)),
		)); err != nil {
			return err
		}
		amount, err := app.ParseUnits(acc.units)
		if err != nil {
			return err
		}
		acc := acc
		if _, err := s.Exec(types.TypeMsgDeposit, func(ctx sdk.Context) error {
			_, err := s.PancakeKeeper.Deposit(ctx, acc.addr, acc.tier, acc.asset, amount)
			return err
		}); err != nil {
			return fmt.Errorf("deposit %s: %w", acc.name, err)
		}
	}

	if _, err := s.Exec(types.TypeMsgKickoff, func(ctx sdk.Context) error {
		_, err := s.PancakeKeeper.Kickoff(ctx, operator)
		return err
	}); err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tETH/USD\tBUTTR\tCHOCO\tRESERVE")
	s.printRow(w, "kickoff", rates[0])

	for i, rate := range rates[1:] {
		s.now = s.now.Add(step)
		if err := s.SetRate(types.AssetEth, rate); err != nil {
			return err
		}
		if _, err := s.Exec(types.TypeMsgUpdate, func(ctx sdk.Context) error {
			_, err := s.PancakeKeeper.Update(ctx)
			return err
		}); err != nil {
			return err
		}
		s.printRow(w, fmt.Sprintf("update %d", i+1), rate)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if elapsed := time.Duration(len(rates)-1) * step; elapsed < lockup {
		s.now = s.now.Add(lockup - elapsed)
	}
	if _, err := s.Exec(types.TypeMsgEnableWithdrawals, func(ctx sdk.Context) error {
		return s.PancakeKeeper.EnableWithdrawals(ctx, operator)
	}); err != nil {
		return err
	}

	cmd.Println()
	w = tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT\tTIER\tDEPOSIT\tPAYOUT ETH")
	for _, acc := range s.accounts {
		var payout math.Int
		if _, err := s.Exec(types.TypeMsgWithdraw, func(ctx sdk.Context) error {
			balance := s.PancakeKeeper.Ledger(acc.tier).BalanceOf(ctx, acc.addr)
			receipt, err := s.PancakeKeeper.Withdraw(ctx, acc.addr, acc.tier, balance)
			if err != nil {
				return err
			}
			payout = receipt.Payout
			return nil
		}); err != nil {
			return fmt.Errorf("withdraw %s: %w", acc.name, err)
		}
		fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\n", acc.name, acc.tier, acc.units, acc.asset, app.FormatUnits(payout))
	}
	return w.Flush()
}

func (s *simulation) printRow(w *tabwriter.Writer, label string, rate math.Int) {
	snap, err := s.Snapshot()
	if err != nil {
		fmt.Fprintf(w, "%s\t%s\terror: %s\n", label, app.FormatRate(rate), err)
		return
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		label,
		app.FormatRate(rate),
		app.FormatUnits(snap.Pool.SeniorPrice),
		app.FormatUnits(snap.Pool.JuniorPrice),
		app.FormatUnits(snap.Pool.EthReserve),
	)
}
