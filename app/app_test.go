package app

import (
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/pancake/x/pancake/types"
)

var genesisTime = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Home = t.TempDir()
	cfg.DBBackend = BackendMemDB
	cfg.Pool.LockupSeconds = 3600
	return cfg
}

func newTestApp(t *testing.T, cfg *Config) (*App, *time.Time) {
	t.Helper()
	a, err := New(cfg, log.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	now := genesisTime
	a.SetClock(func() time.Time { return now })
	return a, &now
}

func eth(n int64) math.Int {
	return math.NewIntWithDecimal(n, 18)
}

func fundUser(t *testing.T, a *App, name string) sdk.AccAddress {
	t.Helper()
	addr := NamedAddress(name)
	_, err := a.Fund(addr, sdk.NewCoins(
		sdk.NewCoin(types.DenomEth, eth(10)),
		sdk.NewCoin(types.DenomDai, eth(10_000)),
	))
	require.NoError(t, err)
	return addr
}

func TestInitChain(t *testing.T) {
	a, _ := newTestApp(t, testConfig(t))
	require.False(t, a.Initialized())

	res, err := a.InitChain()
	require.NoError(t, err)
	require.True(t, a.Initialized())
	require.Equal(t, int64(1), res.Height)
	require.NotNil(t, res.Pool)
	require.Equal(t, types.PhaseDeposit, res.Pool.Phase)
	require.Equal(t, "BUTTR", res.Pool.Senior.Metadata.Symbol)
	require.Equal(t, "CHOCO", res.Pool.Junior.Metadata.Symbol)

	var reservesEth math.Int
	require.NoError(t, a.Query(func(ctx sdk.Context) error {
		reservesEth = a.Converter.GetReserves(ctx).Eth
		return nil
	}))
	require.Equal(t, eth(10_000).String(), reservesEth.String())

	_, err = a.InitChain()
	require.ErrorIs(t, err, types.ErrPoolExists)
	require.Equal(t, int64(1), a.Height())
}

func TestExecRollsBackOnError(t *testing.T) {
	a, _ := newTestApp(t, testConfig(t))
	_, err := a.InitChain()
	require.NoError(t, err)
	alice := fundUser(t, a, "alice")
	height := a.Height()

	_, err = a.Exec("deposit", func(ctx sdk.Context) error {
		if _, err := a.PancakeKeeper.DepositSeniorEth(ctx, alice, eth(1)); err != nil {
			return err
		}
		return types.ErrInvalidAmount
	})
	require.ErrorIs(t, err, types.ErrInvalidAmount)
	require.Equal(t, height, a.Height())

	require.NoError(t, a.Query(func(ctx sdk.Context) error {
		require.Equal(t, eth(10).String(), a.BankKeeper.GetBalance(ctx, alice, types.DenomEth).Amount.String())
		require.True(t, a.PancakeKeeper.Ledger(types.TierSenior).TotalSupply(ctx).IsZero())
		return nil
	}))
}

func TestLifecycleThroughMsgServer(t *testing.T) {
	cfg := testConfig(t)
	a, now := newTestApp(t, cfg)
	_, err := a.InitChain()
	require.NoError(t, err)
	alice := fundUser(t, a, "alice")
	bob := fundUser(t, a, "bob")
	operator := cfg.Params().OperatorAddress()

	var results []Result
	a.Subscribe(func(r Result) { results = append(results, r) })

	_, err = a.Exec("deposit", func(ctx sdk.Context) error {
		_, err := a.MsgServer.Deposit(ctx, &types.MsgDeposit{
			Depositor: alice.String(), Tier: "senior", Asset: "ETH", Amount: eth(1).String(),
		})
		return err
	})
	require.NoError(t, err)
	_, err = a.Exec("deposit", func(ctx sdk.Context) error {
		_, err := a.MsgServer.Deposit(ctx, &types.MsgDeposit{
			Depositor: bob.String(), Tier: "junior", Asset: "DAI", Amount: eth(200).String(),
		})
		return err
	})
	require.NoError(t, err)

	_, err = a.Exec("kickoff", func(ctx sdk.Context) error {
		_, err := a.MsgServer.Kickoff(ctx, &types.MsgKickoff{Operator: operator.String()})
		return err
	})
	require.NoError(t, err)

	snap, err := a.Snapshot()
	require.NoError(t, err)
	require.Equal(t, types.PhaseLocked, snap.Phase)
	require.True(t, snap.Pool.EthReserve.GT(eth(1)))

	require.NoError(t, a.SetRate(types.AssetEth, math.NewInt(220_00000000)))
	_, err = a.Exec("update", func(ctx sdk.Context) error {
		_, err := a.MsgServer.Update(ctx, &types.MsgUpdate{Caller: alice.String()})
		return err
	})
	require.NoError(t, err)

	snap, err = a.Snapshot()
	require.NoError(t, err)
	require.Equal(t, uint64(1), snap.Pool.UpdateCount)
	require.True(t, snap.Pool.JuniorPrice.GT(snap.Pool.SeniorPrice))

	*now = now.Add(time.Hour)
	_, err = a.Exec("enable-withdrawals", func(ctx sdk.Context) error {
		_, err := a.MsgServer.EnableWithdrawals(ctx, &types.MsgEnableWithdrawals{Operator: operator.String()})
		return err
	})
	require.NoError(t, err)

	res, err := a.Exec("withdraw", func(ctx sdk.Context) error {
		_, err := a.MsgServer.Withdraw(ctx, &types.MsgWithdraw{
			Holder: alice.String(), Tier: "senior", Amount: snap.Senior.TotalSupply.String(),
		})
		return err
	})
	require.NoError(t, err)
	require.Equal(t, types.PhaseWithdraw, res.Pool.Phase)
	require.True(t, res.Pool.Senior.TotalSupply.IsZero())

	ops := make([]string, 0, len(results))
	for _, r := range results {
		ops = append(ops, r.Op)
	}
	require.Equal(t, []string{"deposit", "deposit", "kickoff", "update", "enable-withdrawals", "withdraw"}, ops)
}

func TestPersistsAcrossRestart(t *testing.T) {
	cfg := testConfig(t)
	cfg.DBBackend = BackendGoLevelDB

	a, err := New(cfg, log.NewNopLogger())
	require.NoError(t, err)
	_, err = a.InitChain()
	require.NoError(t, err)
	alice := NamedAddress("alice")
	_, err = a.Fund(alice, sdk.NewCoins(sdk.NewCoin(types.DenomEth, eth(3))))
	require.NoError(t, err)
	height := a.Height()
	require.NoError(t, a.Close())

	reopened, err := New(cfg, log.NewNopLogger())
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, height, reopened.Height())
	require.True(t, reopened.Initialized())
	require.NoError(t, reopened.Query(func(ctx sdk.Context) error {
		require.Equal(t, eth(3).String(), reopened.BankKeeper.GetBalance(ctx, alice, types.DenomEth).Amount.String())
		return nil
	}))
}

func TestScheduleFeed(t *testing.T) {
	cfg := testConfig(t)
	cfg.Feed.Mode = FeedModeSchedule
	cfg.Feed.Schedule = []SchedulePoint{
		{At: genesisTime, Asset: "ETH", Rate: "200"},
		{At: genesisTime, Asset: "DAI", Rate: "1"},
		{At: genesisTime.Add(time.Hour), Asset: "ETH", Rate: "250.5"},
	}
	a, now := newTestApp(t, cfg)
	_, err := a.InitChain()
	require.NoError(t, err)
	require.Error(t, a.SetRate(types.AssetEth, math.NewInt(1)))
	require.Equal(t, 2, a.Schedule().Len(types.AssetEth))

	_, err = a.Exec("update", func(ctx sdk.Context) error {
		_, err := a.PancakeKeeper.Update(ctx)
		return err
	})
	require.NoError(t, err)
	snap, err := a.Snapshot()
	require.NoError(t, err)
	require.Equal(t, "20000000000", snap.Pool.LastEthRate.String())

	*now = now.Add(2 * time.Hour)
	_, err = a.Exec("update", func(ctx sdk.Context) error {
		_, err := a.PancakeKeeper.Update(ctx)
		return err
	})
	require.NoError(t, err)
	snap, err = a.Snapshot()
	require.NoError(t, err)
	require.Equal(t, "25050000000", snap.Pool.LastEthRate.String())
}

func TestClockOffset(t *testing.T) {
	cfg := testConfig(t)
	cfg.ClockOffset = 48 * time.Hour
	a, _ := newTestApp(t, cfg)
	require.Equal(t, genesisTime.Add(48*time.Hour), a.Now())
}
