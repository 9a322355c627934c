package keeper

import (
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/pancake/x/pancake/types"
)

func TestDepositMintsAtRate(t *testing.T) {
	f := setupFixture(t)

	receipt, err := f.keeper.DepositSeniorEth(f.ctx, alice, halfEth)
	require.NoError(t, err)
	// 0.5 ETH at $200 is 100 reference units
	require.Equal(t, ether.MulRaw(100).String(), receipt.Minted.String())
	require.Equal(t, usd(200).String(), receipt.Rate.String())

	require.Equal(t, ether.MulRaw(100).String(), f.keeper.Ledger(types.TierSenior).BalanceOf(f.ctx, alice).String())
	require.Equal(t, halfEth.String(), f.pool().EthReserve.String())
	require.Equal(t, usd(200).String(), f.pool().LastEthRate.String())
	require.Equal(t, ether.MulRaw(10).Sub(halfEth).String(), f.ethBalance(alice).String())
	require.Equal(t, halfEth.String(), f.ethBalance(f.keeper.ModuleAddress()).String())
}

func TestDepositDaiStaysOutOfReserve(t *testing.T) {
	f := setupFixture(t)
	require.NoError(t, f.feed.SetRate(types.AssetDai, math.NewInt(1_01000000)))

	receipt, err := f.keeper.DepositJuniorDai(f.ctx, carol, ether.MulRaw(100))
	require.NoError(t, err)
	require.Equal(t, ether.MulRaw(101).String(), receipt.Minted.String())

	pool := f.pool()
	require.True(t, pool.EthReserve.IsZero())
	require.Equal(t, "101000000", pool.LastDaiRate.String())
	require.Equal(t, ether.MulRaw(100).String(), f.daiBalance(f.keeper.ModuleAddress()).String())
	require.Equal(t, ether.MulRaw(101).String(), f.keeper.Ledger(types.TierJunior).TotalSupply(f.ctx).String())
}

func TestDepositAllEntryPoints(t *testing.T) {
	f := setupFixture(t)

	_, err := f.keeper.DepositSeniorEth(f.ctx, alice, ether)
	require.NoError(t, err)
	_, err = f.keeper.DepositSeniorDai(f.ctx, alice, ether)
	require.NoError(t, err)
	_, err = f.keeper.DepositJuniorEth(f.ctx, bob, ether)
	require.NoError(t, err)
	_, err = f.keeper.DepositJuniorDai(f.ctx, bob, ether)
	require.NoError(t, err)

	require.Equal(t, ether.MulRaw(201).String(), f.keeper.Ledger(types.TierSenior).BalanceOf(f.ctx, alice).String())
	require.Equal(t, ether.MulRaw(201).String(), f.keeper.Ledger(types.TierJunior).BalanceOf(f.ctx, bob).String())
	require.Equal(t, ether.MulRaw(2).String(), f.pool().EthReserve.String())
}

func TestDepositZeroMintAccepted(t *testing.T) {
	f := setupFixture(t)
	require.NoError(t, f.feed.SetRate(types.AssetDai, math.OneInt()))

	receipt, err := f.keeper.DepositSeniorDai(f.ctx, alice, math.NewInt(99))
	require.NoError(t, err)
	require.True(t, receipt.Minted.IsZero())
	require.Equal(t, "99", f.daiBalance(f.keeper.ModuleAddress()).String())
}

func TestDepositFeedUnavailable(t *testing.T) {
	f := setupFixture(t)
	f.feed.SetUnavailable(types.AssetEth, true)

	_, err := f.keeper.DepositSeniorEth(f.ctx, alice, halfEth)
	require.ErrorIs(t, err, types.ErrFeedUnavailable)

	require.True(t, f.pool().EthReserve.IsZero())
	require.True(t, f.keeper.Ledger(types.TierSenior).TotalSupply(f.ctx).IsZero())
	require.Equal(t, ether.MulRaw(10).String(), f.ethBalance(alice).String())
}

func TestDepositInsufficientFunds(t *testing.T) {
	f := setupFixture(t)

	_, err := f.keeper.DepositJuniorEth(f.ctx, alice, ether.MulRaw(11))
	require.ErrorIs(t, err, types.ErrInsufficientBalance)
	require.True(t, f.keeper.Ledger(types.TierJunior).TotalSupply(f.ctx).IsZero())
	require.True(t, f.pool().LastEthRate.IsZero())
}

func TestDepositValidation(t *testing.T) {
	f := setupFixture(t)

	_, err := f.keeper.Deposit(f.ctx, alice, "mezzanine", types.AssetEth, ether)
	require.ErrorIs(t, err, types.ErrInvalidTier)
	_, err = f.keeper.Deposit(f.ctx, alice, types.TierSenior, "BTC", ether)
	require.ErrorIs(t, err, types.ErrInvalidAsset)
	_, err = f.keeper.Deposit(f.ctx, alice, types.TierSenior, types.AssetEth, math.NewInt(-1))
	require.ErrorIs(t, err, types.ErrInvalidAmount)
}

func TestDepositClosedAfterKickoff(t *testing.T) {
	f := setupFixture(t)
	f.kickoffWithBothTiers()

	for _, tier := range types.Tiers {
		for _, asset := range []types.Asset{types.AssetEth, types.AssetDai} {
			_, err := f.keeper.Deposit(f.ctx, carol, tier, asset, ether)
			require.ErrorIs(t, err, types.ErrDepositsClosed)
		}
	}
	require.Equal(t, ether.MulRaw(10).String(), f.ethBalance(carol).String())
}

func TestDepositRejectsRateOutOfRange(t *testing.T) {
	f := setupFixture(t)
	require.NoError(t, f.feed.SetRate(types.AssetEth, math.NewIntWithDecimal(1, 68)))

	require.NotPanics(t, func() {
		_, err := f.keeper.DepositSeniorEth(f.ctx, alice, ether)
		require.ErrorIs(t, err, types.ErrFeedUnavailable)
	})
	require.True(t, f.keeper.Ledger(types.TierSenior).TotalSupply(f.ctx).IsZero())
	require.Equal(t, ether.MulRaw(10).String(), f.ethBalance(alice).String())

	// The cap itself is accepted
	require.NoError(t, f.feed.SetRate(types.AssetEth, types.MaxRate))
	_, err := f.keeper.DepositSeniorEth(f.ctx, alice, ether)
	require.NoError(t, err)
}

func TestDepositRejectsAmountOutOfRange(t *testing.T) {
	f := setupFixture(t)
	huge := math.NewIntWithDecimal(1, 70)
	require.NoError(t, f.bank.MintCoins(f.ctx, carol, sdk.NewCoins(sdk.NewCoin(types.DenomEth, huge))))

	require.NotPanics(t, func() {
		_, err := f.keeper.DepositJuniorEth(f.ctx, carol, huge)
		require.ErrorIs(t, err, types.ErrInvalidAmount)
	})
	require.True(t, f.pool().EthReserve.IsZero())
	require.True(t, f.keeper.Ledger(types.TierJunior).TotalSupply(f.ctx).IsZero())
}
