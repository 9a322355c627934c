package keeper

import (
	"context"
	"errors"
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/pancake/x/pancake/types"
)

// Kickoff closes deposits, converts every DAI the pool holds into ETH,
// starts the lockup clock and sets both tier prices to par
func (k *Keeper) Kickoff(goCtx context.Context, caller sdk.AccAddress) (*types.KickoffResult, error) {
	ctx := sdk.UnwrapSDKContext(goCtx)

	var result *types.KickoffResult
	err := k.atomically(ctx, func(ctx sdk.Context) error {
		pool, err := k.mustGetPool(ctx)
		if err != nil {
			return err
		}

		params := k.GetParams(ctx)
		if !caller.Equals(params.OperatorAddress()) {
			return types.ErrUnauthorized.Wrapf("%s is not the operator", caller)
		}
		if !pool.DepositsEnabled || pool.KickedOff() {
			return types.ErrAlreadyKickedOff
		}
		if params.RequireBothTiers {
			for _, tier := range types.Tiers {
				if k.Ledger(tier).TotalSupply(ctx).IsZero() {
					return types.ErrTierEmpty.Wrapf("%s tier", tier)
				}
			}
		}

		// Convert all DAI holdings
		daiHeld := k.balance(ctx, k.moduleAddr, types.DenomDai)
		ethReceived, err := k.convertDai(ctx, daiHeld)
		if err != nil {
			return err
		}

		ethRate, err := k.currentRate(ctx, types.AssetEth)
		if err != nil {
			return err
		}
		daiRate, err := k.currentRate(ctx, types.AssetDai)
		if err != nil {
			return err
		}

		pool.EthReserve = pool.EthReserve.Add(ethReceived)
		pool.LastEthRate = ethRate
		pool.LastDaiRate = daiRate
		pool.DepositsEnabled = false
		pool.Started = true
		pool.StartTime = ctx.BlockTime().Unix()
		pool.SeniorPrice = types.PriceScale
		pool.JuniorPrice = types.PriceScale
		pool.KickedOffBy = caller.String()
		pool.DaiConverted = daiHeld
		pool.EthFromConversion = ethReceived
		pool.UpdatedAt = pool.StartTime
		k.SetPool(ctx, pool)

		result = &types.KickoffResult{
			StartTime:    pool.StartTime,
			DaiConverted: daiHeld,
			EthReceived:  ethReceived,
			EthReserve:   pool.EthReserve,
			EthRate:      ethRate,
			DaiRate:      daiRate,
		}

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeKickoff,
				sdk.NewAttribute(types.AttributeKeyCaller, caller.String()),
				sdk.NewAttribute(types.AttributeKeyStartTime, strconv.FormatInt(pool.StartTime, 10)),
				sdk.NewAttribute(types.AttributeKeyDaiConverted, daiHeld.String()),
				sdk.NewAttribute(types.AttributeKeyEthReceived, ethReceived.String()),
				sdk.NewAttribute(types.AttributeKeyEthReserve, pool.EthReserve.String()),
			),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	k.logger.Info("Pool kicked off",
		"caller", caller.String(),
		"start_time", result.StartTime,
		"dai_converted", result.DaiConverted.String(),
		"eth_received", result.EthReceived.String(),
		"eth_reserve", result.EthReserve.String(),
	)
	return result, nil
}

// convertDai sells daiAmount through the converter and checks the ETH
// that actually arrived in the pool account
func (k *Keeper) convertDai(ctx sdk.Context, daiAmount math.Int) (math.Int, error) {
	if !daiAmount.IsPositive() {
		return math.ZeroInt(), nil
	}

	ethBefore := k.balance(ctx, k.moduleAddr, types.DenomEth)
	reported, err := k.converter.LiquidateAllToEth(ctx, k.moduleAddr, daiAmount)
	if err != nil {
		if errors.Is(err, types.ErrConverterFailed) {
			return math.Int{}, err
		}
		return math.Int{}, types.ErrConverterFailed.Wrap(err.Error())
	}

	received := k.balance(ctx, k.moduleAddr, types.DenomEth).Sub(ethBefore)
	if reported.IsNil() || !received.Equal(reported) {
		return math.Int{}, types.ErrConverterFailed.Wrapf("converter reported %s wei, pool received %s", reported, received)
	}
	if left := k.balance(ctx, k.moduleAddr, types.DenomDai); !left.IsZero() {
		return math.Int{}, types.ErrConverterFailed.Wrapf("%s adai left unconverted", left)
	}
	return received, nil
}
