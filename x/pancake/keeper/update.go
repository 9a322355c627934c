package keeper

import (
	"context"
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/pancake/x/pancake/types"
)

// Update marks the ETH reserve to the current feed rate and reprices both
// tiers. Anyone may call it. Before kickoff it only refreshes the last
// observed rates.
func (k *Keeper) Update(goCtx context.Context) (*types.UpdateResult, error) {
	ctx := sdk.UnwrapSDKContext(goCtx)

	var result *types.UpdateResult
	err := k.atomically(ctx, func(ctx sdk.Context) error {
		pool, err := k.mustGetPool(ctx)
		if err != nil {
			return err
		}

		ethRate, err := k.currentRate(ctx, types.AssetEth)
		if err != nil {
			return err
		}

		result = &types.UpdateResult{EthRate: ethRate, Gain: math.ZeroInt()}
		if !pool.KickedOff() {
			daiRate, err := k.currentRate(ctx, types.AssetDai)
			if err != nil {
				return err
			}
			pool.LastEthRate = ethRate
			pool.LastDaiRate = daiRate
		} else {
			result.Gain, err = mulDiv(pool.EthReserve, ethRate.Sub(pool.LastEthRate), types.RateScale)
			if err != nil {
				return types.ErrFeedUnavailable.Wrapf("gain at rate %s: %s", ethRate, err)
			}

			senior := Tranche{Supply: k.senior.TotalSupply(ctx), Price: pool.SeniorPrice}
			junior := Tranche{Supply: k.junior.TotalSupply(ctx), Price: pool.JuniorPrice}
			params := k.GetParams(ctx)

			seniorPrice, juniorPrice, err := Reprice(senior, junior, result.Gain, params.SeniorTargetBps)
			if err != nil {
				return types.ErrFeedUnavailable.Wrapf("reprice at rate %s: %s", ethRate, err)
			}
			pool.SeniorPrice, pool.JuniorPrice = seniorPrice, juniorPrice
			pool.LastEthRate = ethRate
			pool.UpdateCount++
			result.Repriced = true

			k.logger.Debug("Tiers repriced",
				"gain", result.Gain.String(),
				"senior_price", pool.SeniorPrice.String(),
				"junior_price", pool.JuniorPrice.String(),
			)
			if junior.Price.IsPositive() && pool.JuniorPrice.IsZero() {
				k.logger.Warn("Junior tier wiped out", "gain", result.Gain.String())
			}
		}

		result.SeniorPrice = pool.SeniorPrice
		result.JuniorPrice = pool.JuniorPrice
		pool.UpdatedAt = ctx.BlockTime().Unix()
		k.SetPool(ctx, pool)

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeUpdate,
				sdk.NewAttribute(types.AttributeKeyRepriced, strconv.FormatBool(result.Repriced)),
				sdk.NewAttribute(types.AttributeKeyRate, ethRate.String()),
				sdk.NewAttribute(types.AttributeKeyGain, result.Gain.String()),
				sdk.NewAttribute(types.AttributeKeySeniorPrice, pool.SeniorPrice.String()),
				sdk.NewAttribute(types.AttributeKeyJuniorPrice, pool.JuniorPrice.String()),
			),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	k.logger.Info("Pool updated",
		"repriced", result.Repriced,
		"eth_rate", result.EthRate.String(),
		"senior_price", result.SeniorPrice.String(),
		"junior_price", result.JuniorPrice.String(),
	)
	return result, nil
}
