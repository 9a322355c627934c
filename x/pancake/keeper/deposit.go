package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/pancake/x/pancake/types"
)

// Deposit takes amount of asset from the depositor and mints tier tokens
// worth its reference value at the current feed rate
func (k *Keeper) Deposit(goCtx context.Context, depositor sdk.AccAddress, tier types.Tier, asset types.Asset, amount math.Int) (*types.DepositReceipt, error) {
	ctx := sdk.UnwrapSDKContext(goCtx)

	if err := tier.Validate(); err != nil {
		return nil, err
	}
	if err := asset.Validate(); err != nil {
		return nil, err
	}
	if amount.IsNil() || amount.IsNegative() {
		return nil, types.ErrInvalidAmount.Wrapf("deposit %s", amount)
	}

	var receipt *types.DepositReceipt
	err := k.atomically(ctx, func(ctx sdk.Context) error {
		// Get pool
		pool, err := k.mustGetPool(ctx)
		if err != nil {
			return err
		}
		if !pool.DepositsEnabled {
			return types.ErrDepositsClosed
		}

		rate, err := k.currentRate(ctx, asset)
		if err != nil {
			return err
		}
		// Mint at par: one token per reference unit
		minted, err := mulDiv(amount, rate, types.RateScale)
		if err != nil {
			return types.ErrInvalidAmount.Wrapf("deposit %s at rate %s: %s", amount, rate, err)
		}

		// Take the deposit
		if err := k.collect(ctx, depositor, asset.Denom(), amount); err != nil {
			return err
		}
		if asset == types.AssetEth {
			if pool.EthReserve, err = pool.EthReserve.SafeAdd(amount); err != nil {
				return types.ErrInvalidAmount.Wrapf("deposit %s: %s", amount, err)
			}
		}
		pool.SetLastRate(asset, rate)

		if err := k.Ledger(tier).Mint(ctx, k.moduleAddr, depositor, minted); err != nil {
			return err
		}

		pool.UpdatedAt = ctx.BlockTime().Unix()
		k.SetPool(ctx, pool)

		receipt = &types.DepositReceipt{
			Depositor: depositor.String(),
			Tier:      tier,
			Asset:     asset,
			Amount:    amount,
			Rate:      rate,
			Minted:    minted,
		}

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeDeposit,
				sdk.NewAttribute(types.AttributeKeyDepositor, receipt.Depositor),
				sdk.NewAttribute(types.AttributeKeyTier, string(tier)),
				sdk.NewAttribute(types.AttributeKeyAsset, string(asset)),
				sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
				sdk.NewAttribute(types.AttributeKeyRate, rate.String()),
				sdk.NewAttribute(types.AttributeKeyMinted, minted.String()),
			),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	k.logger.Info("Deposit processed",
		"depositor", receipt.Depositor,
		"tier", tier,
		"asset", asset,
		"amount", amount.String(),
		"minted", receipt.Minted.String(),
	)
	return receipt, nil
}

// DepositSeniorEth deposits wei into the senior tier
func (k *Keeper) DepositSeniorEth(ctx context.Context, depositor sdk.AccAddress, amount math.Int) (*types.DepositReceipt, error) {
	return k.Deposit(ctx, depositor, types.TierSenior, types.AssetEth, amount)
}

// DepositSeniorDai deposits DAI into the senior tier
func (k *Keeper) DepositSeniorDai(ctx context.Context, depositor sdk.AccAddress, amount math.Int) (*types.DepositReceipt, error) {
	return k.Deposit(ctx, depositor, types.TierSenior, types.AssetDai, amount)
}

// DepositJuniorEth deposits wei into the junior tier
func (k *Keeper) DepositJuniorEth(ctx context.Context, depositor sdk.AccAddress, amount math.Int) (*types.DepositReceipt, error) {
	return k.Deposit(ctx, depositor, types.TierJunior, types.AssetEth, amount)
}

// DepositJuniorDai deposits DAI into the junior tier
func (k *Keeper) DepositJuniorDai(ctx context.Context, depositor sdk.AccAddress, amount math.Int) (*types.DepositReceipt, error) {
	return k.Deposit(ctx, depositor, types.TierJunior, types.AssetDai, amount)
}
