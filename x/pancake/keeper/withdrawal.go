package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/pancake/x/pancake/types"
)

// EnableWithdrawals opens redemptions once the lockup has elapsed.
// Calling it again afterwards does nothing.
func (k *Keeper) EnableWithdrawals(goCtx context.Context, caller sdk.AccAddress) error {
	ctx := sdk.UnwrapSDKContext(goCtx)

	return k.atomically(ctx, func(ctx sdk.Context) error {
		pool, err := k.mustGetPool(ctx)
		if err != nil {
			return err
		}
		if !caller.Equals(k.GetParams(ctx).OperatorAddress()) {
			return types.ErrUnauthorized.Wrapf("%s is not the operator", caller)
		}
		if pool.WithdrawalsEnabled {
			return nil
		}
		if !pool.LockupElapsed(ctx.BlockTime()) {
			if !pool.KickedOff() {
				return types.ErrLockupNotElapsed.Wrap("pool has not been kicked off")
			}
			return types.ErrLockupNotElapsed.Wrapf("unlocks at %s", pool.UnlockTime())
		}

		pool.WithdrawalsEnabled = true
		pool.UpdatedAt = ctx.BlockTime().Unix()
		k.SetPool(ctx, pool)

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeWithdrawalsEnabled,
				sdk.NewAttribute(types.AttributeKeyCaller, caller.String()),
			),
		)
		k.logger.Info("Withdrawals enabled", "caller", caller.String())
		return nil
	})
}

// Withdraw burns amount of a holder's tier tokens and pays their value
// out of the ETH reserve at the last observed ETH rate
func (k *Keeper) Withdraw(goCtx context.Context, holder sdk.AccAddress, tier types.Tier, amount math.Int) (*types.WithdrawalReceipt, error) {
	ctx := sdk.UnwrapSDKContext(goCtx)

	if err := tier.Validate(); err != nil {
		return nil, err
	}
	if amount.IsNil() || amount.IsNegative() {
		return nil, types.ErrInvalidAmount.Wrapf("withdraw %s", amount)
	}

	var receipt *types.WithdrawalReceipt
	err := k.atomically(ctx, func(ctx sdk.Context) error {
		pool, err := k.mustGetPool(ctx)
		if err != nil {
			return err
		}
		if !pool.WithdrawalsEnabled {
			return types.ErrWithdrawalsClosed
		}

		ledger := k.Ledger(tier)
		balance := ledger.BalanceOf(ctx, holder)
		if amount.GT(balance) {
			return types.ErrInsufficientBalance.Wrapf("%s holds %s %s tokens, redeeming %s", holder, balance, tier, amount)
		}

		payout, err := RedemptionValue(pool, tier, amount)
		if err != nil {
			return err
		}
		if payout.GT(pool.EthReserve) {
			return types.ErrReserveExhausted.Wrapf("payout %s wei, reserve %s wei", payout, pool.EthReserve)
		}

		// Effects before the transfer out
		if err := ledger.Burn(ctx, k.moduleAddr, holder, amount); err != nil {
			return err
		}
		pool.EthReserve = pool.EthReserve.Sub(payout)
		pool.UpdatedAt = ctx.BlockTime().Unix()
		k.SetPool(ctx, pool)

		if err := k.pay(ctx, holder, types.DenomEth, payout); err != nil {
			return err
		}

		receipt = &types.WithdrawalReceipt{
			Holder: holder.String(),
			Tier:   tier,
			Amount: amount,
			Price:  pool.Price(tier),
			Payout: payout,
		}

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeWithdraw,
				sdk.NewAttribute(types.AttributeKeyHolder, receipt.Holder),
				sdk.NewAttribute(types.AttributeKeyTier, string(tier)),
				sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
				sdk.NewAttribute(types.AttributeKeyPayout, payout.String()),
			),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	k.logger.Info("Withdrawal processed",
		"holder", receipt.Holder,
		"tier", tier,
		"amount", amount.String(),
		"payout", receipt.Payout.String(),
	)
	return receipt, nil
}

// WithdrawSenior redeems senior tokens
func (k *Keeper) WithdrawSenior(ctx context.Context, holder sdk.AccAddress, amount math.Int) (*types.WithdrawalReceipt, error) {
	return k.Withdraw(ctx, holder, types.TierSenior, amount)
}

// WithdrawJunior redeems junior tokens
func (k *Keeper) WithdrawJunior(ctx context.Context, holder sdk.AccAddress, amount math.Int) (*types.WithdrawalReceipt, error) {
	return k.Withdraw(ctx, holder, types.TierJunior, amount)
}

// RedemptionValue converts a tier token amount into wei: its reference
// value at the tier price, divided by the last observed ETH rate
func RedemptionValue(pool *types.Pool, tier types.Tier, amount math.Int) (math.Int, error) {
	price := pool.Price(tier)
	if pool.LastEthRate.IsNil() || !pool.LastEthRate.IsPositive() || price.IsNil() {
		return math.ZeroInt(), nil
	}
	value, err := amount.SafeMul(price)
	if err != nil {
		return math.Int{}, types.ErrInvalidAmount.Wrapf("redeem %s %s: %s", amount, tier, err)
	}
	denominator, err := types.PriceScale.SafeMul(pool.LastEthRate)
	if err != nil {
		return math.Int{}, types.ErrFeedUnavailable.Wrapf("eth rate %s: %s", pool.LastEthRate, err)
	}
	payout, err := mulDiv(value, types.RateScale, denominator)
	if err != nil {
		return math.Int{}, types.ErrInvalidAmount.Wrapf("redeem %s %s: %s", amount, tier, err)
	}
	return payout, nil
}
