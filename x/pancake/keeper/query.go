package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/pancake/x/pancake/types"
)

// DepositsEnabled reports whether deposits are open
func (k *Keeper) DepositsEnabled(ctx sdk.Context) bool {
	pool := k.GetPool(ctx)
	return pool != nil && pool.DepositsEnabled
}

// WithdrawalsEnabled reports whether withdrawals are open
func (k *Keeper) WithdrawalsEnabled(ctx sdk.Context) bool {
	pool := k.GetPool(ctx)
	return pool != nil && pool.WithdrawalsEnabled
}

// StartTime returns the kickoff time in unix seconds, zero before kickoff
func (k *Keeper) StartTime(ctx sdk.Context) int64 {
	if pool := k.GetPool(ctx); pool != nil {
		return pool.StartTime
	}
	return 0
}

// LockupDuration returns the lockup in seconds
func (k *Keeper) LockupDuration(ctx sdk.Context) int64 {
	return k.GetParams(ctx).LockupSeconds
}

// SeniorPrice returns the senior tier price
func (k *Keeper) SeniorPrice(ctx sdk.Context) math.Int {
	return k.price(ctx, types.TierSenior)
}

// JuniorPrice returns the junior tier price
func (k *Keeper) JuniorPrice(ctx sdk.Context) math.Int {
	return k.price(ctx, types.TierJunior)
}

func (k *Keeper) price(ctx sdk.Context, tier types.Tier) math.Int {
	if pool := k.GetPool(ctx); pool != nil {
		return pool.Price(tier)
	}
	return math.ZeroInt()
}

// LastEthRate returns the last observed ETH rate
func (k *Keeper) LastEthRate(ctx sdk.Context) math.Int {
	if pool := k.GetPool(ctx); pool != nil {
		return pool.LastEthRate
	}
	return math.ZeroInt()
}

// LastDaiRate returns the last observed DAI rate
func (k *Keeper) LastDaiRate(ctx sdk.Context) math.Int {
	if pool := k.GetPool(ctx); pool != nil {
		return pool.LastDaiRate
	}
	return math.ZeroInt()
}

// TierInfo summarizes a tier's ledger and valuation
func (k *Keeper) TierInfo(goCtx context.Context, tier types.Tier) (*types.TierInfo, error) {
	ctx := sdk.UnwrapSDKContext(goCtx)
	if err := tier.Validate(); err != nil {
		return nil, err
	}
	pool, err := k.mustGetPool(ctx)
	if err != nil {
		return nil, err
	}

	ledger := k.Ledger(tier)
	t := Tranche{Supply: ledger.TotalSupply(ctx), Price: pool.Price(tier)}
	capital, err := t.Capital()
	if err != nil {
		return nil, types.ErrInvalidAmount.Wrapf("%s capital: %s", tier, err)
	}
	return &types.TierInfo{
		Tier:        tier,
		Metadata:    ledger.Metadata(ctx),
		TotalSupply: t.Supply,
		Price:       t.Price,
		Capital:     capital,
	}, nil
}

// Balance returns a holder's position in both tiers with the wei each
// would redeem for at the last mark
func (k *Keeper) Balance(goCtx context.Context, holder sdk.AccAddress) (*types.AccountBalance, error) {
	ctx := sdk.UnwrapSDKContext(goCtx)
	pool, err := k.mustGetPool(ctx)
	if err != nil {
		return nil, err
	}

	senior := k.senior.BalanceOf(ctx, holder)
	junior := k.junior.BalanceOf(ctx, holder)
	seniorPayout, err := RedemptionValue(pool, types.TierSenior, senior)
	if err != nil {
		return nil, err
	}
	juniorPayout, err := RedemptionValue(pool, types.TierJunior, junior)
	if err != nil {
		return nil, err
	}
	return &types.AccountBalance{
		Address:      holder.String(),
		Senior:       senior,
		Junior:       junior,
		SeniorPayout: seniorPayout,
		JuniorPayout: juniorPayout,
		EthBalance:   k.balance(ctx, holder, types.DenomEth),
		DaiBalance:   k.balance(ctx, holder, types.DenomDai),
	}, nil
}

// EstimateWithdrawal returns the wei a redemption would pay right now
func (k *Keeper) EstimateWithdrawal(goCtx context.Context, tier types.Tier, amount math.Int) (math.Int, error) {
	ctx := sdk.UnwrapSDKContext(goCtx)
	if err := tier.Validate(); err != nil {
		return math.Int{}, err
	}
	pool, err := k.mustGetPool(ctx)
	if err != nil {
		return math.Int{}, err
	}
	return RedemptionValue(pool, tier, amount)
}

// Holders returns the largest holders of a tier
func (k *Keeper) Holders(goCtx context.Context, tier types.Tier, limit int) ([]types.Holding, error) {
	if err := tier.Validate(); err != nil {
		return nil, err
	}
	return k.Ledger(tier).Holders(sdk.UnwrapSDKContext(goCtx), limit), nil
}
