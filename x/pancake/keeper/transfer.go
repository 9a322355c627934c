package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/pancake/x/pancake/types"
)

// Transfer moves tier tokens between holders
func (k *Keeper) Transfer(goCtx context.Context, tier types.Tier, from, to sdk.AccAddress, amount math.Int) error {
	if err := tier.Validate(); err != nil {
		return err
	}
	return k.atomically(sdk.UnwrapSDKContext(goCtx), func(ctx sdk.Context) error {
		return k.Ledger(tier).Transfer(ctx, from, to, amount)
	})
}

// Approve lets spender move up to amount of owner's tier tokens
func (k *Keeper) Approve(goCtx context.Context, tier types.Tier, owner, spender sdk.AccAddress, amount math.Int) error {
	if err := tier.Validate(); err != nil {
		return err
	}
	return k.atomically(sdk.UnwrapSDKContext(goCtx), func(ctx sdk.Context) error {
		return k.Ledger(tier).Approve(ctx, owner, spender, amount)
	})
}

// TransferFrom moves tier tokens out of from's balance using spender's allowance
func (k *Keeper) TransferFrom(goCtx context.Context, tier types.Tier, spender, from, to sdk.AccAddress, amount math.Int) error {
	if err := tier.Validate(); err != nil {
		return err
	}
	return k.atomically(sdk.UnwrapSDKContext(goCtx), func(ctx sdk.Context) error {
		return k.Ledger(tier).TransferFrom(ctx, spender, from, to, amount)
	})
}
