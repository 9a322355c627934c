package keeper

import (
	"context"
	"encoding/json"
	"errors"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/openalpha/pancake/x/pancake/ledger"
	"github.com/openalpha/pancake/x/pancake/types"
)

// Keeper manages the pancake pool state
type Keeper struct {
	storeKey   storetypes.StoreKey
	bankKeeper types.BankKeeper
	priceFeed  types.PriceFeed
	converter  types.Converter
	senior     types.TierLedger
	junior     types.TierLedger
	moduleAddr sdk.AccAddress
	logger     log.Logger
}

// NewKeeper creates a new pancake keeper with store-backed tier ledgers
func NewKeeper(
	storeKey storetypes.StoreKey,
	bankKeeper types.BankKeeper,
	priceFeed types.PriceFeed,
	converter types.Converter,
	logger log.Logger,
) *Keeper {
	return NewKeeperWithLedgers(
		storeKey,
		bankKeeper,
		priceFeed,
		converter,
		ledger.New(storeKey, types.TierSenior),
		ledger.New(storeKey, types.TierJunior),
		logger,
	)
}

// NewKeeperWithLedgers creates a keeper around the given tier ledgers
func NewKeeperWithLedgers(
	storeKey storetypes.StoreKey,
	bankKeeper types.BankKeeper,
	priceFeed types.PriceFeed,
	converter types.Converter,
	senior types.TierLedger,
	junior types.TierLedger,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		storeKey:   storeKey,
		bankKeeper: bankKeeper,
		priceFeed:  priceFeed,
		converter:  converter,
		senior:     senior,
		junior:     junior,
		moduleAddr: authtypes.NewModuleAddress(types.ModuleName),
		logger:     logger.With("module", "x/"+types.ModuleName),
	}
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// ModuleAddress returns the pool account that holds deposits
func (k *Keeper) ModuleAddress() sdk.AccAddress {
	return k.moduleAddr
}

// Ledger returns the ledger of a tier
func (k *Keeper) Ledger(tier types.Tier) types.TierLedger {
	if tier == types.TierSenior {
		return k.senior
	}
	return k.junior
}

// GetStore returns the KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// atomically runs fn on a cached branch of ctx and writes it back only
// when fn succeeds. Events emitted by fn are kept only on success.
func (k *Keeper) atomically(ctx sdk.Context, fn func(ctx sdk.Context) error) error {
	cacheCtx, write := ctx.CacheContext()
	if err := fn(cacheCtx); err != nil {
		return err
	}
	write()
	return nil
}

// ============ Pool Operations ============

// InitPool creates the pool and both tier ledgers. It can run only once.
func (k *Keeper) InitPool(goCtx context.Context, params types.Params) error {
	ctx := sdk.UnwrapSDKContext(goCtx)
	if err := params.Validate(); err != nil {
		return err
	}

	return k.atomically(ctx, func(ctx sdk.Context) error {
		if k.GetPool(ctx) != nil {
			return types.ErrPoolExists
		}

		k.SetParams(ctx, params)
		k.SetPool(ctx, types.NewPool(params.LockupSeconds))

		if err := k.senior.Init(ctx, k.moduleAddr); err != nil {
			return err
		}
		if err := k.junior.Init(ctx, k.moduleAddr); err != nil {
			return err
		}

		ctx.EventManager().EmitEvents(sdk.Events{
			sdk.NewEvent(
				types.EventTypeButtermilkDeployed,
				sdk.NewAttribute(types.AttributeKeyContractAddress, k.senior.Address().String()),
			),
			sdk.NewEvent(
				types.EventTypeChocolateChipDeployed,
				sdk.NewAttribute(types.AttributeKeyContractAddress, k.junior.Address().String()),
			),
		})

		k.logger.Info("Pool initialized",
			"operator", params.Operator,
			"lockup_seconds", params.LockupSeconds,
			"senior_target_bps", params.SeniorTargetBps,
			"buttermilk", k.senior.Address().String(),
			"chocolate_chip", k.junior.Address().String(),
		)
		return nil
	})
}

// SetPool saves the pool to the store
func (k *Keeper) SetPool(ctx sdk.Context, pool *types.Pool) {
	bz, _ := json.Marshal(pool)
	k.GetStore(ctx).Set(types.PoolKey, bz)
}

// GetPool retrieves the pool, nil before InitPool
func (k *Keeper) GetPool(ctx sdk.Context) *types.Pool {
	bz := k.GetStore(ctx).Get(types.PoolKey)
	if bz == nil {
		return nil
	}
	var pool types.Pool
	if err := json.Unmarshal(bz, &pool); err != nil {
		return nil
	}
	return &pool
}

func (k *Keeper) mustGetPool(ctx sdk.Context) (*types.Pool, error) {
	pool := k.GetPool(ctx)
	if pool == nil {
		return nil, types.ErrPoolNotFound
	}
	return pool, nil
}

// SetParams saves the params to the store
func (k *Keeper) SetParams(ctx sdk.Context, params types.Params) {
	bz, _ := json.Marshal(params)
	k.GetStore(ctx).Set(types.ParamsKey, bz)
}

// GetParams retrieves the params
func (k *Keeper) GetParams(ctx sdk.Context) types.Params {
	var params types.Params
	bz := k.GetStore(ctx).Get(types.ParamsKey)
	if bz == nil {
		return params
	}
	_ = json.Unmarshal(bz, &params)
	return params
}

// ============ Collaborators ============

// currentRate reads the feed and rejects unusable rates
func (k *Keeper) currentRate(ctx sdk.Context, asset types.Asset) (math.Int, error) {
	rate, err := k.priceFeed.CurrentRate(ctx, asset)
	if err != nil {
		if errors.Is(err, types.ErrFeedUnavailable) {
			return math.Int{}, err
		}
		return math.Int{}, types.ErrFeedUnavailable.Wrapf("%s: %s", asset, err)
	}
	if rate.IsNil() || !rate.IsPositive() {
		return math.Int{}, types.ErrFeedUnavailable.Wrapf("%s rate %s is not positive", asset, rate)
	}
	if rate.GT(types.MaxRate) {
		return math.Int{}, types.ErrFeedUnavailable.Wrapf("%s rate %s exceeds %s", asset, rate, types.MaxRate)
	}
	return rate, nil
}

func (k *Keeper) balance(ctx sdk.Context, addr sdk.AccAddress, denom string) math.Int {
	return k.bankKeeper.GetBalance(ctx, addr, denom).Amount
}

// collect moves coins from a depositor into the pool account
func (k *Keeper) collect(ctx sdk.Context, from sdk.AccAddress, denom string, amount math.Int) error {
	if !amount.IsPositive() {
		return nil
	}
	err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, from, types.ModuleName, sdk.NewCoins(sdk.NewCoin(denom, amount)))
	if errors.Is(err, sdkerrors.ErrInsufficientFunds) {
		return types.ErrInsufficientBalance.Wrapf("%s: %s", from, err)
	}
	return err
}

// pay moves coins from the pool account to a holder
func (k *Keeper) pay(ctx sdk.Context, to sdk.AccAddress, denom string, amount math.Int) error {
	if !amount.IsPositive() {
		return nil
	}
	return k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, to, sdk.NewCoins(sdk.NewCoin(denom, amount)))
}
