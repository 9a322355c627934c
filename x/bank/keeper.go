// Package bank keeps coin balances for accounts and module accounts in a
// KVStore. It is the standalone stand-in for the SDK bank module: balances
// live in the same multistore as the pool, so a failed operation rolls back
// its coin movements together with the pool state.
package bank

import (
	"context"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store/prefix"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
)

// StoreKey is the bank store key name
const StoreKey = "bank"

// Store key prefixes
var (
	BalancesPrefix = []byte{0x01}
	SupplyPrefix   = []byte{0x02}
)

// Keeper moves coins between accounts
type Keeper struct {
	storeKey storetypes.StoreKey
	logger   log.Logger
}

// NewKeeper creates a new bank keeper
func NewKeeper(storeKey storetypes.StoreKey, logger log.Logger) *Keeper {
	return &Keeper{
		storeKey: storeKey,
		logger:   logger.With("module", "x/bank"),
	}
}

// ModuleAddress returns the account address of a module
func ModuleAddress(moduleName string) sdk.AccAddress {
	return authtypes.NewModuleAddress(moduleName)
}

func (k *Keeper) balances(ctx sdk.Context, addr sdk.AccAddress) prefix.Store {
	store := prefix.NewStore(ctx.KVStore(k.storeKey), BalancesPrefix)
	return prefix.NewStore(store, address.MustLengthPrefix(addr))
}

// GetBalance returns the balance of one denom
func (k *Keeper) GetBalance(goCtx context.Context, addr sdk.AccAddress, denom string) sdk.Coin {
	ctx := sdk.UnwrapSDKContext(goCtx)
	bz := k.balances(ctx, addr).Get([]byte(denom))
	return sdk.NewCoin(denom, unmarshalAmount(bz))
}

// GetAllBalances returns every non-zero balance of an account
func (k *Keeper) GetAllBalances(goCtx context.Context, addr sdk.AccAddress) sdk.Coins {
	ctx := sdk.UnwrapSDKContext(goCtx)
	iterator := k.balances(ctx, addr).Iterator(nil, nil)
	defer iterator.Close()

	coins := sdk.NewCoins()
	for ; iterator.Valid(); iterator.Next() {
		amount := unmarshalAmount(iterator.Value())
		if amount.IsPositive() {
			coins = coins.Add(sdk.NewCoin(string(iterator.Key()), amount))
		}
	}
	return coins
}

// GetSupply returns the total minted amount of a denom
func (k *Keeper) GetSupply(goCtx context.Context, denom string) sdk.Coin {
	ctx := sdk.UnwrapSDKContext(goCtx)
	store := prefix.NewStore(ctx.KVStore(k.storeKey), SupplyPrefix)
	return sdk.NewCoin(denom, unmarshalAmount(store.Get([]byte(denom))))
}

// MintCoins creates coins in an account
func (k *Keeper) MintCoins(goCtx context.Context, addr sdk.AccAddress, amt sdk.Coins) error {
	ctx := sdk.UnwrapSDKContext(goCtx)
	if !amt.IsValid() {
		return sdkerrors.ErrInvalidCoins.Wrap(amt.String())
	}

	supply := prefix.NewStore(ctx.KVStore(k.storeKey), SupplyPrefix)
	for _, coin := range amt {
		k.addBalance(ctx, addr, coin)
		total := unmarshalAmount(supply.Get([]byte(coin.Denom))).Add(coin.Amount)
		supply.Set([]byte(coin.Denom), mustMarshalAmount(total))
	}

	k.logger.Debug("Coins minted", "address", addr.String(), "amount", amt.String())
	return nil
}

// SendCoins moves coins between two accounts
func (k *Keeper) SendCoins(goCtx context.Context, from, to sdk.AccAddress, amt sdk.Coins) error {
	ctx := sdk.UnwrapSDKContext(goCtx)
	if !amt.IsValid() {
		return sdkerrors.ErrInvalidCoins.Wrap(amt.String())
	}

	// Check every denom before moving any
	for _, coin := range amt {
		have := k.GetBalance(ctx, from, coin.Denom)
		if have.Amount.LT(coin.Amount) {
			return sdkerrors.ErrInsufficientFunds.Wrapf("%s has %s, needs %s", from, have, coin)
		}
	}
	for _, coin := range amt {
		k.subBalance(ctx, from, coin)
		k.addBalance(ctx, to, coin)
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"coin_transfer",
			sdk.NewAttribute("sender", from.String()),
			sdk.NewAttribute("recipient", to.String()),
			sdk.NewAttribute(sdk.AttributeKeyAmount, amt.String()),
		),
	)
	return nil
}

// SendCoinsFromAccountToModule moves coins from an account into a module account
func (k *Keeper) SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error {
	return k.SendCoins(ctx, senderAddr, ModuleAddress(recipientModule), amt)
}

// SendCoinsFromModuleToAccount moves coins out of a module account
func (k *Keeper) SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error {
	return k.SendCoins(ctx, ModuleAddress(senderModule), recipientAddr, amt)
}

func (k *Keeper) addBalance(ctx sdk.Context, addr sdk.AccAddress, coin sdk.Coin) {
	store := k.balances(ctx, addr)
	current := unmarshalAmount(store.Get([]byte(coin.Denom)))
	store.Set([]byte(coin.Denom), mustMarshalAmount(current.Add(coin.Amount)))
}

func (k *Keeper) subBalance(ctx sdk.Context, addr sdk.AccAddress, coin sdk.Coin) {
	store := k.balances(ctx, addr)
	current := unmarshalAmount(store.Get([]byte(coin.Denom)))
	store.Set([]byte(coin.Denom), mustMarshalAmount(current.Sub(coin.Amount)))
}

func mustMarshalAmount(amount math.Int) []byte {
	bz, err := amount.Marshal()
	if err != nil {
		panic(err)
	}
	return bz
}

func unmarshalAmount(bz []byte) math.Int {
	if bz == nil {
		return math.ZeroInt()
	}
	var amount math.Int
	if err := amount.Unmarshal(bz); err != nil {
		return math.ZeroInt()
	}
	return amount
}
