package ledger

import (
	"encoding/json"

	"cosmossdk.io/math"
	"cosmossdk.io/store/prefix"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/openalpha/pancake/x/pancake/types"
)

// Keys inside a ledger's prefix store
var (
	metadataKey     = []byte{0x01}
	supplyKey       = []byte{0x02}
	balancePrefix   = []byte{0x03}
	allowancePrefix = []byte{0x04}
)

var _ types.TierLedger = (*Ledger)(nil)

// Ledger is a store-backed tier token ledger. Balances live under the
// tier's prefix in the module store, so ledger writes share the caller's
// cache context and commit or roll back with it.
type Ledger struct {
	storeKey storetypes.StoreKey
	tier     types.Tier
	address  sdk.AccAddress
}

// New creates the ledger of a tier in the given store
func New(storeKey storetypes.StoreKey, tier types.Tier) *Ledger {
	return &Ledger{
		storeKey: storeKey,
		tier:     tier,
		address:  authtypes.NewModuleAddress(types.ModuleName + "/" + string(tier)),
	}
}

func (l *Ledger) store(ctx sdk.Context) prefix.Store {
	return prefix.NewStore(ctx.KVStore(l.storeKey), l.tier.LedgerPrefix())
}

// Address returns the ledger's own address
func (l *Ledger) Address() sdk.AccAddress {
	return l.address
}

// Init records the ledger metadata and the owner allowed to mint and burn
func (l *Ledger) Init(ctx sdk.Context, owner sdk.AccAddress) error {
	store := l.store(ctx)
	if store.Has(metadataKey) {
		return types.ErrPoolExists.Wrapf("%s ledger already initialized", l.tier)
	}

	meta := types.MetadataFor(l.tier)
	meta.Address = l.address.String()
	meta.Owner = owner.String()
	bz, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	store.Set(metadataKey, bz)
	l.setSupply(store, math.ZeroInt())
	return nil
}

// Metadata returns the ledger's name, symbol and decimals
func (l *Ledger) Metadata(ctx sdk.Context) types.TierMetadata {
	bz := l.store(ctx).Get(metadataKey)
	if bz == nil {
		return types.MetadataFor(l.tier)
	}
	var meta types.TierMetadata
	if err := json.Unmarshal(bz, &meta); err != nil {
		return types.MetadataFor(l.tier)
	}
	return meta
}

func (l *Ledger) isOwner(ctx sdk.Context, caller sdk.AccAddress) bool {
	meta := l.Metadata(ctx)
	return meta.Owner != "" && meta.Owner == caller.String()
}

// ============ Supply ============

// Mint credits new tokens to a holder. Only the owner may mint.
func (l *Ledger) Mint(ctx sdk.Context, minter, to sdk.AccAddress, amount math.Int) error {
	if !l.isOwner(ctx, minter) {
		return types.ErrUnauthorized.Wrapf("%s cannot mint %s", minter, l.tier)
	}
	if amount.IsNegative() {
		return types.ErrInvalidAmount.Wrapf("mint %s", amount)
	}

	store := l.store(ctx)
	supply, err := l.supply(store).SafeAdd(amount)
	if err != nil {
		return types.ErrInvalidAmount.Wrapf("mint %s: %s", amount, err)
	}
	// balances never exceed supply
	l.setBalance(store, to, l.balanceOf(store, to).Add(amount))
	l.setSupply(store, supply)

	l.emitTransfer(ctx, nil, to, amount)
	return nil
}

// Burn destroys a holder's tokens. Only the owner may burn.
func (l *Ledger) Burn(ctx sdk.Context, burner, from sdk.AccAddress, amount math.Int) error {
	if !l.isOwner(ctx, burner) {
		return types.ErrUnauthorized.Wrapf("%s cannot burn %s", burner, l.tier)
	}
	if amount.IsNegative() {
		return types.ErrInvalidAmount.Wrapf("burn %s", amount)
	}

	store := l.store(ctx)
	balance := l.balanceOf(store, from)
	if amount.GT(balance) {
		return types.ErrInsufficientBalance.Wrapf("%s has %s %s, burning %s", from, balance, l.tier, amount)
	}
	l.setBalance(store, from, balance.Sub(amount))
	l.setSupply(store, l.supply(store).Sub(amount))

	l.emitTransfer(ctx, from, nil, amount)
	return nil
}

// TotalSupply returns the tier's outstanding tokens
func (l *Ledger) TotalSupply(ctx sdk.Context) math.Int {
	return l.supply(l.store(ctx))
}

// ============ Balances ============

// BalanceOf returns a holder's balance, zero if never credited
func (l *Ledger) BalanceOf(ctx sdk.Context, holder sdk.AccAddress) math.Int {
	return l.balanceOf(l.store(ctx), holder)
}

// Transfer moves tokens between holders
func (l *Ledger) Transfer(ctx sdk.Context, from, to sdk.AccAddress, amount math.Int) error {
	return l.move(ctx, from, to, amount)
}

// Approve sets the amount spender may move out of owner's balance
func (l *Ledger) Approve(ctx sdk.Context, owner, spender sdk.AccAddress, amount math.Int) error {
	if amount.IsNegative() {
		return types.ErrInvalidAmount.Wrapf("approve %s", amount)
	}
	store := l.store(ctx)
	store.Set(allowanceKey(owner, spender), mustMarshalInt(amount))

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeApproval,
			sdk.NewAttribute(types.AttributeKeySymbol, l.Metadata(ctx).Symbol),
			sdk.NewAttribute(types.AttributeKeyOwner, owner.String()),
			sdk.NewAttribute(types.AttributeKeySpender, spender.String()),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
		),
	)
	return nil
}

// Allowance returns what spender may still move out of owner's balance
func (l *Ledger) Allowance(ctx sdk.Context, owner, spender sdk.AccAddress) math.Int {
	return unmarshalInt(l.store(ctx).Get(allowanceKey(owner, spender)))
}

// TransferFrom moves tokens on behalf of from, spending the allowance
func (l *Ledger) TransferFrom(ctx sdk.Context, spender, from, to sdk.AccAddress, amount math.Int) error {
	if amount.IsNegative() {
		return types.ErrInvalidAmount.Wrapf("transfer %s", amount)
	}
	store := l.store(ctx)
	allowance := unmarshalInt(store.Get(allowanceKey(from, spender)))
	if amount.GT(allowance) {
		return types.ErrInsufficientAllowance.Wrapf("%s may move %s of %s, requested %s", spender, allowance, from, amount)
	}
	if err := l.move(ctx, from, to, amount); err != nil {
		return err
	}
	store.Set(allowanceKey(from, spender), mustMarshalInt(allowance.Sub(amount)))
	return nil
}

func (l *Ledger) move(ctx sdk.Context, from, to sdk.AccAddress, amount math.Int) error {
	if amount.IsNegative() {
		return types.ErrInvalidAmount.Wrapf("transfer %s", amount)
	}
	store := l.store(ctx)
	fromBalance := l.balanceOf(store, from)
	if amount.GT(fromBalance) {
		return types.ErrInsufficientBalance.Wrapf("%s has %s %s, sending %s", from, fromBalance, l.tier, amount)
	}
	l.setBalance(store, from, fromBalance.Sub(amount))
	l.setBalance(store, to, l.balanceOf(store, to).Add(amount))

	l.emitTransfer(ctx, from, to, amount)
	return nil
}

func (l *Ledger) emitTransfer(ctx sdk.Context, from, to sdk.AccAddress, amount math.Int) {
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeTransfer,
			sdk.NewAttribute(types.AttributeKeySymbol, l.Metadata(ctx).Symbol),
			sdk.NewAttribute(types.AttributeKeyFrom, addrString(from)),
			sdk.NewAttribute(types.AttributeKeyTo, addrString(to)),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
		),
	)
}

// ============ Store helpers ============

func (l *Ledger) supply(store prefix.Store) math.Int {
	return unmarshalInt(store.Get(supplyKey))
}

func (l *Ledger) setSupply(store prefix.Store, amount math.Int) {
	store.Set(supplyKey, mustMarshalInt(amount))
}

func (l *Ledger) balanceOf(store prefix.Store, holder sdk.AccAddress) math.Int {
	return unmarshalInt(store.Get(balanceKey(holder)))
}

// setBalance writes zero balances too; an entry is never removed once created
func (l *Ledger) setBalance(store prefix.Store, holder sdk.AccAddress, amount math.Int) {
	store.Set(balanceKey(holder), mustMarshalInt(amount))
}

func balanceKey(holder sdk.AccAddress) []byte {
	return append(append([]byte{}, balancePrefix...), holder...)
}

func allowanceKey(owner, spender sdk.AccAddress) []byte {
	key := append([]byte{}, allowancePrefix...)
	key = append(key, address.MustLengthPrefix(owner)...)
	return append(key, spender...)
}

func mustMarshalInt(amount math.Int) []byte {
	bz, err := amount.Marshal()
	if err != nil {
		panic(err)
	}
	return bz
}

func unmarshalInt(bz []byte) math.Int {
	if bz == nil {
		return math.ZeroInt()
	}
	var amount math.Int
	if err := amount.Unmarshal(bz); err != nil {
		return math.ZeroInt()
	}
	return amount
}

func addrString(addr sdk.AccAddress) string {
	if addr.Empty() {
		return ""
	}
	return addr.String()
}
