package types

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// BankKeeper defines the expected interface for the bank module
type BankKeeper interface {
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error
	GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin
}

// PriceFeed reports the current reference-unit rate of an asset
// as an 8-decimal fixed-point integer
type PriceFeed interface {
	CurrentRate(ctx sdk.Context, asset Asset) (math.Int, error)
}

// Converter sells the seller's DAI for ETH and returns the wei received
type Converter interface {
	LiquidateAllToEth(ctx sdk.Context, seller sdk.AccAddress, daiAmount math.Int) (math.Int, error)
}

// TierLedger is the balance ledger of one tier. Mint and Burn are
// restricted to the ledger owner.
type TierLedger interface {
	Init(ctx sdk.Context, owner sdk.AccAddress) error
	Address() sdk.AccAddress
	Metadata(ctx sdk.Context) TierMetadata
	Mint(ctx sdk.Context, minter, to sdk.AccAddress, amount math.Int) error
	Burn(ctx sdk.Context, burner, from sdk.AccAddress, amount math.Int) error
	Transfer(ctx sdk.Context, from, to sdk.AccAddress, amount math.Int) error
	Approve(ctx sdk.Context, owner, spender sdk.AccAddress, amount math.Int) error
	TransferFrom(ctx sdk.Context, spender, from, to sdk.AccAddress, amount math.Int) error
	Allowance(ctx sdk.Context, owner, spender sdk.AccAddress) math.Int
	BalanceOf(ctx sdk.Context, holder sdk.AccAddress) math.Int
	TotalSupply(ctx sdk.Context) math.Int
	Holders(ctx sdk.Context, limit int) []Holding
}
