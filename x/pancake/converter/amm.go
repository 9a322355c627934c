// Package converter implements the pool's DAI to ETH conversion as a
// constant-product market holding its own reserves.
package converter

import (
	"context"
	"encoding/json"

	"cosmossdk.io/errors"
	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/openalpha/pancake/x/pancake/types"
)

const (
	// ModuleName is the converter's module account name
	ModuleName = "amm"

	// StoreKey is the converter store key name
	StoreKey = ModuleName

	// DefaultFeeBps is the swap fee taken from the input amount
	DefaultFeeBps int64 = 30

	EventTypeSwap = "amm_swap"
)

var reservesKey = []byte{0x01}

// Converter errors
var (
	ErrNoLiquidity    = errors.Register(ModuleName, 2, "no liquidity")
	ErrInvalidAmount  = errors.Register(ModuleName, 3, "invalid amount")
	ErrInvalidFee     = errors.Register(ModuleName, 4, "invalid fee")
	ErrOutputTooSmall = errors.Register(ModuleName, 5, "swap output is zero")
)

// BankKeeper defines the expected interface for the bank module
type BankKeeper interface {
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error
}

// Reserves are the market's coin holdings
type Reserves struct {
	Eth math.Int `json:"eth"`
	Dai math.Int `json:"dai"`
}

var _ types.Converter = (*AMM)(nil)

// AMM is a constant-product DAI/ETH market
type AMM struct {
	storeKey   storetypes.StoreKey
	bankKeeper BankKeeper
	feeBps     int64
	logger     log.Logger
}

// NewAMM creates the market. feeBps is charged on the DAI sold.
func NewAMM(storeKey storetypes.StoreKey, bankKeeper BankKeeper, feeBps int64, logger log.Logger) (*AMM, error) {
	if feeBps < 0 || feeBps >= types.BpsDenominator.Int64() {
		return nil, ErrInvalidFee.Wrapf("%d bps", feeBps)
	}
	return &AMM{
		storeKey:   storeKey,
		bankKeeper: bankKeeper,
		feeBps:     feeBps,
		logger:     logger.With("module", "x/"+ModuleName),
	}, nil
}

// Address returns the account holding the reserves
func (a *AMM) Address() sdk.AccAddress {
	return authtypes.NewModuleAddress(ModuleName)
}

// GetReserves returns the current reserves
func (a *AMM) GetReserves(ctx sdk.Context) Reserves {
	reserves := Reserves{Eth: math.ZeroInt(), Dai: math.ZeroInt()}
	bz := ctx.KVStore(a.storeKey).Get(reservesKey)
	if bz == nil {
		return reserves
	}
	_ = json.Unmarshal(bz, &reserves)
	return reserves
}

func (a *AMM) setReserves(ctx sdk.Context, reserves Reserves) {
	bz, _ := json.Marshal(reserves)
	ctx.KVStore(a.storeKey).Set(reservesKey, bz)
}

// AddLiquidity moves coins from provider into the reserves
func (a *AMM) AddLiquidity(ctx sdk.Context, provider sdk.AccAddress, eth, dai math.Int) error {
	if eth.IsNegative() || dai.IsNegative() || (eth.IsZero() && dai.IsZero()) {
		return ErrInvalidAmount.Wrapf("eth %s dai %s", eth, dai)
	}

	deposit := sdk.NewCoins(sdk.NewCoin(types.DenomEth, eth), sdk.NewCoin(types.DenomDai, dai))
	if err := a.bankKeeper.SendCoinsFromAccountToModule(ctx, provider, ModuleName, deposit); err != nil {
		return err
	}

	reserves := a.GetReserves(ctx)
	reserves.Eth = reserves.Eth.Add(eth)
	reserves.Dai = reserves.Dai.Add(dai)
	a.setReserves(ctx, reserves)

	a.logger.Info("Liquidity added", "provider", provider.String(), "eth", eth.String(), "dai", dai.String())
	return nil
}

// QuoteDaiToEth returns the wei paid for daiIn at the current reserves
func (a *AMM) QuoteDaiToEth(ctx sdk.Context, daiIn math.Int) (math.Int, error) {
	return a.quote(a.GetReserves(ctx), daiIn)
}

func (a *AMM) quote(reserves Reserves, daiIn math.Int) (math.Int, error) {
	if !daiIn.IsPositive() {
		return math.Int{}, ErrInvalidAmount.Wrapf("dai in %s", daiIn)
	}
	if !reserves.Eth.IsPositive() || !reserves.Dai.IsPositive() {
		return math.Int{}, ErrNoLiquidity
	}

	inAfterFee := daiIn.Mul(types.BpsDenominator.SubRaw(a.feeBps))
	numerator := reserves.Eth.Mul(inAfterFee)
	denominator := reserves.Dai.Mul(types.BpsDenominator).Add(inAfterFee)
	out := numerator.Quo(denominator)
	if !out.IsPositive() {
		return math.Int{}, ErrOutputTooSmall.Wrapf("selling %s adai", daiIn)
	}
	return out, nil
}

// LiquidateAllToEth sells daiAmount of the seller's DAI for ETH
func (a *AMM) LiquidateAllToEth(ctx sdk.Context, seller sdk.AccAddress, daiAmount math.Int) (math.Int, error) {
	reserves := a.GetReserves(ctx)
	ethOut, err := a.quote(reserves, daiAmount)
	if err != nil {
		return math.Int{}, err
	}

	daiIn := sdk.NewCoins(sdk.NewCoin(types.DenomDai, daiAmount))
	if err := a.bankKeeper.SendCoinsFromAccountToModule(ctx, seller, ModuleName, daiIn); err != nil {
		return math.Int{}, err
	}
	ethPaid := sdk.NewCoins(sdk.NewCoin(types.DenomEth, ethOut))
	if err := a.bankKeeper.SendCoinsFromModuleToAccount(ctx, ModuleName, seller, ethPaid); err != nil {
		return math.Int{}, err
	}

	reserves.Dai = reserves.Dai.Add(daiAmount)
	reserves.Eth = reserves.Eth.Sub(ethOut)
	a.setReserves(ctx, reserves)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			EventTypeSwap,
			sdk.NewAttribute("seller", seller.String()),
			sdk.NewAttribute("dai_in", daiAmount.String()),
			sdk.NewAttribute("eth_out", ethOut.String()),
		),
	)
	a.logger.Info("DAI sold", "seller", seller.String(), "dai_in", daiAmount.String(), "eth_out", ethOut.String())
	return ethOut, nil
}
