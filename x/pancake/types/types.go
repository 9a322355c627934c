package types

import (
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Fixed-point scales
var (
	// RateScale is the scale of feed rates (8 decimals)
	RateScale = math.NewInt(100_000_000)
	// PriceScale is the scale of tier prices and tier token amounts (18 decimals)
	PriceScale = math.NewIntWithDecimal(1, 18)
	// BpsDenominator converts basis points to a fraction
	BpsDenominator = math.NewInt(10_000)
	// MaxRate is the highest feed rate the pool accepts ($100M per unit)
	MaxRate = math.NewIntWithDecimal(1, 16)
)

// Defaults
const (
	DefaultLockupSeconds   int64 = 30 * 24 * 60 * 60
	DefaultSeniorTargetBps int64 = 10
	TierDecimals           uint8 = 18
)

// Pool phases
const (
	PhaseDeposit   = "deposit"
	PhaseLocked    = "locked"
	PhaseUnlocking = "unlocking"
	PhaseWithdraw  = "withdraw"
)

// Pool is the pool's singleton accounting state
type Pool struct {
	DepositsEnabled    bool     `json:"deposits_enabled"`
	WithdrawalsEnabled bool     `json:"withdrawals_enabled"`
	Started            bool     `json:"started"`
	StartTime          int64    `json:"start_time"` // unix seconds
	LockupSeconds      int64    `json:"lockup_seconds"`
	SeniorPrice        math.Int `json:"senior_price"`
	JuniorPrice        math.Int `json:"junior_price"`
	LastEthRate        math.Int `json:"last_eth_rate"`
	LastDaiRate        math.Int `json:"last_dai_rate"`
	EthReserve         math.Int `json:"eth_reserve"`

	UpdateCount       uint64   `json:"update_count"`
	KickedOffBy       string   `json:"kicked_off_by,omitempty"`
	DaiConverted      math.Int `json:"dai_converted"`
	EthFromConversion math.Int `json:"eth_from_conversion"`
	UpdatedAt         int64    `json:"updated_at"`
}

// NewPool creates a pool open for deposits
func NewPool(lockupSeconds int64) *Pool {
	return &Pool{
		DepositsEnabled:   true,
		LockupSeconds:     lockupSeconds,
		SeniorPrice:       math.ZeroInt(),
		JuniorPrice:       math.ZeroInt(),
		LastEthRate:       math.ZeroInt(),
		LastDaiRate:       math.ZeroInt(),
		EthReserve:        math.ZeroInt(),
		DaiConverted:      math.ZeroInt(),
		EthFromConversion: math.ZeroInt(),
	}
}

// KickedOff reports whether kickoff has happened
func (p *Pool) KickedOff() bool {
	return p.Started
}

// UnlockTime returns the earliest time withdrawals may be enabled
func (p *Pool) UnlockTime() time.Time {
	return time.Unix(p.StartTime+p.LockupSeconds, 0).UTC()
}

// LockupElapsed reports whether the lockup has passed at now
func (p *Pool) LockupElapsed(now time.Time) bool {
	return p.KickedOff() && now.Unix() >= p.StartTime+p.LockupSeconds
}

// Phase returns the lifecycle phase at now
func (p *Pool) Phase(now time.Time) string {
	switch {
	case p.WithdrawalsEnabled:
		return PhaseWithdraw
	case !p.KickedOff():
		return PhaseDeposit
	case p.LockupElapsed(now):
		return PhaseUnlocking
	default:
		return PhaseLocked
	}
}

// Price returns the current price of a tier
func (p *Pool) Price(tier Tier) math.Int {
	if tier == TierSenior {
		return p.SeniorPrice
	}
	return p.JuniorPrice
}

// LastRate returns the last observed rate of an asset
func (p *Pool) LastRate(asset Asset) math.Int {
	if asset == AssetEth {
		return p.LastEthRate
	}
	return p.LastDaiRate
}

// SetLastRate records the last observed rate of an asset
func (p *Pool) SetLastRate(asset Asset, rate math.Int) {
	if asset == AssetEth {
		p.LastEthRate = rate
	} else {
		p.LastDaiRate = rate
	}
}

// Params are fixed when the pool is created
type Params struct {
	Operator         string `json:"operator" yaml:"operator"`
	LockupSeconds    int64  `json:"lockup_seconds" yaml:"lockup_seconds"`
	SeniorTargetBps  int64  `json:"senior_target_bps" yaml:"senior_target_bps"`
	RequireBothTiers bool   `json:"require_both_tiers" yaml:"require_both_tiers"`
}

// DefaultParams returns the default params for an operator
func DefaultParams(operator string) Params {
	return Params{
		Operator:         operator,
		LockupSeconds:    DefaultLockupSeconds,
		SeniorTargetBps:  DefaultSeniorTargetBps,
		RequireBothTiers: true,
	}
}

// Validate validates the params
func (p Params) Validate() error {
	if _, err := sdk.AccAddressFromBech32(p.Operator); err != nil {
		return ErrInvalidParams.Wrapf("operator: %s", err)
	}
	if p.LockupSeconds < 0 {
		return ErrInvalidParams.Wrap("lockup must not be negative")
	}
	if p.SeniorTargetBps < 0 || p.SeniorTargetBps > BpsDenominator.Int64() {
		return ErrInvalidParams.Wrapf("senior target %d bps out of range", p.SeniorTargetBps)
	}
	return nil
}

// OperatorAddress returns the operator as an account address
func (p Params) OperatorAddress() sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(p.Operator)
	return addr
}

// TierMetadata describes a tier ledger
type TierMetadata struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	Address  string `json:"address,omitempty"`
	Owner    string `json:"owner,omitempty"`
}

// MetadataFor returns the fixed metadata of a tier
func MetadataFor(tier Tier) TierMetadata {
	if tier == TierSenior {
		return TierMetadata{Name: "Buttermilk Pancake", Symbol: "BUTTR", Decimals: TierDecimals}
	}
	return TierMetadata{Name: "Chocolate Chip Pancake", Symbol: "CHOCO", Decimals: TierDecimals}
}

// Holding is one holder's balance in a tier ledger
type Holding struct {
	Address string   `json:"address"`
	Balance math.Int `json:"balance"`
}

// TierInfo summarizes a tier
type TierInfo struct {
	Tier        Tier         `json:"tier"`
	Metadata    TierMetadata `json:"metadata"`
	TotalSupply math.Int     `json:"total_supply"`
	Price       math.Int     `json:"price"`
	Capital     math.Int     `json:"capital"` // reference units, 1e18 scale
}

// AccountBalance is a holder's position across both tiers
type AccountBalance struct {
	Address      string   `json:"address"`
	Senior       math.Int `json:"senior"`
	Junior       math.Int `json:"junior"`
	SeniorPayout math.Int `json:"senior_payout"` // wei at the last mark
	JuniorPayout math.Int `json:"junior_payout"`
	EthBalance   math.Int `json:"eth_balance"`
	DaiBalance   math.Int `json:"dai_balance"`
}

// DepositReceipt records a processed deposit
type DepositReceipt struct {
	Depositor string   `json:"depositor"`
	Tier      Tier     `json:"tier"`
	Asset     Asset    `json:"asset"`
	Amount    math.Int `json:"amount"`
	Rate      math.Int `json:"rate"`
	Minted    math.Int `json:"minted"`
}

// KickoffResult records the one-time conversion at kickoff
type KickoffResult struct {
	StartTime    int64    `json:"start_time"`
	DaiConverted math.Int `json:"dai_converted"`
	EthReceived  math.Int `json:"eth_received"`
	EthReserve   math.Int `json:"eth_reserve"`
	EthRate      math.Int `json:"eth_rate"`
	DaiRate      math.Int `json:"dai_rate"`
}

// UpdateResult records one repricing step
type UpdateResult struct {
	Repriced    bool     `json:"repriced"`
	EthRate     math.Int `json:"eth_rate"`
	Gain        math.Int `json:"gain"` // signed, reference units at 1e18 scale
	SeniorPrice math.Int `json:"senior_price"`
	JuniorPrice math.Int `json:"junior_price"`
}

// WithdrawalReceipt records a redemption
type WithdrawalReceipt struct {
	Holder string   `json:"holder"`
	Tier   Tier     `json:"tier"`
	Amount math.Int `json:"amount"`
	Price  math.Int `json:"price"`
	Payout math.Int `json:"payout"` // wei
}
