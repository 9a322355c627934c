package types

import (
	"fmt"
	"strings"
)

const (
	// ModuleName defines the module name
	ModuleName = "pancake"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName

	// RouterKey defines the module's message routing key
	RouterKey = ModuleName
)

// Coin denominations held by the pool
const (
	DenomEth = "wei"
	DenomDai = "adai"
)

// Store key prefixes
var (
	PoolKey            = []byte{0x01}
	ParamsKey          = []byte{0x02}
	SeniorLedgerPrefix = []byte{0x10}
	JuniorLedgerPrefix = []byte{0x11}
)

// Tier identifies one of the two receipt token classes
type Tier string

const (
	TierSenior Tier = "senior"
	TierJunior Tier = "junior"
)

// Tiers lists both tiers in payout priority order
var Tiers = []Tier{TierSenior, TierJunior}

// ParseTier accepts the tier name or its token name
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "senior", "buttermilk", "buttr":
		return TierSenior, nil
	case "junior", "chocolate-chip", "chocolatechip", "choco":
		return TierJunior, nil
	}
	return "", ErrInvalidTier.Wrapf("unknown tier %q", s)
}

// LedgerPrefix returns the store prefix holding the tier's ledger
func (t Tier) LedgerPrefix() []byte {
	if t == TierSenior {
		return SeniorLedgerPrefix
	}
	return JuniorLedgerPrefix
}

// Validate checks the tier is known
func (t Tier) Validate() error {
	if t != TierSenior && t != TierJunior {
		return ErrInvalidTier.Wrapf("unknown tier %q", string(t))
	}
	return nil
}

// Asset identifies a depositable value unit
type Asset string

const (
	AssetEth Asset = "ETH"
	AssetDai Asset = "DAI"
)

// ParseAsset parses an asset symbol, case-insensitive
func ParseAsset(s string) (Asset, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ETH", "WEI":
		return AssetEth, nil
	case "DAI", "ADAI":
		return AssetDai, nil
	}
	return "", ErrInvalidAsset.Wrapf("unknown asset %q", s)
}

// Denom returns the coin denomination carrying the asset
func (a Asset) Denom() string {
	switch a {
	case AssetEth:
		return DenomEth
	case AssetDai:
		return DenomDai
	}
	panic(fmt.Sprintf("no denom for asset %q", string(a)))
}

// Validate checks the asset is known
func (a Asset) Validate() error {
	if a != AssetEth && a != AssetDai {
		return ErrInvalidAsset.Wrapf("unknown asset %q", string(a))
	}
	return nil
}
