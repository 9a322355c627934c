package app

import (
	"fmt"
	"math/big"
	"strings"

	"cosmossdk.io/math"

	"github.com/openalpha/pancake/x/pancake/types"
)

// ParseUnits converts a decimal amount of whole tokens into base units (18 decimals)
func ParseUnits(s string) (math.Int, error) {
	return parseScaled(s, types.PriceScale)
}

// ParseRate converts a decimal USD rate into feed units (8 decimals)
func ParseRate(s string) (math.Int, error) {
	rate, err := parseScaled(s, types.RateScale)
	if err != nil {
		return math.Int{}, err
	}
	if !rate.IsPositive() {
		return math.Int{}, types.ErrInvalidRate.Wrapf("rate %q", s)
	}
	if rate.GT(types.MaxRate) {
		return math.Int{}, types.ErrInvalidRate.Wrapf("rate %q above %s", s, FormatRate(types.MaxRate))
	}
	return rate, nil
}

func parseScaled(s string, scale math.Int) (math.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.Int{}, fmt.Errorf("empty amount")
	}
	dec, err := math.LegacyNewDecFromStr(s)
	if err != nil {
		return math.Int{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if dec.IsNegative() {
		return math.Int{}, fmt.Errorf("negative amount %q", s)
	}
	scaled := new(big.Int).Mul(dec.BigInt(), scale.BigInt())
	scaled.Quo(scaled, math.LegacyOneDec().BigInt())
	if scaled.BitLen() > math.MaxBitLen {
		return math.Int{}, fmt.Errorf("amount %q out of range", s)
	}
	return math.NewIntFromBigInt(scaled), nil
}

// FormatUnits renders base units (18 decimals) as whole tokens
func FormatUnits(amount math.Int) string {
	return formatScaled(amount, types.PriceScale)
}

// FormatRate renders feed units (8 decimals) as USD
func FormatRate(rate math.Int) string {
	return formatScaled(rate, types.RateScale)
}

func formatScaled(amount math.Int, scale math.Int) string {
	if amount.IsNil() {
		return "0"
	}
	s := math.LegacyNewDecFromInt(amount).QuoInt(scale).String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}
