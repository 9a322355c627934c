package keeper

import (
	"cosmossdk.io/math"

	"github.com/openalpha/pancake/x/pancake/types"
)

// Tranche is one tier's position going into a repricing step
type Tranche struct {
	Supply math.Int
	Price  math.Int
}

// Capital returns the tranche value in reference units (1e18 scale).
// It fails when supply times price leaves the 256-bit range.
func (t Tranche) Capital() (math.Int, error) {
	return mulDiv(t.Supply, t.Price, types.PriceScale)
}

func (t Tranche) active(capital math.Int) bool {
	return t.Supply.IsPositive() && t.Price.IsPositive() && capital.IsPositive()
}

// scaled returns the price that makes the tranche worth capital,
// never below zero
func (t Tranche) scaled(current, capital math.Int) (math.Int, error) {
	if !capital.IsPositive() {
		return math.ZeroInt(), nil
	}
	return mulDiv(t.Price, capital, current)
}

// Reprice distributes a signed gain between the tiers and returns the new
// senior and junior prices.
//
// The senior tier is owed targetBps of its capital per step. The junior
// tier funds that coupon and absorbs whatever gain or loss remains. Once
// the junior tier cannot cover the coupon it is wiped out and the senior
// tier takes what is left. A tier without supply takes no share.
//
// Reprice returns math.ErrIntOverflow instead of prices whose capital
// could not be represented.
func Reprice(senior, junior Tranche, gain math.Int, targetBps int64) (math.Int, math.Int, error) {
	seniorCap, err := senior.Capital()
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	juniorCap, err := junior.Capital()
	if err != nil {
		return math.Int{}, math.Int{}, err
	}

	seniorPrice, juniorPrice, err := reprice(senior, junior, seniorCap, juniorCap, gain, targetBps)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}

	// New prices must still value their supply
	if _, err := (Tranche{Supply: senior.Supply, Price: seniorPrice}).Capital(); err != nil {
		return math.Int{}, math.Int{}, err
	}
	if _, err := (Tranche{Supply: junior.Supply, Price: juniorPrice}).Capital(); err != nil {
		return math.Int{}, math.Int{}, err
	}
	return seniorPrice, juniorPrice, nil
}

func reprice(senior, junior Tranche, seniorCap, juniorCap, gain math.Int, targetBps int64) (math.Int, math.Int, error) {
	seniorActive := senior.active(seniorCap)
	juniorActive := junior.active(juniorCap)

	switch {
	case !seniorActive && !juniorActive:
		return senior.Price, junior.Price, nil
	case !juniorActive:
		after, err := seniorCap.SafeAdd(gain)
		if err != nil {
			return math.Int{}, math.Int{}, err
		}
		price, err := senior.scaled(seniorCap, after)
		return price, junior.Price, err
	case !seniorActive:
		after, err := juniorCap.SafeAdd(gain)
		if err != nil {
			return math.Int{}, math.Int{}, err
		}
		price, err := junior.scaled(juniorCap, after)
		return senior.Price, price, err
	}

	target, err := mulDiv(seniorCap, math.NewInt(targetBps), types.BpsDenominator)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	juniorAfter, err := juniorCap.SafeAdd(gain)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}

	if juniorAfter.GTE(target) {
		seniorPrice, err := mulDiv(senior.Price, types.BpsDenominator.AddRaw(targetBps), types.BpsDenominator)
		if err != nil {
			return math.Int{}, math.Int{}, err
		}
		juniorPrice, err := junior.scaled(juniorCap, juniorAfter.Sub(target))
		return seniorPrice, juniorPrice, err
	}

	// Junior tier exhausted
	remaining, err := seniorCap.SafeAdd(juniorAfter)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	seniorPrice, err := senior.scaled(seniorCap, remaining)
	return seniorPrice, math.ZeroInt(), err
}

// mulDiv returns a*b/c, or an error when a*b overflows
func mulDiv(a, b, c math.Int) (math.Int, error) {
	product, err := a.SafeMul(b)
	if err != nil {
		return math.Int{}, err
	}
	return product.SafeQuo(c)
}
