// Package pricefeed provides PriceFeed implementations for the pool.
package pricefeed

import (
	"sync"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/pancake/x/pancake/types"
)

var _ types.PriceFeed = (*Fixed)(nil)

// Fixed returns operator-set rates until they are changed
type Fixed struct {
	mu          sync.RWMutex
	rates       map[types.Asset]math.Int
	unavailable map[types.Asset]bool
}

// NewFixed creates a feed with no rates set
func NewFixed() *Fixed {
	return &Fixed{
		rates:       make(map[types.Asset]math.Int),
		unavailable: make(map[types.Asset]bool),
	}
}

// SetRate sets the 8-decimal rate of an asset
func (f *Fixed) SetRate(asset types.Asset, rate math.Int) error {
	if err := asset.Validate(); err != nil {
		return err
	}
	if rate.IsNil() || !rate.IsPositive() {
		return types.ErrInvalidRate.Wrapf("%s rate %s", asset, rate)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.rates[asset] = rate
	return nil
}

// SetUnavailable makes reads of an asset fail until cleared
func (f *Fixed) SetUnavailable(asset types.Asset, down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unavailable[asset] = down
}

// CurrentRate implements types.PriceFeed
func (f *Fixed) CurrentRate(_ sdk.Context, asset types.Asset) (math.Int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.unavailable[asset] {
		return math.Int{}, types.ErrFeedUnavailable.Wrapf("%s feed is down", asset)
	}
	rate, ok := f.rates[asset]
	if !ok {
		return math.Int{}, types.ErrFeedUnavailable.Wrapf("no %s rate", asset)
	}
	return rate, nil
}
