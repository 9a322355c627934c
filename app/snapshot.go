package app

import (
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	poolmetrics "github.com/openalpha/pancake/metrics"
	"github.com/openalpha/pancake/x/pancake/types"
)

// Snapshot is the committed pool state with both tiers
type Snapshot struct {
	Height int64          `json:"height"`
	Time   time.Time      `json:"time"`
	Phase  string         `json:"phase"`
	Pool   types.Pool     `json:"pool"`
	Senior types.TierInfo `json:"senior"`
	Junior types.TierInfo `json:"junior"`
}

func (a *App) snapshot(ctx sdk.Context) (*Snapshot, error) {
	pool := a.PancakeKeeper.GetPool(ctx)
	if pool == nil {
		return nil, types.ErrPoolNotFound
	}
	senior, err := a.PancakeKeeper.TierInfo(ctx, types.TierSenior)
	if err != nil {
		return nil, err
	}
	junior, err := a.PancakeKeeper.TierInfo(ctx, types.TierJunior)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Height: a.height,
		Time:   ctx.BlockTime(),
		Phase:  pool.Phase(ctx.BlockTime()),
		Pool:   *pool,
		Senior: *senior,
		Junior: *junior,
	}, nil
}

func (s *Snapshot) metrics() poolmetrics.PoolSnapshot {
	return poolmetrics.PoolSnapshot{
		Phase:         s.Phase,
		SeniorPrice:   ToFloat(s.Pool.SeniorPrice, types.PriceScale),
		JuniorPrice:   ToFloat(s.Pool.JuniorPrice, types.PriceScale),
		SeniorSupply:  ToFloat(s.Senior.TotalSupply, types.PriceScale),
		JuniorSupply:  ToFloat(s.Junior.TotalSupply, types.PriceScale),
		SeniorCapital: ToFloat(s.Senior.Capital, types.PriceScale),
		JuniorCapital: ToFloat(s.Junior.Capital, types.PriceScale),
		EthReserve:    ToFloat(s.Pool.EthReserve, types.PriceScale),
		EthRate:       ToFloat(s.Pool.LastEthRate, types.RateScale),
		DaiRate:       ToFloat(s.Pool.LastDaiRate, types.RateScale),
		UpdateCount:   s.Pool.UpdateCount,
	}
}

// ToFloat converts a scaled integer to a float for display and metrics
func ToFloat(amount, scale math.Int) float64 {
	if amount.IsNil() || scale.IsNil() || scale.IsZero() {
		return 0
	}
	f, err := math.LegacyNewDecFromInt(amount).QuoInt(scale).Float64()
	if err != nil {
		return 0
	}
	return f
}
