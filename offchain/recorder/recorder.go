// Package recorder keeps an off-chain history of pool marks so prices
// and reserves can be charted after the fact.
package recorder

import (
	"cosmossdk.io/log"

	"github.com/openalpha/pancake/app"
)

// Mark is the pool state after one committed operation
type Mark struct {
	Height       int64  `json:"height"`
	Timestamp    int64  `json:"timestamp"`
	Op           string `json:"op"`
	Phase        string `json:"phase"`
	SeniorPrice  string `json:"senior_price"`
	JuniorPrice  string `json:"junior_price"`
	SeniorSupply string `json:"senior_supply"`
	JuniorSupply string `json:"junior_supply"`
	EthReserve   string `json:"eth_reserve"`
	EthRate      string `json:"eth_rate"`
	DaiRate      string `json:"dai_rate"`
	UpdateCount  uint64 `json:"update_count"`
}

// Recorder persists marks
type Recorder interface {
	RecordMark(m *Mark) error
	History(limit int) ([]Mark, error)
	Close() error
}

// MarkFromResult converts a committed operation into a mark. It returns
// nil when the operation carried no pool state.
func MarkFromResult(res app.Result) *Mark {
	snap := res.Pool
	if snap == nil {
		return nil
	}
	return &Mark{
		Height:       res.Height,
		Timestamp:    res.Time.Unix(),
		Op:           res.Op,
		Phase:        snap.Phase,
		SeniorPrice:  snap.Pool.SeniorPrice.String(),
		JuniorPrice:  snap.Pool.JuniorPrice.String(),
		SeniorSupply: snap.Senior.TotalSupply.String(),
		JuniorSupply: snap.Junior.TotalSupply.String(),
		EthReserve:   snap.Pool.EthReserve.String(),
		EthRate:      snap.Pool.LastEthRate.String(),
		DaiRate:      snap.Pool.LastDaiRate.String(),
		UpdateCount:  snap.Pool.UpdateCount,
	}
}

// Hook returns an app listener that records every committed mark
func Hook(r Recorder, logger log.Logger) app.Listener {
	return func(res app.Result) {
		mark := MarkFromResult(res)
		if mark == nil {
			return
		}
		if err := r.RecordMark(mark); err != nil {
			logger.Error("record mark", "height", res.Height, "op", res.Op, "err", err)
		}
	}
}
