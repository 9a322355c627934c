package pricefeed

import (
	"sync"
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/huandu/skiplist"

	"github.com/openalpha/pancake/x/pancake/types"
)

var _ types.PriceFeed = (*Schedule)(nil)

// unixDesc orders unix timestamps newest first
type unixDesc struct{}

func (unixDesc) Compare(lhs, rhs interface{}) int {
	l := lhs.(int64)
	r := rhs.(int64)
	if l > r {
		return -1
	}
	if l < r {
		return 1
	}
	return 0
}

func (unixDesc) CalcScore(key interface{}) float64 {
	return -float64(key.(int64))
}

// Point is a rate that takes effect at a time
type Point struct {
	At   time.Time
	Rate math.Int
}

// Schedule answers with the latest scheduled rate at or before the
// block time. Each asset keeps its own newest-first skip list, so a
// lookup is a single Find.
type Schedule struct {
	mu     sync.RWMutex
	points map[types.Asset]*skiplist.SkipList
}

// NewSchedule creates an empty schedule
func NewSchedule() *Schedule {
	return &Schedule{
		points: map[types.Asset]*skiplist.SkipList{
			types.AssetEth: skiplist.New(unixDesc{}),
			types.AssetDai: skiplist.New(unixDesc{}),
		},
	}
}

// Add schedules rate for asset from at onwards, replacing any rate
// scheduled for the same second
func (s *Schedule) Add(asset types.Asset, at time.Time, rate math.Int) error {
	if err := asset.Validate(); err != nil {
		return err
	}
	if rate.IsNil() || !rate.IsPositive() {
		return types.ErrInvalidRate.Wrapf("%s rate %s at %s", asset, rate, at)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.points[asset].Set(at.Unix(), rate)
	return nil
}

// Len returns the number of points scheduled for an asset
func (s *Schedule) Len(asset types.Asset) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if list, ok := s.points[asset]; ok {
		return list.Len()
	}
	return 0
}

// Points returns an asset's schedule, oldest first
func (s *Schedule) Points(asset types.Asset) []Point {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, ok := s.points[asset]
	if !ok {
		return nil
	}
	points := make([]Point, list.Len())
	i := len(points) - 1
	for elem := list.Front(); elem != nil; elem = elem.Next() {
		points[i] = Point{At: time.Unix(elem.Key().(int64), 0).UTC(), Rate: elem.Value.(math.Int)}
		i--
	}
	return points
}

// RateAt returns the rate in effect at t
func (s *Schedule) RateAt(asset types.Asset, t time.Time) (math.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, ok := s.points[asset]
	if !ok {
		return math.Int{}, types.ErrFeedUnavailable.Wrapf("unknown asset %s", asset)
	}
	elem := list.Find(t.Unix())
	if elem == nil {
		return math.Int{}, types.ErrFeedUnavailable.Wrapf("no %s rate scheduled at or before %s", asset, t.UTC())
	}
	return elem.Value.(math.Int), nil
}

// CurrentRate implements types.PriceFeed
func (s *Schedule) CurrentRate(ctx sdk.Context, asset types.Asset) (math.Int, error) {
	return s.RateAt(asset, ctx.BlockTime())
}
