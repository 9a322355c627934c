// Package app assembles the pool, bank and converter keepers over one
// commit multistore and serializes every state change through Exec.
package app

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	"github.com/cometbft/cometbft/crypto/tmhash"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"

	poolmetrics "github.com/openalpha/pancake/metrics"
	"github.com/openalpha/pancake/x/bank"
	"github.com/openalpha/pancake/x/pancake/converter"
	"github.com/openalpha/pancake/x/pancake/keeper"
	"github.com/openalpha/pancake/x/pancake/pricefeed"
	"github.com/openalpha/pancake/x/pancake/types"
)

// Name is the application name
const Name = "pancake"

// LiquidityProvider is the named account that seeds the converter
const LiquidityProvider = "liquidity"

// NamedAddress derives a deterministic account address from a name
func NamedAddress(name string) sdk.AccAddress {
	return sdk.AccAddress(tmhash.SumTruncated([]byte(name)))
}

// Result is the outcome of one committed operation
type Result struct {
	Op     string     `json:"op"`
	Height int64      `json:"height"`
	Time   time.Time  `json:"time"`
	Events sdk.Events `json:"events"`
	Pool   *Snapshot  `json:"pool,omitempty"`
}

// Listener is notified after every committed operation
type Listener func(Result)

// App is a standalone pancake node
type App struct {
	mu sync.Mutex

	cfg    *Config
	logger log.Logger
	db     dbm.DB
	cms    storetypes.CommitMultiStore
	height int64
	clock  func() time.Time

	BankKeeper    *bank.Keeper
	Converter     *converter.AMM
	PancakeKeeper *keeper.Keeper
	MsgServer     *keeper.MsgServer

	fixed    *pricefeed.Fixed
	schedule *pricefeed.Schedule

	metrics   *poolmetrics.Collector
	listeners []Listener
}

// New opens the node's database and wires the keepers
func New(cfg *Config, logger log.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var db dbm.DB
	if cfg.DBBackend == BackendMemDB {
		db = dbm.NewMemDB()
	} else {
		var err error
		db, err = dbm.NewDB(Name, dbm.GoLevelDBBackend, filepath.Join(cfg.Home, "data"))
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
	}

	pancakeKey := storetypes.NewKVStoreKey(types.StoreKey)
	bankKey := storetypes.NewKVStoreKey(bank.StoreKey)
	ammKey := storetypes.NewKVStoreKey(converter.StoreKey)

	cms := store.NewCommitMultiStore(db, logger, metrics.NewNoOpMetrics())
	cms.MountStoreWithDB(pancakeKey, storetypes.StoreTypeIAVL, db)
	cms.MountStoreWithDB(bankKey, storetypes.StoreTypeIAVL, db)
	cms.MountStoreWithDB(ammKey, storetypes.StoreTypeIAVL, db)
	if err := cms.LoadLatestVersion(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	bankKeeper := bank.NewKeeper(bankKey, logger)
	amm, err := converter.NewAMM(ammKey, bankKeeper, cfg.Converter.FeeBps, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a := &App{
		cfg:        cfg,
		logger:     logger.With("module", "app"),
		db:         db,
		cms:        cms,
		height:     cms.LastCommitID().Version,
		clock:      time.Now,
		BankKeeper: bankKeeper,
		Converter:  amm,
		metrics:    poolmetrics.GetCollector(),
	}

	var feed types.PriceFeed
	switch cfg.Feed.Mode {
	case FeedModeSchedule:
		a.schedule = pricefeed.NewSchedule()
		for _, p := range cfg.Feed.Schedule {
			asset, _ := types.ParseAsset(p.Asset)
			rate, _ := ParseRate(p.Rate)
			if err := a.schedule.Add(asset, p.At, rate); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		feed = a.schedule
	default:
		a.fixed = pricefeed.NewFixed()
		ethRate, _ := ParseRate(cfg.Feed.EthRate)
		daiRate, _ := ParseRate(cfg.Feed.DaiRate)
		if err := a.fixed.SetRate(types.AssetEth, ethRate); err != nil {
			_ = db.Close()
			return nil, err
		}
		if err := a.fixed.SetRate(types.AssetDai, daiRate); err != nil {
			_ = db.Close()
			return nil, err
		}
		feed = a.fixed
	}

	a.PancakeKeeper = keeper.NewKeeper(pancakeKey, bankKeeper, feed, amm, logger)
	a.MsgServer = keeper.NewMsgServerImpl(a.PancakeKeeper)
	return a, nil
}

// Config returns the node configuration
func (a *App) Config() *Config {
	return a.cfg
}

// Logger returns the app logger
func (a *App) Logger() log.Logger {
	return a.logger
}

// SetClock replaces the wall clock used for block times
func (a *App) SetClock(clock func() time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clock = clock
}

// Now returns the time the next operation will see
func (a *App) Now() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.now()
}

func (a *App) now() time.Time {
	return a.clock().Add(a.cfg.ClockOffset).UTC()
}

// Height returns the last committed height
func (a *App) Height() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.height
}

// Subscribe registers a listener for committed operations
func (a *App) Subscribe(l Listener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, l)
}

// SetRate changes a fixed feed rate
func (a *App) SetRate(asset types.Asset, rate math.Int) error {
	if a.fixed == nil {
		return types.ErrFeedUnavailable.Wrapf("feed mode %q does not accept rates", a.cfg.Feed.Mode)
	}
	return a.fixed.SetRate(asset, rate)
}

// Schedule returns the scheduled feed, or nil in fixed mode
func (a *App) Schedule() *pricefeed.Schedule {
	return a.schedule
}

func (a *App) newContext(ms storetypes.MultiStore) sdk.Context {
	header := cmtproto.Header{
		ChainID: Name,
		Height:  a.height + 1,
		Time:    a.now(),
	}
	return sdk.NewContext(ms, header, false, a.logger)
}

// Exec runs fn against a cached branch of the state and commits it when
// fn succeeds. A failed fn leaves no trace in the store. Listeners run
// after the commit, outside the app lock, so they may query the app.
func (a *App) Exec(op string, fn func(ctx sdk.Context) error) (*Result, error) {
	result, listeners, err := a.exec(op, fn)
	if err != nil {
		return nil, err
	}
	for _, l := range listeners {
		l(*result)
	}
	return result, nil
}

func (a *App) exec(op string, fn func(ctx sdk.Context) error) (*Result, []Listener, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	timer := poolmetrics.NewTimer()
	cache := a.cms.CacheMultiStore()
	ctx := a.newContext(cache)

	err := fn(ctx)
	a.metrics.RecordOperation(op, err, timer.ElapsedMs())
	if err != nil {
		a.logger.Debug("operation failed", "op", op, "err", err)
		return nil, nil, err
	}

	cache.Write()
	commitID := a.cms.Commit()
	a.height = commitID.Version

	result := &Result{
		Op:     op,
		Height: a.height,
		Time:   ctx.BlockTime(),
		Events: ctx.EventManager().Events(),
	}

	queryCtx := a.newContext(a.cms.CacheMultiStore())
	if snap, err := a.snapshot(queryCtx); err == nil {
		result.Pool = snap
		a.metrics.RecordPool(snap.metrics())
	}
	a.recordEvents(result.Events)

	a.logger.Info("committed", "op", op, "height", a.height, "events", len(result.Events))
	listeners := make([]Listener, len(a.listeners))
	copy(listeners, a.listeners)
	return result, listeners, nil
}

// Query runs fn against a read-only branch of the last committed state
func (a *App) Query(fn func(ctx sdk.Context) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return fn(a.newContext(a.cms.CacheMultiStore()))
}

// Initialized reports whether the pool has been created
func (a *App) Initialized() bool {
	initialized := false
	_ = a.Query(func(ctx sdk.Context) error {
		initialized = a.PancakeKeeper.GetPool(ctx) != nil
		return nil
	})
	return initialized
}

// InitChain creates the pool and seeds the converter's liquidity
func (a *App) InitChain() (*Result, error) {
	seedEth, err := ParseUnits(a.cfg.Converter.SeedEth)
	if err != nil {
		return nil, err
	}
	seedDai, err := ParseUnits(a.cfg.Converter.SeedDai)
	if err != nil {
		return nil, err
	}

	return a.Exec("init", func(ctx sdk.Context) error {
		if err := a.PancakeKeeper.InitPool(ctx, a.cfg.Params()); err != nil {
			return err
		}
		if !seedEth.IsPositive() || !seedDai.IsPositive() {
			return nil
		}
		provider := NamedAddress(LiquidityProvider)
		seed := sdk.NewCoins(
			sdk.NewCoin(types.DenomEth, seedEth),
			sdk.NewCoin(types.DenomDai, seedDai),
		)
		if err := a.BankKeeper.MintCoins(ctx, provider, seed); err != nil {
			return err
		}
		return a.Converter.AddLiquidity(ctx, provider, seedEth, seedDai)
	})
}

// Fund mints test coins to an account
func (a *App) Fund(addr sdk.AccAddress, coins sdk.Coins) (*Result, error) {
	return a.Exec("fund", func(ctx sdk.Context) error {
		return a.BankKeeper.MintCoins(ctx, addr, coins)
	})
}

// Snapshot returns the committed pool state
func (a *App) Snapshot() (*Snapshot, error) {
	var snap *Snapshot
	err := a.Query(func(ctx sdk.Context) error {
		var err error
		snap, err = a.snapshot(ctx)
		return err
	})
	return snap, err
}

// Close flushes and closes the database
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.db.Close()
}

func (a *App) recordEvents(events sdk.Events) {
	for _, ev := range events {
		attrs := make(map[string]string, len(ev.Attributes))
		for _, attr := range ev.Attributes {
			attrs[attr.Key] = attr.Value
		}
		switch ev.Type {
		case types.EventTypeDeposit:
			amount, ok := math.NewIntFromString(attrs[types.AttributeKeyAmount])
			if ok {
				a.metrics.RecordDeposit(attrs[types.AttributeKeyTier], attrs[types.AttributeKeyAsset], ToFloat(amount, types.PriceScale))
			}
		case types.EventTypeWithdraw:
			payout, ok := math.NewIntFromString(attrs[types.AttributeKeyPayout])
			if ok {
				a.metrics.RecordWithdrawal(attrs[types.AttributeKeyTier], ToFloat(payout, types.PriceScale))
			}
		case types.EventTypeUpdate:
			a.metrics.RecordUpdate(attrs[types.AttributeKeyRepriced] == "true")
		}
	}
}
