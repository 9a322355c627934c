// Package updater calls update on a cron schedule so tier prices keep
// tracking the ETH rate without a human caller.
package updater

import (
	"fmt"
	"sync"

	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/robfig/cron/v3"

	"github.com/openalpha/pancake/app"
	poolmetrics "github.com/openalpha/pancake/metrics"
	"github.com/openalpha/pancake/x/pancake/types"
)

// Updater runs scheduled updates against an app
type Updater struct {
	Cron   *cron.Cron
	app    *app.App
	caller sdk.AccAddress
	logger log.Logger

	mu   sync.Mutex
	runs int
	last *types.MsgUpdateResponse
}

// New creates an updater that sends updates as caller
func New(a *app.App, caller sdk.AccAddress, logger log.Logger) *Updater {
	logger = logger.With("module", "updater")
	return &Updater{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLogger{logger}),
			cron.WithChain(cron.Recover(cronLogger{logger})),
		),
		app:    a,
		caller: caller,
		logger: logger,
	}
}

// Register schedules the update task
func (u *Updater) Register(spec string) error {
	if _, err := u.Cron.AddFunc(spec, u.task); err != nil {
		return fmt.Errorf("register update task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler
func (u *Updater) Start() {
	u.Cron.Start()
	u.logger.Info("updater started", "caller", u.caller.String())
}

// Stop stops the scheduler and waits for a running update
func (u *Updater) Stop() {
	<-u.Cron.Stop().Done()
	u.logger.Info("updater stopped")
}

// RunOnce sends a single update
func (u *Updater) RunOnce() (*types.MsgUpdateResponse, error) {
	var resp *types.MsgUpdateResponse
	_, err := u.app.Exec(types.TypeMsgUpdate, func(ctx sdk.Context) error {
		var err error
		resp, err = u.app.MsgServer.Update(ctx, &types.MsgUpdate{Caller: u.caller.String()})
		return err
	})
	poolmetrics.GetCollector().RecordUpdaterRun(err)
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	u.runs++
	u.last = resp
	u.mu.Unlock()
	return resp, nil
}

// Runs returns the number of successful updates sent
func (u *Updater) Runs() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.runs
}

// Last returns the response of the last successful update
func (u *Updater) Last() *types.MsgUpdateResponse {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.last
}

func (u *Updater) task() {
	resp, err := u.RunOnce()
	if err != nil {
		u.logger.Error("scheduled update failed", "err", err)
		return
	}
	u.logger.Info("scheduled update", "repriced", resp.Repriced, "eth_rate", resp.EthRate,
		"senior_price", resp.SeniorPrice, "junior_price", resp.JuniorPrice)
}

// cronLogger routes scheduler logs, including recovered job panics, to the
// updater's logger
type cronLogger struct {
	logger log.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "err", err)...)
}
