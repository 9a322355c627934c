package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/pancake/api/websocket"
	"github.com/openalpha/pancake/app"
	"github.com/openalpha/pancake/offchain/recorder"
	"github.com/openalpha/pancake/x/pancake/types"
)

type testEnv struct {
	app      *app.App
	server   *Server
	handler  http.Handler
	operator sdk.AccAddress
	alice    sdk.AccAddress
	bob      sdk.AccAddress
	now      *time.Time
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()
	cfg := app.DefaultConfig()
	cfg.Home = t.TempDir()
	cfg.DBBackend = app.BackendMemDB
	cfg.Pool.LockupSeconds = 600

	a, err := app.New(cfg, log.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	now := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	a.SetClock(func() time.Time { return now })

	history, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"), log.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = history.Close() })
	a.Subscribe(recorder.Hook(history, log.NewNopLogger()))

	s := NewServer(a, history, &Config{DisableRateLimit: true}, log.NewNopLogger())
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	a.Subscribe(s.Publish)

	env := &testEnv{
		app:      a,
		server:   s,
		handler:  s.Handler(),
		operator: cfg.Params().OperatorAddress(),
		alice:    app.NamedAddress("alice"),
		bob:      app.NamedAddress("bob"),
		now:      &now,
	}
	return env
}

func (e *testEnv) init(t *testing.T) {
	t.Helper()
	_, err := e.app.InitChain()
	require.NoError(t, err)
	for _, addr := range []sdk.AccAddress{e.alice, e.bob} {
		_, err := e.app.Fund(addr, sdk.NewCoins(
			sdk.NewCoin(types.DenomEth, math.NewIntWithDecimal(10, 18)),
			sdk.NewCoin(types.DenomDai, math.NewIntWithDecimal(10_000, 18)),
		))
		require.NoError(t, err)
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		bz, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(bz)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func TestHealthAndUninitializedPool(t *testing.T) {
	env := setupServer(t)

	code, body := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "healthy", body["status"])
	require.Equal(t, false, body["initialized"])

	code, body = env.do(t, http.MethodGet, "/v1/pool", nil)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, types.ModuleName, body["codespace"])
}

func TestTransactionRoutes(t *testing.T) {
	env := setupServer(t)
	env.init(t)

	code, body := env.do(t, http.MethodPost, "/v1/tx/deposit", types.MsgDeposit{
		Depositor: env.alice.String(), Tier: "senior", Asset: "ETH", Amount: "500000000000000000",
	})
	require.Equal(t, http.StatusOK, code, body)
	result := body["result"].(map[string]interface{})
	require.Equal(t, "500000000000000000", result["minted"])

	code, _ = env.do(t, http.MethodPost, "/v1/tx/deposit", types.MsgDeposit{
		Depositor: env.bob.String(), Tier: "choco", Asset: "ETH", Amount: "500000000000000000",
	})
	require.Equal(t, http.StatusOK, code)

	// only the operator may kick off
	code, body = env.do(t, http.MethodPost, "/v1/tx/kickoff", types.MsgKickoff{Operator: env.alice.String()})
	require.Equal(t, http.StatusForbidden, code)
	require.Equal(t, types.ModuleName, body["codespace"])

	code, _ = env.do(t, http.MethodPost, "/v1/tx/kickoff", types.MsgKickoff{Operator: env.operator.String()})
	require.Equal(t, http.StatusOK, code)

	// deposits are closed now
	code, body = env.do(t, http.MethodPost, "/v1/tx/deposit", types.MsgDeposit{
		Depositor: env.alice.String(), Tier: "senior", Asset: "ETH", Amount: "1",
	})
	require.Equal(t, http.StatusConflict, code)
	require.EqualValues(t, types.ErrDepositsClosed.ABCICode(), body["code"])

	code, _ = env.do(t, http.MethodPost, "/v1/feed/rate", SetRateRequest{Asset: "ETH", Rate: "220"})
	require.Equal(t, http.StatusOK, code)

	code, _ = env.do(t, http.MethodPost, "/v1/feed/rate", SetRateRequest{Asset: "ETH", Rate: "1" + strings.Repeat("0", 60)})
	require.Equal(t, http.StatusBadRequest, code)

	code, body = env.do(t, http.MethodPost, "/v1/tx/update", types.MsgUpdate{Caller: env.bob.String()})
	require.Equal(t, http.StatusOK, code)
	result = body["result"].(map[string]interface{})
	require.Equal(t, true, result["repriced"])
	require.Equal(t, "1001000000000000000", result["senior_price"])
	require.Equal(t, "1199000000000000000", result["junior_price"])

	code, body = env.do(t, http.MethodGet, "/v1/tiers/senior/estimate?amount=100000000000000000000", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "455000000000000000", body["payout"])

	// lockup still running
	code, _ = env.do(t, http.MethodPost, "/v1/tx/enable-withdrawals", types.MsgEnableWithdrawals{Operator: env.operator.String()})
	require.Equal(t, http.StatusConflict, code)

	*env.now = env.now.Add(10 * time.Minute)
	code, _ = env.do(t, http.MethodPost, "/v1/tx/enable-withdrawals", types.MsgEnableWithdrawals{Operator: env.operator.String()})
	require.Equal(t, http.StatusOK, code)

	code, body = env.do(t, http.MethodPost, "/v1/tx/withdraw", types.MsgWithdraw{
		Holder: env.bob.String(), Tier: "junior", Amount: "100000000000000000000",
	})
	require.Equal(t, http.StatusOK, code)
	result = body["result"].(map[string]interface{})
	require.Equal(t, "545000000000000000", result["payout"])

	code, body = env.do(t, http.MethodGet, "/v1/history?limit=3", nil)
	require.Equal(t, http.StatusOK, code)
	marks := body["marks"].([]interface{})
	require.Len(t, marks, 3)
	require.Equal(t, "withdraw", marks[0].(map[string]interface{})["op"])
}

func TestQueryRoutes(t *testing.T) {
	env := setupServer(t)
	env.init(t)

	code, _ := env.do(t, http.MethodPost, "/v1/tx/deposit", types.MsgDeposit{
		Depositor: env.alice.String(), Tier: "senior", Asset: "DAI", Amount: "1000000000000000000000",
	})
	require.Equal(t, http.StatusOK, code)

	code, body := env.do(t, http.MethodGet, "/v1/pool", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, types.PhaseDeposit, body["phase"])

	code, body = env.do(t, http.MethodGet, "/v1/tiers/buttermilk", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "1000000000000000000000", body["total_supply"])
	require.Equal(t, "BUTTR", body["metadata"].(map[string]interface{})["symbol"])

	code, _ = env.do(t, http.MethodGet, "/v1/tiers/waffle", nil)
	require.Equal(t, http.StatusBadRequest, code)

	code, body = env.do(t, http.MethodGet, "/v1/tiers/senior/holders?limit=5", nil)
	require.Equal(t, http.StatusOK, code)
	holders := body["holders"].([]interface{})
	require.Len(t, holders, 1)
	require.Equal(t, env.alice.String(), holders[0].(map[string]interface{})["address"])

	code, body = env.do(t, http.MethodGet, "/v1/accounts/"+env.alice.String(), nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "1000000000000000000000", body["senior"])
	require.Equal(t, "9000000000000000000000", body["dai_balance"])

	code, _ = env.do(t, http.MethodGet, "/v1/accounts/not-an-address", nil)
	require.Equal(t, http.StatusBadRequest, code)

	code, body = env.do(t, http.MethodGet, "/v1/converter", nil)
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, body["address"])

	code, _ = env.do(t, http.MethodPost, "/v1/tx/deposit", map[string]string{"tier": "senior"})
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, code)
}

func TestWebSocketStreamsCommits(t *testing.T) {
	env := setupServer(t)
	env.init(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go env.server.Hub().Run(ctx)

	ts := httptest.NewServer(env.handler)
	defer ts.Close()

	conn, _, err := gorillaws.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() websocket.WSMessage {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var msg websocket.WSMessage
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	require.NoError(t, conn.WriteJSON(websocket.ClientMessage{Action: "subscribe", Channel: "bogus"}))
	require.Equal(t, "error", read().Type)

	require.NoError(t, conn.WriteJSON(websocket.ClientMessage{Action: "subscribe", Channel: websocket.ChannelPool}))
	msg := read()
	require.Equal(t, "subscribed", msg.Type)
	require.Equal(t, websocket.ChannelPool, msg.Channel)

	account := websocket.ChannelAccount + env.alice.String()
	require.NoError(t, conn.WriteJSON(websocket.ClientMessage{Action: "subscribe", Channel: account}))
	require.Equal(t, "subscribed", read().Type)

	code, _ := env.do(t, http.MethodPost, "/v1/tx/deposit", types.MsgDeposit{
		Depositor: env.alice.String(), Tier: "junior", Asset: "ETH", Amount: "1000",
	})
	require.Equal(t, http.StatusOK, code)

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		msg := read()
		got[msg.Type] = true
	}
	require.True(t, got["pool"])
	require.True(t, got["account"])
}
