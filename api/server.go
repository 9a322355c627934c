// Package api serves the pool over HTTP and WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/pancake/api/middleware"
	"github.com/openalpha/pancake/api/websocket"
	"github.com/openalpha/pancake/app"
	poolmetrics "github.com/openalpha/pancake/metrics"
	"github.com/openalpha/pancake/offchain/recorder"
	"github.com/openalpha/pancake/x/pancake/types"
)

// Server represents the API server
type Server struct {
	app         *app.App
	history     recorder.Recorder
	hub         *websocket.Hub
	rateLimiter *middleware.RateLimiter
	httpServer  *http.Server
	config      *Config
	logger      log.Logger
}

// Config contains server configuration
type Config struct {
	ListenAddr       string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	DisableRateLimit bool
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:   ":8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
}

// NewServer creates an API server for a, reading history from history
func NewServer(a *app.App, history recorder.Recorder, config *Config, logger log.Logger) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if history == nil {
		history = recorder.NewNoopRecorder()
	}

	hubConfig := websocket.DefaultHubConfig()
	hubConfig.ValidAccount = func(addr string) bool {
		_, err := sdk.AccAddressFromBech32(addr)
		return err == nil
	}

	return &Server{
		app:         a,
		history:     history,
		hub:         websocket.NewHub(hubConfig),
		rateLimiter: middleware.NewRateLimiter(middleware.DefaultRateLimitConfig()),
		config:      config,
		logger:      logger.With("module", "api"),
	}
}

// Hub returns the WebSocket hub
func (s *Server) Hub() *websocket.Hub {
	return s.hub
}

// Handler builds the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", poolmetrics.Handler())
	mux.HandleFunc("GET /ws", s.hub.ServeWS)

	// Queries
	mux.HandleFunc("GET /v1/pool", s.handlePool)
	mux.HandleFunc("GET /v1/tiers/{tier}", s.handleTier)
	mux.HandleFunc("GET /v1/tiers/{tier}/holders", s.handleHolders)
	mux.HandleFunc("GET /v1/tiers/{tier}/estimate", s.handleEstimate)
	mux.HandleFunc("GET /v1/accounts/{address}", s.handleAccount)
	mux.HandleFunc("GET /v1/converter", s.handleConverter)
	mux.HandleFunc("GET /v1/history", s.handleHistory)

	// Transactions
	msgs := s.app.MsgServer
	mux.HandleFunc("POST /v1/tx/deposit", txHandler(s, types.TypeMsgDeposit, msgs.Deposit))
	mux.HandleFunc("POST /v1/tx/kickoff", txHandler(s, types.TypeMsgKickoff, msgs.Kickoff))
	mux.HandleFunc("POST /v1/tx/update", txHandler(s, types.TypeMsgUpdate, msgs.Update))
	mux.HandleFunc("POST /v1/tx/enable-withdrawals", txHandler(s, types.TypeMsgEnableWithdrawals, msgs.EnableWithdrawals))
	mux.HandleFunc("POST /v1/tx/withdraw", txHandler(s, types.TypeMsgWithdraw, msgs.Withdraw))
	mux.HandleFunc("POST /v1/tx/transfer", txHandler(s, types.TypeMsgTransfer, msgs.Transfer))
	mux.HandleFunc("POST /v1/tx/approve", txHandler(s, types.TypeMsgApprove, msgs.Approve))
	mux.HandleFunc("POST /v1/tx/transfer-from", txHandler(s, types.TypeMsgTransferFrom, msgs.TransferFrom))
	mux.HandleFunc("POST /v1/feed/rate", s.handleSetRate)

	var handler http.Handler = mux
	if !s.config.DisableRateLimit {
		handler = middleware.RateLimitMiddleware(s.rateLimiter)(handler)
	}
	return corsMiddleware(metricsMiddleware(mux, handler))
}

// Start serves until ctx is cancelled or the listener fails
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	go s.hub.Run(ctx)
	s.app.Subscribe(s.Publish)

	s.logger.Info("API server starting", "addr", s.config.ListenAddr, "rate_limit", !s.config.DisableRateLimit)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.rateLimiter.Stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"height":      s.app.Height(),
		"time":        s.app.Now().Unix(),
		"initialized": s.app.Initialized(),
	})
}

func (s *Server) handlePool(w http.ResponseWriter, r *http.Request) {
	snap, err := s.app.Snapshot()
	if err != nil {
		writeTxError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleTier(w http.ResponseWriter, r *http.Request) {
	tier, err := types.ParseTier(r.PathValue("tier"))
	if err != nil {
		writeTxError(w, err)
		return
	}

	var info *types.TierInfo
	err = s.app.Query(func(ctx sdk.Context) error {
		info, err = s.app.PancakeKeeper.TierInfo(ctx, tier)
		return err
	})
	if err != nil {
		writeTxError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleHolders(w http.ResponseWriter, r *http.Request) {
	tier, err := types.ParseTier(r.PathValue("tier"))
	if err != nil {
		writeTxError(w, err)
		return
	}
	limit := queryInt(r, "limit", 20)

	var holders []types.Holding
	err = s.app.Query(func(ctx sdk.Context) error {
		holders, err = s.app.PancakeKeeper.Holders(ctx, tier, limit)
		return err
	})
	if err != nil {
		writeTxError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tier":    tier,
		"holders": holders,
	})
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	tier, err := types.ParseTier(r.PathValue("tier"))
	if err != nil {
		writeTxError(w, err)
		return
	}
	amount, err := types.ParseAmount(r.URL.Query().Get("amount"))
	if err != nil {
		writeTxError(w, err)
		return
	}

	var payout string
	err = s.app.Query(func(ctx sdk.Context) error {
		p, err := s.app.PancakeKeeper.EstimateWithdrawal(ctx, tier, amount)
		if err != nil {
			return err
		}
		payout = p.String()
		return nil
	})
	if err != nil {
		writeTxError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"tier":   string(tier),
		"amount": amount.String(),
		"payout": payout,
	})
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := sdk.AccAddressFromBech32(r.PathValue("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid address: "+err.Error())
		return
	}

	var balance *types.AccountBalance
	err = s.app.Query(func(ctx sdk.Context) error {
		balance, err = s.app.PancakeKeeper.Balance(ctx, addr)
		return err
	})
	if err != nil {
		writeTxError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

func (s *Server) handleConverter(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	_ = s.app.Query(func(ctx sdk.Context) error {
		body = map[string]interface{}{
			"address":  s.app.Converter.Address().String(),
			"reserves": s.app.Converter.GetReserves(ctx),
		}
		return nil
	})
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	marks, err := s.history.History(queryInt(r, "limit", 100))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if marks == nil {
		marks = []recorder.Mark{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"marks": marks})
}

// SetRateRequest changes a fixed feed rate
type SetRateRequest struct {
	Asset string `json:"asset"`
	Rate  string `json:"rate"` // USD, decimal
}

func (s *Server) handleSetRate(w http.ResponseWriter, r *http.Request) {
	var req SetRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	asset, err := types.ParseAsset(req.Asset)
	if err != nil {
		writeTxError(w, err)
		return
	}
	rate, err := app.ParseRate(req.Rate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.app.SetRate(asset, rate); err != nil {
		writeTxError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"asset": string(asset), "rate": rate.String()})
}

// TxResponse is returned by every transaction route
type TxResponse struct {
	Height int64       `json:"height"`
	Events sdk.Events  `json:"events"`
	Result interface{} `json:"result"`
}

// txHandler decodes a message, runs it through the msg server inside one
// committed operation and writes the response
func txHandler[M any, R any](s *Server, op string, run func(context.Context, *M) (*R, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msg := new(M)
		if err := json.NewDecoder(r.Body).Decode(msg); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var resp *R
		res, err := s.app.Exec(op, func(ctx sdk.Context) error {
			var err error
			resp, err = run(ctx, msg)
			return err
		})
		if err != nil {
			writeTxError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, TxResponse{Height: res.Height, Events: res.Events, Result: resp})
	}
}

// Helper functions

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": message,
	})
}

// writeTxError maps a module error to an HTTP status and reports its
// codespace and code
func writeTxError(w http.ResponseWriter, err error) {
	codespace, code, _ := errorsmod.ABCIInfo(err, false)
	writeJSON(w, statusFor(err), map[string]interface{}{
		"error":     err.Error(),
		"codespace": codespace,
		"code":      code,
	})
}

func statusFor(err error) int {
	switch {
	case errorsmod.IsOf(err, types.ErrInvalidAmount, types.ErrInvalidTier, types.ErrInvalidAsset,
		types.ErrInvalidParams, types.ErrInvalidRate):
		return http.StatusBadRequest
	case errorsmod.IsOf(err, types.ErrUnauthorized):
		return http.StatusForbidden
	case errorsmod.IsOf(err, types.ErrPoolNotFound):
		return http.StatusNotFound
	case errorsmod.IsOf(err, types.ErrFeedUnavailable):
		return http.StatusServiceUnavailable
	case errorsmod.IsOf(err, types.ErrConverterFailed):
		return http.StatusBadGateway
	}
	if _, code, _ := errorsmod.ABCIInfo(err, false); code == 1 {
		return http.StatusInternalServerError
	}
	return http.StatusConflict
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// metricsMiddleware labels requests by the mux pattern they match so
// addresses and tiers do not explode the label space
func metricsMiddleware(mux *http.ServeMux, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		timer := poolmetrics.NewTimer()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		_, route := mux.Handler(r)
		if route == "" {
			route = "unmatched"
		}
		poolmetrics.GetCollector().RecordAPIRequest(r.Method, route, strconv.Itoa(rec.status), timer.ElapsedMs())
	})
}
