package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pancake pool metrics collector

var (
	// Singleton collector
	collector     *Collector
	collectorOnce sync.Once
)

const namespace = "pancake"

// Phases reported by the pool phase gauge
var phases = []string{"deposit", "locked", "unlocking", "withdraw"}

// Collector holds all pool metrics
type Collector struct {
	// Pool state
	TierPrice   *prometheus.GaugeVec
	TierSupply  *prometheus.GaugeVec
	TierCapital *prometheus.GaugeVec
	EthReserve  prometheus.Gauge
	LastRate    *prometheus.GaugeVec
	PoolPhase   *prometheus.GaugeVec
	UpdateCount prometheus.Gauge

	// Operations
	DepositsTotal    *prometheus.CounterVec
	DepositVolume    *prometheus.CounterVec
	WithdrawalsTotal *prometheus.CounterVec
	WithdrawalPayout *prometheus.CounterVec
	UpdatesTotal     *prometheus.CounterVec
	OperationsTotal  *prometheus.CounterVec
	OperationLatency *prometheus.HistogramVec
	UpdaterRunsTotal *prometheus.CounterVec

	// WebSocket metrics
	WSConnectionsActive prometheus.Gauge
	WSMessagesTotal     *prometheus.CounterVec

	// API metrics
	APIRequestsTotal  *prometheus.CounterVec
	APIRequestLatency *prometheus.HistogramVec
}

// PoolSnapshot is the pool state in display units
type PoolSnapshot struct {
	Phase         string
	SeniorPrice   float64
	JuniorPrice   float64
	SeniorSupply  float64
	JuniorSupply  float64
	SeniorCapital float64
	JuniorCapital float64
	EthReserve    float64
	EthRate       float64
	DaiRate       float64
	UpdateCount   uint64
}

// GetCollector returns the singleton metrics collector
func GetCollector() *Collector {
	collectorOnce.Do(func() {
		collector = newCollector()
		collector.registerAll(prometheus.DefaultRegisterer)
	})
	return collector
}

// newCollector creates a new metrics collector
func newCollector() *Collector {
	c := &Collector{}

	// Pool state
	c.TierPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tier",
			Name:      "price",
			Help:      "Tier token price in reference units",
		},
		[]string{"tier"},
	)

	c.TierSupply = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tier",
			Name:      "supply",
			Help:      "Outstanding tier tokens",
		},
		[]string{"tier"},
	)

	c.TierCapital = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tier",
			Name:      "capital",
			Help:      "Tier capital in reference units",
		},
		[]string{"tier"},
	)

	c.EthReserve = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "eth_reserve",
			Help:      "ETH held against tier claims",
		},
	)

	c.LastRate = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "last_rate",
			Help:      "Last observed feed rate",
		},
		[]string{"asset"},
	)

	c.PoolPhase = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "phase",
			Help:      "1 for the current lifecycle phase",
		},
		[]string{"phase"},
	)

	c.UpdateCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "update_count",
			Help:      "Repricing updates applied since kickoff",
		},
	)

	// Operations
	c.DepositsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "deposits",
			Name:      "total",
			Help:      "Deposits processed",
		},
		[]string{"tier", "asset"},
	)

	c.DepositVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "deposits",
			Name:      "volume",
			Help:      "Deposited amount in whole asset units",
		},
		[]string{"asset"},
	)

	c.WithdrawalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "withdrawals",
			Name:      "total",
			Help:      "Withdrawals processed",
		},
		[]string{"tier"},
	)

	c.WithdrawalPayout = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "withdrawals",
			Name:      "payout_eth",
			Help:      "ETH paid out",
		},
		[]string{"tier"},
	)

	c.UpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "updates",
			Name:      "total",
			Help:      "Update calls by whether they repriced",
		},
		[]string{"repriced"},
	)

	c.OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ops",
			Name:      "total",
			Help:      "Pool entry point calls by outcome",
		},
		[]string{"op", "status"},
	)

	c.OperationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ops",
			Name:      "latency_ms",
			Help:      "Pool entry point latency in milliseconds, commit included",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
		},
		[]string{"op"},
	)

	c.UpdaterRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "updater",
			Name:      "runs_total",
			Help:      "Scheduled update runs by outcome",
		},
		[]string{"status"},
	)

	// WebSocket metrics
	c.WSConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "connections_active",
			Help:      "Number of active WebSocket connections",
		},
	)

	c.WSMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "messages_total",
			Help:      "Total WebSocket messages sent",
		},
		[]string{"channel"},
	)

	// API metrics
	c.APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total API requests",
		},
		[]string{"method", "path", "status"},
	)

	c.APIRequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_latency_ms",
			Help:      "API request latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"method", "path"},
	)

	return c
}

// registerAll registers all metrics with reg
func (c *Collector) registerAll(reg prometheus.Registerer) {
	reg.MustRegister(
		c.TierPrice,
		c.TierSupply,
		c.TierCapital,
		c.EthReserve,
		c.LastRate,
		c.PoolPhase,
		c.UpdateCount,
		c.DepositsTotal,
		c.DepositVolume,
		c.WithdrawalsTotal,
		c.WithdrawalPayout,
		c.UpdatesTotal,
		c.OperationsTotal,
		c.OperationLatency,
		c.UpdaterRunsTotal,
		c.WSConnectionsActive,
		c.WSMessagesTotal,
		c.APIRequestsTotal,
		c.APIRequestLatency,
	)
}

// ============ Recording Helpers ============

// RecordPool sets every pool state gauge from a snapshot
func (c *Collector) RecordPool(s PoolSnapshot) {
	c.TierPrice.WithLabelValues("senior").Set(s.SeniorPrice)
	c.TierPrice.WithLabelValues("junior").Set(s.JuniorPrice)
	c.TierSupply.WithLabelValues("senior").Set(s.SeniorSupply)
	c.TierSupply.WithLabelValues("junior").Set(s.JuniorSupply)
	c.TierCapital.WithLabelValues("senior").Set(s.SeniorCapital)
	c.TierCapital.WithLabelValues("junior").Set(s.JuniorCapital)
	c.EthReserve.Set(s.EthReserve)
	c.LastRate.WithLabelValues("ETH").Set(s.EthRate)
	c.LastRate.WithLabelValues("DAI").Set(s.DaiRate)
	c.UpdateCount.Set(float64(s.UpdateCount))

	for _, phase := range phases {
		value := 0.0
		if phase == s.Phase {
			value = 1
		}
		c.PoolPhase.WithLabelValues(phase).Set(value)
	}
}

// RecordDeposit records a processed deposit
func (c *Collector) RecordDeposit(tier, asset string, amount float64) {
	c.DepositsTotal.WithLabelValues(tier, asset).Inc()
	c.DepositVolume.WithLabelValues(asset).Add(amount)
}

// RecordWithdrawal records a processed withdrawal
func (c *Collector) RecordWithdrawal(tier string, payoutEth float64) {
	c.WithdrawalsTotal.WithLabelValues(tier).Inc()
	c.WithdrawalPayout.WithLabelValues(tier).Add(payoutEth)
}

// RecordUpdate records an update call
func (c *Collector) RecordUpdate(repriced bool) {
	label := "false"
	if repriced {
		label = "true"
	}
	c.UpdatesTotal.WithLabelValues(label).Inc()
}

// RecordOperation records the outcome and latency of a pool entry point
func (c *Collector) RecordOperation(op string, err error, latencyMs float64) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.OperationsTotal.WithLabelValues(op, status).Inc()
	c.OperationLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordUpdaterRun records a scheduled update run
func (c *Collector) RecordUpdaterRun(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.UpdaterRunsTotal.WithLabelValues(status).Inc()
}

// RecordAPIRequest records an API request
func (c *Collector) RecordAPIRequest(method, path, status string, latencyMs float64) {
	c.APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	c.APIRequestLatency.WithLabelValues(method, path).Observe(latencyMs)
}

// RecordWSConnection records WebSocket connection changes
func (c *Collector) RecordWSConnection(delta int) {
	c.WSConnectionsActive.Add(float64(delta))
}

// RecordWSMessage records a WebSocket message
func (c *Collector) RecordWSMessage(channel string) {
	c.WSMessagesTotal.WithLabelValues(channel).Inc()
}

// ============ HTTP Handler ============

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for measuring latency
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed time in milliseconds
func (t *Timer) ElapsedMs() float64 {
	return float64(time.Since(t.start).Microseconds()) / 1000.0
}
