// Package middleware holds HTTP middleware for the pool API.
package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter is a per-IP token bucket limiter with a stricter bucket
// for state-changing requests
type RateLimiter struct {
	config *RateLimitConfig

	mu       sync.Mutex
	requests map[string]*bucket
	txs      map[string]*bucket

	now    func() time.Time
	stopCh chan struct{}
	once   sync.Once
}

// RateLimitConfig configures the limiter
type RateLimitConfig struct {
	RequestsPerSecond float64
	RequestBurst      float64
	TxPerSecond       float64
	TxBurst           float64
	BlockDuration     time.Duration
	BucketTTL         time.Duration
}

// DefaultRateLimitConfig returns the default limits
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerSecond: 50,
		RequestBurst:      100,
		TxPerSecond:       2,
		TxBurst:           10,
		BlockDuration:     10 * time.Second,
		BucketTTL:         time.Hour,
	}
}

type bucket struct {
	tokens       float64
	max          float64
	refill       float64 // tokens per second
	lastUpdate   time.Time
	blockedUntil time.Time
}

// Decision is the outcome of one limiter check
type Decision struct {
	Allowed    bool `json:"allowed"`
	Remaining  int  `json:"remaining"`
	Limit      int  `json:"limit"`
	RetryAfter int  `json:"retry_after,omitempty"`
}

// NewRateLimiter creates a limiter and starts its cleanup loop
func NewRateLimiter(config *RateLimitConfig) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	rl := &RateLimiter{
		config:   config,
		requests: make(map[string]*bucket),
		txs:      make(map[string]*bucket),
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop stops the cleanup loop
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	threshold := rl.now().Add(-rl.config.BucketTTL)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for _, buckets := range []map[string]*bucket{rl.requests, rl.txs} {
		for key, b := range buckets {
			if b.lastUpdate.Before(threshold) {
				delete(buckets, key)
			}
		}
	}
}

// AllowRequest checks the general request bucket of an IP
func (rl *RateLimiter) AllowRequest(ip string) Decision {
	return rl.take(rl.requests, ip, rl.config.RequestBurst, rl.config.RequestsPerSecond)
}

// AllowTx checks the transaction bucket of an IP
func (rl *RateLimiter) AllowTx(ip string) Decision {
	return rl.take(rl.txs, ip, rl.config.TxBurst, rl.config.TxPerSecond)
}

func (rl *RateLimiter) take(buckets map[string]*bucket, key string, max, refill float64) Decision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := buckets[key]
	if !ok {
		b = &bucket{tokens: max, max: max, refill: refill, lastUpdate: now}
		buckets[key] = b
	}

	if now.Before(b.blockedUntil) {
		return Decision{Limit: int(b.max), RetryAfter: int(b.blockedUntil.Sub(now).Seconds()) + 1}
	}

	b.tokens += now.Sub(b.lastUpdate).Seconds() * b.refill
	if b.tokens > b.max {
		b.tokens = b.max
	}
	b.lastUpdate = now

	if b.tokens >= 1 {
		b.tokens--
		return Decision{Allowed: true, Remaining: int(b.tokens), Limit: int(b.max)}
	}

	b.blockedUntil = now.Add(rl.config.BlockDuration)
	return Decision{Limit: int(b.max), RetryAfter: int(rl.config.BlockDuration.Seconds()) + 1}
}

// RateLimitMiddleware limits every request by IP and POST requests by
// the stricter transaction bucket
func RateLimitMiddleware(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)

			d := rl.AllowRequest(ip)
			if d.Allowed && r.Method == http.MethodPost {
				d = rl.AllowTx(ip)
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfter))
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"error":       "rate_limit_exceeded",
					"retry_after": d.RetryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP extracts the caller IP, honoring proxy headers
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if i := strings.LastIndexByte(ip, ':'); i >= 0 {
		return ip[:i]
	}
	return ip
}
