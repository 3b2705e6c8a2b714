package httpapi

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/ledgermint/lendingcore/internal/config"
)

// RateLimiter applies a per-client token bucket to the mutating lending
// routes. Grounded on gateway/middleware/ratelimit.go's per-visitor
// x/time/rate bucket, trimmed to a single bucket configuration shared by
// every mutating route rather than a per-route table, since this surface
// has one risk-bearing operation class rather than many partner tiers.
type RateLimiter struct {
	cfg      config.RateLimitConfig
	mu       sync.Mutex
	visitors map[string]*rate.Limiter
}

// NewRateLimiter builds a RateLimiter from daemon configuration.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{cfg: cfg, visitors: make(map[string]*rate.Limiter)}
}

// Middleware rejects requests once the caller's bucket is exhausted.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := rl.limiterFor(clientID(r))
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) limiterFor(id string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	limiter, ok := rl.visitors[id]
	if ok {
		return limiter
	}
	limiter = rate.NewLimiter(rate.Limit(rl.cfg.RatePerSecond), rl.cfg.Burst)
	rl.visitors[id] = limiter
	return limiter
}

func clientID(r *http.Request) string {
	if caller := callerFromContext(r.Context()); caller != "" {
		return "caller:" + caller
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); ip != "" {
		if comma := strings.IndexByte(ip, ','); comma > 0 {
			ip = strings.TrimSpace(ip[:comma])
		}
		if parsed := net.ParseIP(ip); parsed != nil {
			return parsed.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
