package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"sniper-duel/internal/config"
	"sniper-duel/internal/telemetry"
)

// LimiterStats is reported on the debug /health endpoint.
type LimiterStats struct {
	Allowed  uint64 `json:"allowed"`
	Rejected uint64 `json:"rejected"`
	Clients  int    `json:"clients"` // IPs currently holding limiter state
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter throttles REST requests with one token bucket per client IP.
// Buckets idle for longer than LimiterIdleTTL are swept.
type IPRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	allowed  atomic.Uint64
	rejected atomic.Uint64

	stop     chan struct{}
	stopOnce sync.Once
}

// NewIPRateLimiter starts a limiter configured from the API fields of limits.
// Zero fields take the defaults.
func NewIPRateLimiter(limits config.ResourceLimits) *IPRateLimiter {
	def := config.DefaultLimits()
	if limits.APIRequestsPerSecond <= 0 {
		limits.APIRequestsPerSecond = def.APIRequestsPerSecond
	}
	if limits.APIBurst <= 0 {
		limits.APIBurst = def.APIBurst
	}
	if limits.LimiterIdleTTL <= 0 {
		limits.LimiterIdleTTL = def.LimiterIdleTTL
	}

	rl := &IPRateLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(limits.APIRequestsPerSecond),
		burst:   limits.APIBurst,
		idleTTL: limits.LimiterIdleTTL,
		stop:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// Stop ends the sweep goroutine. Safe to call more than once.
func (rl *IPRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Allow takes one token from ip's bucket.
func (rl *IPRateLimiter) Allow(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	b, ok := rl.buckets[ip]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[ip] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, 1)
	rl.mu.Unlock()

	if allowed {
		rl.allowed.Add(1)
	} else {
		rl.rejected.Add(1)
	}
	telemetry.RecordAdmission("http", allowed)
	return allowed
}

// retryAfter is the whole number of seconds until one token refills.
func (rl *IPRateLimiter) retryAfter() string {
	secs := 1
	if rl.limit > 0 {
		secs = int(math.Ceil(1 / float64(rl.limit)))
	}
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// Middleware rejects over-limit callers with 429 and a Retry-After hint.
func (rl *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(GetClientIP(r)) {
			telemetry.RecordConnectionRejected("rate_limit")
			w.Header().Set("Retry-After", rl.retryAfter())
			writeError(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *IPRateLimiter) sweepLoop() {
	every := rl.idleTTL / 2
	if every < time.Second {
		every = time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.sweep(now)
		}
	}
}

// sweep drops buckets last used before now-idleTTL and returns how many.
func (rl *IPRateLimiter) sweep(now time.Time) int {
	cutoff := now.Add(-rl.idleTTL)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	n := 0
	for ip, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, ip)
			n++
		}
	}
	return n
}

// Stats returns the decision counters and the number of tracked IPs.
func (rl *IPRateLimiter) Stats() LimiterStats {
	rl.mu.Lock()
	clients := len(rl.buckets)
	rl.mu.Unlock()
	return LimiterStats{
		Allowed:  rl.allowed.Load(),
		Rejected: rl.rejected.Load(),
		Clients:  clients,
	}
}

// sessionGate caps concurrent websocket sessions per client IP.
type sessionGate struct {
	mu       sync.Mutex
	open     map[string]int
	maxPerIP int

	allowed  uint64
	rejected uint64
}

func newSessionGate(maxPerIP int) *sessionGate {
	if maxPerIP <= 0 {
		maxPerIP = config.DefaultLimits().MaxWSConnectionsPerIP
	}
	return &sessionGate{open: make(map[string]int), maxPerIP: maxPerIP}
}

// Acquire reserves a session slot for ip. Every successful Acquire must be
// paired with a Release.
func (g *sessionGate) Acquire(ip string) bool {
	g.mu.Lock()
	ok := g.open[ip] < g.maxPerIP
	if ok {
		g.open[ip]++
		g.allowed++
	} else {
		g.rejected++
	}
	g.mu.Unlock()

	telemetry.RecordAdmission("ws", ok)
	return ok
}

// Release frees a slot. IPs with no open session are forgotten.
func (g *sessionGate) Release(ip string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch n := g.open[ip]; {
	case n > 1:
		g.open[ip] = n - 1
	case n == 1:
		delete(g.open, ip)
	}
}

func (g *sessionGate) Stats() LimiterStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return LimiterStats{Allowed: g.allowed, Rejected: g.rejected, Clients: len(g.open)}
}

// GetClientIP returns the caller address, preferring the first
// X-Forwarded-For hop, then X-Real-IP, then RemoteAddr.
// Forwarded headers are trusted as-is; run behind a proxy that sets them.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// IsAllowedOrigin accepts local development origins on any port plus the
// configured extras. An extra of the form "https://*.example.com" matches
// any https subdomain of example.com.
func IsAllowedOrigin(origin string, extra []string) bool {
	switch {
	case origin == "":
		return false
	case origin == "http://localhost",
		strings.HasPrefix(origin, "http://localhost:"),
		strings.HasPrefix(origin, "http://127.0.0.1:"):
		return true
	}

	for _, allowed := range extra {
		if origin == allowed {
			return true
		}
		if domain, ok := strings.CutPrefix(allowed, "https://*."); ok &&
			strings.HasPrefix(origin, "https://") && strings.HasSuffix(origin, "."+domain) {
			return true
		}
	}
	return false
}
