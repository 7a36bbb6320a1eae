// Package ratelimit applies a fixed one-minute window per client IP.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/internal/cache"
	applog "fintrack/internal/log"
)

const window = time.Minute

// Config holds rate limiter configuration.
type Config struct {
	RequestsPerMinute int
	// MaxClients bounds the tracked IPs; the least recently seen is
	// forgotten first.
	MaxClients int
	// IdleTTL is how long an IP stays tracked after its last request.
	IdleTTL time.Duration
	Logger  *applog.Logger
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		MaxClients:        10000,
		IdleTTL:           10 * time.Minute,
	}
}

type counter struct {
	start time.Time
	count int
}

// Limiter counts requests per client in fixed windows. Idle clients age out
// of an LRU cache; register the limiter with a cache.Manager to sweep them.
type Limiter struct {
	limit   int
	now     func() time.Time
	logger  *applog.Logger
	mu      sync.Mutex
	clients *cache.LRUCache[*counter]
	hits    atomic.Int64
}

var _ cache.Cleaner = (*Limiter)(nil)

// NewLimiter creates a limiter. Zero fields in cfg take their defaults.
func NewLimiter(cfg Config) *Limiter {
	return newLimiter(cfg, time.Now)
}

func newLimiter(cfg Config, now func() time.Time) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = def.MaxClients
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = def.IdleTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = applog.Discard()
	}

	return &Limiter{
		limit:   cfg.RequestsPerMinute,
		now:     now,
		logger:  logger.WithComponent(applog.ComponentRateLimit),
		clients: cache.NewLRUCache[*counter](cfg.MaxClients, cfg.IdleTTL, cache.WithClock[*counter](now)),
	}
}

// Allow records a request from ip and reports whether it is within the limit.
func (rl *Limiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, ok := rl.clients.Get(ip)
	if !ok || now.Sub(c.start) >= window {
		rl.clients.Set(ip, &counter{start: now, count: 1})
		return true
	}

	c.count++
	if c.count > rl.limit {
		rl.hits.Add(1)
		return false
	}
	return true
}

// retryAfter is the number of whole seconds until ip's window resets.
func (rl *Limiter) retryAfter(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients.Get(ip)
	if !ok {
		return 0
	}
	left := window - rl.now().Sub(c.start)
	return max(int((left+time.Second-1)/time.Second), 1)
}

// CleanExpired forgets idle clients.
func (rl *Limiter) CleanExpired() int {
	return rl.clients.CleanExpired()
}

// ActiveClients returns the number of currently tracked clients.
func (rl *Limiter) ActiveClients() int {
	return rl.clients.Size()
}

// Metrics for monitoring rate limit performance.
type Metrics struct {
	TotalHits   int64
	ClientCount int64
}

func (rl *Limiter) GetMetrics() Metrics {
	return Metrics{
		TotalHits:   rl.hits.Load(),
		ClientCount: int64(rl.ActiveClients()),
	}
}

// Middleware rejects requests over the limit with Retry-After set. onLimit
// writes the rejection body; nil falls back to a plain 429.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := extractIP(r)
			if rl.Allow(ip) {
				next.ServeHTTP(w, r)
				return
			}

			rl.logger.WarnContext(r.Context(), "Rate limit exceeded",
				applog.FieldClientIP, ip,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter(ip)))
			if onLimit == nil {
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
			onLimit(w, r)
		})
	}
}
