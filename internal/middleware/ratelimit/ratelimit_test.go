package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fintrack/internal/cache"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestAllowWindow(t *testing.T) {
	c := &clock{t: time.Unix(1000, 0)}
	rl := newLimiter(Config{RequestsPerMinute: 2}, c.now)

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("2.2.2.2"), "clients are limited independently")

	c.t = c.t.Add(30 * time.Second)
	assert.False(t, rl.Allow("1.1.1.1"), "window is fixed, not sliding")
	assert.Equal(t, 30, rl.retryAfter("1.1.1.1"))

	c.t = c.t.Add(31 * time.Second)
	assert.True(t, rl.Allow("1.1.1.1"))

	m := rl.GetMetrics()
	assert.Equal(t, int64(2), m.TotalHits)
	assert.Equal(t, int64(2), m.ClientCount)
}

func TestIdleClientsAreSwept(t *testing.T) {
	c := &clock{t: time.Unix(1000, 0)}
	rl := newLimiter(Config{IdleTTL: 10 * time.Minute}, c.now)

	rl.Allow("1.1.1.1")
	c.t = c.t.Add(9 * time.Minute)
	rl.Allow("2.2.2.2")
	c.t = c.t.Add(2 * time.Minute)

	m := cache.NewManager(nil)
	m.Register(rl)
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, rl.ActiveClients())
}

func TestMaxClientsForgetsLeastRecent(t *testing.T) {
	c := &clock{t: time.Unix(1000, 0)}
	rl := newLimiter(Config{RequestsPerMinute: 1, MaxClients: 2}, c.now)

	rl.Allow("1.1.1.1")
	rl.Allow("2.2.2.2")
	rl.Allow("3.3.3.3")

	assert.Equal(t, 2, rl.ActiveClients())
	assert.True(t, rl.Allow("1.1.1.1"), "evicted client starts a new window")
}

func TestMiddleware(t *testing.T) {
	c := &clock{t: time.Unix(1000, 0)}
	rl := newLimiter(Config{RequestsPerMinute: 1}, c.now)
	h := rl.Middleware(func(*http.Request) string { return "1.1.1.1" }, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/expenses", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	c.t = c.t.Add(15 * time.Second)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/expenses", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "45", rec.Header().Get("Retry-After"))
}
