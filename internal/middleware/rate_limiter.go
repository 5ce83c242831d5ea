package middleware

import (
	"net/http"
	"sync"
	"time"

	"cajapos/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// rateEntry tracks request counts per IP within a fixed window.
type rateEntry struct {
	count     int
	windowEnd time.Time
	mu        sync.Mutex
}

// rateLimiter holds one window per client IP.
type rateLimiter struct {
	limit     int
	window    time.Duration
	now       func() time.Time
	mu        sync.Mutex
	entries   map[string]*rateEntry
	nextPurge time.Time
}

const purgeInterval = 5 * time.Minute

// RateLimiter returns a per-IP limiter allowing limit requests per window.
// Expired entries are purged from the request path at most once per
// purgeInterval, so the limiter owns no goroutine.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return newRateLimiter(limit, window).handle
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{limit: limit, window: window, now: time.Now, entries: make(map[string]*rateEntry)}
}

func (rl *rateLimiter) handle(c *gin.Context) {
	ip := c.ClientIP()
	now := rl.now()

	rl.mu.Lock()
	if now.After(rl.nextPurge) {
		rl.purgeLocked(now)
		rl.nextPurge = now.Add(purgeInterval)
	}
	entry, exists := rl.entries[ip]
	if !exists {
		entry = &rateEntry{}
		rl.entries[ip] = entry
	}
	rl.mu.Unlock()

	entry.mu.Lock()
	if now.After(entry.windowEnd) {
		entry.count = 0
		entry.windowEnd = now.Add(rl.window)
	}
	entry.count++
	limited, windowEnd := entry.count > rl.limit, entry.windowEnd
	entry.mu.Unlock()

	if limited {
		c.Header("Retry-After", windowEnd.Format(time.RFC1123))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Demasiadas solicitudes. Intente nuevamente en un momento."))
		return
	}
	c.Next()
}

// purgeLocked drops expired windows. Caller holds rl.mu.
func (rl *rateLimiter) purgeLocked(now time.Time) {
	purged := 0
	for ip, entry := range rl.entries {
		entry.mu.Lock()
		if now.After(entry.windowEnd) {
			delete(rl.entries, ip)
			purged++
		}
		entry.mu.Unlock()
	}
	if purged > 0 {
		log.Debug().
			Int("entries_purged", purged).
			Int("entries_remaining", len(rl.entries)).
			Msg("rate limiter purged")
	}
}
