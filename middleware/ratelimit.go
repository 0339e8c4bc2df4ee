package middleware

import (
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wdmmg/finance-api/utils"
)

// RateLimiter enforces per-identity request ceilings over a sliding window.
// Identity is the authenticated user id when available, the client IP
// otherwise. Buckets live in process memory with explicit expiry; the
// cleanup goroutine reaps identities that have gone quiet.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
	window  time.Duration
}

func NewRateLimiter() *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string][]time.Time),
		window:  time.Minute,
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			rl.cleanup()
		}
	}()

	return rl
}

// Limit returns a middleware enforcing perMinute requests for the given route
// class. Classes keep independent counters, so heavy reads never starve
// writes for the same identity.
func (rl *RateLimiter) Limit(class string, perMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := GetUserID(c)
		if identity == "" {
			identity = c.ClientIP()
		}

		key := class + ":" + identity
		allowed, retryAfter := rl.allow(key, perMinute, time.Now())
		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			c.Header("Retry-After", fmt.Sprintf("%d", seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"kind":        utils.KindRateLimit,
					"message":     "Rate limit exceeded",
					"retry_after": seconds,
				},
			})
			return
		}

		c.Next()
	}
}

// allow records a request for key and reports whether it fits in the window.
// On rejection it returns how long until the oldest request slides out.
func (rl *RateLimiter) allow(key string, limit int, now time.Time) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-rl.window)
	kept := rl.buckets[key][:0]
	for _, ts := range rl.buckets[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= limit {
		rl.buckets[key] = kept
		return false, kept[0].Sub(cutoff)
	}

	rl.buckets[key] = append(kept, now)
	return true, 0
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.window)
	for key, times := range rl.buckets {
		if len(times) == 0 || !times[len(times)-1].After(cutoff) {
			delete(rl.buckets, key)
		}
	}
}
