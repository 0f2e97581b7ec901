package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
	// IdleTTL is how long an idle client's limiter is kept. Zero means 10m.
	IdleTTL time.Duration
}

// DefaultRateLimitConfig returns the server's default limits.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             200,
		IdleTTL:           10 * time.Minute,
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit creates a per-IP token bucket middleware. Limiters idle for
// longer than IdleTTL are swept on the next request after the TTL passes.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	var (
		mu        sync.Mutex
		clients   = make(map[string]*limiterEntry)
		lastSweep = time.Now()
	)

	return func(c *gin.Context) {
		now := time.Now()
		ip := c.ClientIP()

		mu.Lock()
		if now.Sub(lastSweep) > ttl {
			for k, e := range clients {
				if now.Sub(e.lastSeen) > ttl {
					delete(clients, k)
				}
			}
			lastSweep = now
		}
		e, ok := clients[ip]
		if !ok {
			e = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)}
			clients[ip] = e
		}
		e.lastSeen = now
		mu.Unlock()

		if !e.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"ok":    false,
				"error": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}
