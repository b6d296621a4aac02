package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"github.com/lautarok/yourstack/internal/response"
)

// RateLimiter implements a per-IP token bucket. Idle visitors expire from the
// bucket store on their own.
type RateLimiter struct {
	mu       sync.Mutex
	visitors *cache.Cache
	rate     int           // Tokens per interval
	interval time.Duration // Refill interval
}

type visitor struct {
	tokens   int
	lastFill time.Time
}

// NewRateLimiter creates a RateLimiter (e.g., 30 session starts per minute).
func NewRateLimiter(rate int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors: cache.New(3*interval, time.Minute),
		rate:     rate,
		interval: interval,
	}
}

// Allow takes one token for key and reports whether the request may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	var v *visitor
	if cached, ok := rl.visitors.Get(key); ok {
		v = cached.(*visitor)
	} else {
		v = &visitor{tokens: rl.rate, lastFill: now}
	}

	// Refill whole intervals only.
	if periods := int(now.Sub(v.lastFill) / rl.interval); periods > 0 {
		v.tokens += periods * rl.rate
		if v.tokens > rl.rate {
			v.tokens = rl.rate
		}
		v.lastFill = now
	}
	rl.visitors.SetDefault(key, v)

	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

// Middleware returns a Gin middleware that rate-limits requests by IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.Header("Retry-After", strconv.Itoa(int(rl.interval.Seconds())))
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}
