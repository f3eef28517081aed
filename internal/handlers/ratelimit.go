package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const visitorTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP with a token bucket
type RateLimiter struct {
	mu       sync.Mutex
	perMin   float64
	burst    int
	visitors map[string]*visitor
	now      func() time.Time
}

// NewRateLimiter allows perMinute requests per client with the given burst
func NewRateLimiter(perMinute float64, burst int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		perMin:   perMinute,
		burst:    burst,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// Allow reports whether the client may make another request now
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[client]
	if !ok {
		rl.evict(now)
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(rl.perMin/60.0), rl.burst)}
		rl.visitors[client] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// evict drops clients idle longer than visitorTTL. Called with mu held.
func (rl *RateLimiter) evict(now time.Time) {
	for client, v := range rl.visitors {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(rl.visitors, client)
		}
	}
}

// Middleware answers 429 once a client exhausts its bucket
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "Too many requests",
			})
			return
		}
		c.Next()
	}
}
