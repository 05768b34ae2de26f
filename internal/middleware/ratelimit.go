package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Inbound requests are capped per caller IP at 100 per 15-minute window.
const (
	rateWindow   = 15 * time.Minute
	rateRequests = 100
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*ipLimiter
	limit   rate.Limit
	burst   int
}

// NewRateLimiter builds a limiter allowing 'requests' per 'window' per IP.
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*ipLimiter),
		limit:   rate.Every(window / time.Duration(requests)),
		burst:   requests,
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	client, ok := rl.clients[ip]
	if !ok {
		// Prune idle entries before growing the map further.
		if len(rl.clients) >= 1024 {
			cutoff := time.Now().Add(-rateWindow)
			for k, v := range rl.clients {
				if v.lastSeen.Before(cutoff) {
					delete(rl.clients, k)
				}
			}
		}
		client = &ipLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[ip] = client
	}
	client.lastSeen = time.Now()

	return client.limiter.Allow()
}

// Middleware returns the gin handler enforcing the per-IP cap.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests, please try again later"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimitMiddleware enforces the default 100 requests / 15 minutes per IP.
func RateLimitMiddleware() gin.HandlerFunc {
	return NewRateLimiter(rateRequests, rateWindow).Middleware()
}
