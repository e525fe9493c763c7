package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	BurstSize         int           `mapstructure:"burst"`
	IdleTTL           time.Duration `mapstructure:"idle_ttl"`
}

// DefaultRateLimiterConfig returns default rate limiting settings
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 10,
		BurstSize:         20,
		IdleTTL:           10 * time.Minute,
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter tracks one token bucket per client IP.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	config   RateLimiterConfig
	now      func() time.Time
}

// NewIPRateLimiter creates a new IP-based rate limiter
func NewIPRateLimiter(config RateLimiterConfig) *IPRateLimiter {
	if config.BurstSize < 1 {
		config.BurstSize = 1
	}
	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		config:   config,
		now:      time.Now,
	}
}

// GetLimiter returns the limiter for ip, creating it on first use.
func (rl *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		limit := rate.Limit(rl.config.RequestsPerSecond)
		if rl.config.RequestsPerSecond <= 0 {
			limit = rate.Inf
		}
		v = &visitor{limiter: rate.NewLimiter(limit, rl.config.BurstSize)}
		rl.visitors[ip] = v
	}
	v.lastSeen = rl.now()
	return v.limiter
}

// Sweep drops limiters idle for longer than IdleTTL and returns how many
// were removed.
func (rl *IPRateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.config.IdleTTL)
	removed := 0
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
			removed++
		}
	}
	return removed
}

// Size returns the number of tracked clients.
func (rl *IPRateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// Run sweeps idle limiters every interval until ctx is done.
func (rl *IPRateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep()
		}
	}
}

// RateLimit rejects requests from clients that exceed their bucket with 429.
// The client IP comes from gin's ClientIP, which honours trusted proxies only.
func RateLimit(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := limiter.GetLimiter(c.ClientIP())
		if !l.Allow() {
			if l.Limit() != rate.Inf && l.Limit() > 0 {
				retry := math.Ceil(1 / float64(l.Limit()))
				c.Header("Retry-After", strconv.Itoa(int(retry)))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
