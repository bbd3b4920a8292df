// ratelimit.go implements per-client rate limiting using a token bucket.
//
// How token bucket works:
// - Each client IP gets a "bucket" holding up to N tokens (RATE_LIMIT)
// - Each request consumes 1 token
// - Tokens refill at a steady rate (N tokens per minute)
// - If the bucket is empty, the request is rejected with 429 Too Many Requests
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/quizcards-api/internal/models"
)

// bucketIdleTimeout is how long an unused bucket is kept before cleanup.
const bucketIdleTimeout = 10 * time.Minute

// RateLimiter tracks request rates per client.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	perMinute int
	now       func() time.Time
}

// bucket tracks the token state for a single client.
type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// allowResult contains the result of a rate limit check,
// including header information for the response.
type allowResult struct {
	allowed   bool
	remaining float64
	limit     float64
}

// NewRateLimiter creates a limiter allowing perMinute requests per client.
// A non-positive value disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		buckets:   make(map[string]*bucket),
		perMinute: perMinute,
		now:       time.Now,
	}
}

// RateLimit returns Gin middleware that enforces per-client limits.
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.perMinute <= 0 {
			c.Next()
			return
		}

		result := rl.allow(c.ClientIP())
		c.Header("X-RateLimit-Limit", formatFloat(result.limit))
		if !result.allowed {
			c.Header("X-RateLimit-Remaining", "0")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error:   "rate_limit_exceeded",
				Message: "Rate limit exceeded. Try again later.",
				Code:    http.StatusTooManyRequests,
			})
			return
		}
		c.Header("X-RateLimit-Remaining", formatFloat(result.remaining))

		c.Next()
	}
}

// allow checks if a request should be allowed, consuming a token if so.
func (rl *RateLimiter) allow(client string) allowResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limit := float64(rl.perMinute)
	now := rl.now()

	b, exists := rl.buckets[client]
	if !exists {
		b = &bucket{tokens: limit, lastRefill: now}
		rl.buckets[client] = b
	}

	// Refill tokens based on elapsed time
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * limit / 60.0
	if b.tokens > limit {
		b.tokens = limit
	}
	b.lastRefill = now

	if b.tokens < 1.0 {
		return allowResult{allowed: false, remaining: 0, limit: limit}
	}

	b.tokens--
	return allowResult{allowed: true, remaining: b.tokens, limit: limit}
}

// Cleanup periodically removes idle buckets until ctx is cancelled.
func (rl *RateLimiter) Cleanup(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.prune()
		}
	}
}

func (rl *RateLimiter) prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for id, b := range rl.buckets {
		if now.Sub(b.lastRefill) > bucketIdleTimeout {
			delete(rl.buckets, id)
			removed++
		}
	}
	return removed
}

// formatFloat converts a float to a string for headers.
func formatFloat(f float64) string {
	return fmt.Sprintf("%.0f", f)
}
