// internal/middleware/rate_limit_middleware.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/config"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/utils"
)

type rateWindow struct {
	start time.Time
	count int
}

// rateLimiter counts requests per client IP over a fixed window.
type rateLimiter struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
	limit   int
	window  time.Duration
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		windows: make(map[string]*rateWindow),
		limit:   limit,
		window:  window,
	}
}

// allow reports whether the client is within its budget and returns the
// current count. Expired windows for other clients are pruned on the way.
func (rl *rateLimiter) allow(clientIP string, now time.Time) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.windows) > 1024 {
		for ip, w := range rl.windows {
			if now.Sub(w.start) > rl.window {
				delete(rl.windows, ip)
			}
		}
	}

	w, ok := rl.windows[clientIP]
	if !ok || now.Sub(w.start) > rl.window {
		rl.windows[clientIP] = &rateWindow{start: now, count: 1}
		return true, 1
	}

	w.count++
	return w.count <= rl.limit, w.count
}

// RateLimitMiddleware enforces the per-client request budget from the
// security configuration. Disabled limits yield a pass-through handler.
func RateLimitMiddleware(cfg *config.SecurityConfig, logger *zap.Logger) gin.HandlerFunc {
	if !cfg.RateLimitEnabled || cfg.RateLimitRequests <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	limiter := newRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)

	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		allowed, count := limiter.allow(clientIP, time.Now())
		if !allowed {
			logger.Warn("Rate limit exceeded",
				zap.String("client_ip", clientIP),
				zap.String("path", c.Request.URL.Path),
				zap.Int("request_count", count),
				zap.Duration("window", cfg.RateLimitWindow),
			)

			utils.ErrorResponse(c, http.StatusTooManyRequests, "Too many requests", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
