package middleware

import (
	"net/http"
	"time"

	"forkhub/internal/logging"
	"forkhub/internal/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterCacheSize bounds how many client IPs are tracked at once.
const limiterCacheSize = 4096

// RateLimiter throttles form posts per client IP. Idle limiters fall out of
// the cache after the window, which resets the client's budget.
type RateLimiter struct {
	limiters *utils.TTLCache[*rate.Limiter]
	rate     rate.Limit
	burst    int
}

// NewRateLimiter allows burst requests per window for each IP.
func NewRateLimiter(burst int, window time.Duration) (*RateLimiter, error) {
	cache, err := utils.NewTTLCache[*rate.Limiter](limiterCacheSize, window)
	if err != nil {
		return nil, err
	}
	return &RateLimiter{
		limiters: cache,
		rate:     rate.Every(window / time.Duration(burst)),
		burst:    burst,
	}, nil
}

func (rl *RateLimiter) Allow(ip string) bool {
	limiter := rl.limiters.GetOrCreate(ip, func() *rate.Limiter {
		return rate.NewLimiter(rl.rate, rl.burst)
	})
	return limiter.Allow()
}

// Limit rejects over-budget requests with a flash and a redirect to the
// same page.
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.Allow(c.ClientIP()) {
			c.Next()
			return
		}

		logging.Warn().Str("ip", c.ClientIP()).Str("path", c.Request.URL.Path).Msg("Rate limit exceeded")
		AddFlash(c, FlashError, "Too many attempts. Please try again later.")
		c.Redirect(http.StatusFound, c.Request.URL.Path)
		c.Abort()
	}
}
