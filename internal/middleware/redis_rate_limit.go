package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/chirp/internal/errors"
	"github.com/zfogg/chirp/internal/logger"
	"github.com/zfogg/chirp/internal/util"
	"go.uber.org/zap"
)

// WindowCounter counts hits per key in a fixed window. cache.RedisClient implements it.
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// RedisRateLimitMiddleware creates a fixed-window rate limiter shared by every instance.
// When counter is nil the in-memory token bucket limiter is used instead.
func RedisRateLimitMiddleware(counter WindowCounter, config RateLimitConfig) gin.HandlerFunc {
	if counter == nil {
		logger.Log.Info("Redis unavailable, using in-memory rate limiter", zap.String("limiter", config.Name))
		rl, _ := NewRateLimiter(config)
		return rl.Middleware()
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		key := fmt.Sprintf("rate_limit:%s:%s", config.Name, clientIP)
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := counter.IncrWindow(ctx, key, config.Window)
		if err != nil {
			// Fail closed: a broken limiter must not open the API to abuse
			logger.Log.Error("Rate limit check failed, rejecting request",
				logger.WithIP(clientIP),
				zap.Error(err),
			)
			util.RespondWithAPIError(c, errors.ServiceUnavailable("rate limiter"))
			return
		}

		if count > int64(config.Limit) {
			retryAfter := int(config.Window.Seconds())
			if ttl, err := counter.TTL(ctx, key); err == nil && ttl > 0 {
				retryAfter = int(ttl.Seconds()) + 1
			}
			logger.Log.Warn("Rate limit exceeded",
				logger.WithIP(clientIP),
				zap.String("limiter", config.Name),
				zap.Int64("count", count),
			)
			rejectRateLimited(c, config, retryAfter)
			return
		}

		c.Next()
	}
}
