package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	apierrors "github.com/yukikurage/taskhub/internal/errors"
	"github.com/yukikurage/taskhub/internal/logger"
	"github.com/yukikurage/taskhub/internal/metrics"
)

// RateLimiter is a fixed-window limiter on Redis INCR/EXPIRE. Without a reachable Redis
// it lets every request through.
type RateLimiter struct {
	client *redis.Client
}

// NewRateLimiter connects to Redis at addr. An empty addr or a failed ping yields a
// limiter that allows everything.
func NewRateLimiter(addr, password string, db int) *RateLimiter {
	if addr == "" {
		return &RateLimiter{}
	}

	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("rate limiter disabled, redis unreachable", "addr", addr, "error", err)
		client.Close()
		return &RateLimiter{}
	}

	return &RateLimiter{client: client}
}

// Enabled reports whether requests are actually counted
func (l *RateLimiter) Enabled() bool {
	return l != nil && l.client != nil
}

// Close releases the Redis connection
func (l *RateLimiter) Close() error {
	if !l.Enabled() {
		return nil
	}
	return l.client.Close()
}

// Limit allows maxRequests per window per client IP on the route it guards.
// Keys look like rl:<window_seconds>:<route>:<ip>.
func (l *RateLimiter) Limit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Enabled() || maxRequests <= 0 {
			c.Next()
			return
		}

		key := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + c.FullPath() + ":" + c.ClientIP()
		ctx := c.Request.Context()

		val, err := l.client.Incr(ctx, key).Result()
		if err != nil {
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}

		if val == 1 {
			l.client.Expire(ctx, key, window)
		}

		if val > int64(maxRequests) {
			metrics.RLBlocked.WithLabelValues(c.FullPath()).Inc()
			apierrors.TooManyRequests(c, "")
			return
		}

		metrics.RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}
