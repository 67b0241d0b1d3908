package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"project-schedule-api/pkg/errors"
	"project-schedule-api/pkg/logger"
)

// RateLimitConfig 写入限流配置
type RateLimitConfig struct {
	Enabled bool
	// Limit 窗口内允许的写入次数
	Limit  int
	Window time.Duration
	// Key 由请求推导限流键，默认按客户端 IP
	Key func(c *gin.Context) string
}

// RateLimiter 限流器接口
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit 仅对写请求限流；限流器故障时放行
func RateLimit(cfg RateLimitConfig, limiter RateLimiter) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}

	if cfg.Limit <= 0 {
		cfg.Limit = 60
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Key == nil {
		cfg.Key = func(c *gin.Context) string { return "ratelimit:" + c.ClientIP() }
	}

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		allowed, err := limiter.Allow(ctx, cfg.Key(c), cfg.Limit, cfg.Window)
		if err != nil {
			logger.Warn(ctx, "rate limiter unavailable, allowing request", "error", err.Error())
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errors.ErrRateLimited)
			return
		}

		c.Next()
	}
}
