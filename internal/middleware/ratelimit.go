package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/lk2023060901/perspectize-backend/internal/pkg/errors"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/logger"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/response"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/validator"
	"go.uber.org/zap"
)

// RateLimitConfig configures the sliding window limiter
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// MaxRequests allowed per window
	MaxRequests int `mapstructure:"max_requests"`
	// Window length
	Window time.Duration `mapstructure:"window"`
	// Strategy is "ip" (default) or "endpoint"
	Strategy string `mapstructure:"strategy"`
}

// DefaultRateLimitConfig allows 30 ingestion requests per minute per client
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:     true,
		MaxRequests: 30,
		Window:      time.Minute,
		Strategy:    "ip",
	}
}

// Evaler runs a Lua script. *redis.Client satisfies it.
type Evaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)
}

// slidingWindow trims entries older than the window, then admits the request
// when the remaining count is below the limit. Scores are milliseconds.
const slidingWindow = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local current = redis.call('ZCARD', key)

if current < limit then
	redis.call('ZADD', key, now, member)
	redis.call('PEXPIRE', key, window)
	return {1, limit - current - 1, now + window}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')[2]
return {0, 0, tonumber(oldest) + window}
`

// RateLimiter limits requests with a Redis sliding window. Limiter failures
// let the request through.
func RateLimiter(store Evaler, cfg RateLimitConfig, log *logger.Logger) gin.HandlerFunc {
	if !cfg.Enabled || store == nil {
		return func(c *gin.Context) { c.Next() }
	}
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 30
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}

	return func(c *gin.Context) {
		key := rateLimitKey(c, cfg.Strategy)

		allowed, remaining, resetMs, err := checkRateLimit(c.Request.Context(), store, key, cfg)
		if err != nil {
			log.WithContext(c.Request.Context()).Error("rate limiter error", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetMs/1000, 10))

		if !allowed {
			retry := time.Until(time.UnixMilli(resetMs)).Seconds()
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(int(retry)))
			response.ErrorWithCode(c, apperrors.ErrTooManyRequests,
				fmt.Sprintf("too many requests, please try again in %d seconds", int(retry)))
			c.Abort()
			return
		}

		c.Next()
	}
}

func rateLimitKey(c *gin.Context, strategy string) string {
	ip := validator.GetIPOrDefault(c.ClientIP(), validator.UnknownIP)
	if strategy == "endpoint" {
		return fmt.Sprintf("rate_limit:endpoint:%s:%s", c.FullPath(), ip)
	}
	return fmt.Sprintf("rate_limit:ip:%s", ip)
}

func checkRateLimit(ctx context.Context, store Evaler, key string, cfg RateLimitConfig) (bool, int, int64, error) {
	now := time.Now().UnixMilli()

	result, err := store.Eval(ctx, slidingWindow, []string{key},
		now, cfg.Window.Milliseconds(), cfg.MaxRequests, uuid.NewString())
	if err != nil {
		return false, 0, 0, err
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 3 {
		return false, 0, 0, fmt.Errorf("unexpected rate limit result %v", result)
	}

	allowed, _ := values[0].(int64)
	remaining, _ := values[1].(int64)
	reset, _ := values[2].(int64)
	return allowed == 1, int(remaining), reset, nil
}
