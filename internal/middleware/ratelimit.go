package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-reservation-api/internal/config"
)

// tokenBucket refills KEYS[1] by one token per ARGV[3] ms since the last
// refill, up to ARGV[2], then takes a token if one is left.  It returns
// {allowed, remaining, retry_after_ms}.
var tokenBucket = redis.NewScript(`
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local every = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(state[1]) or capacity
local ts = tonumber(state[2]) or now

local gained = math.floor(math.max(0, now - ts) / every)
if gained > 0 then
	tokens = math.min(capacity, tokens + gained)
	ts = ts + gained * every
end
if tokens >= capacity then
	ts = now
end

local allowed = 0
local retry = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry = every - (now - ts)
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', ts)
redis.call('PEXPIRE', KEYS[1], ttl)
return {allowed, tokens, retry}
`)

// NewTokenBucket limits requests per caller with a token bucket kept in
// Redis, so every instance shares it.  Rejected requests get 429 with
// Retry-After.  With limiting disabled, a nil client or a Redis error the
// request goes through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb redis.Cmdable, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if !cfg.Enabled || rdb == nil {
			return next
		}
		if logger == nil {
			logger = slog.Default()
		}
		limit := strconv.Itoa(cfg.Capacity)
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			args := []any{time.Now().UnixMilli(), cfg.Capacity, cfg.RefillEvery.Milliseconds(), cfg.BucketTTL().Milliseconds()}
			res, err := tokenBucket.Run(c.Request().Context(), rdb, []string{key}, args...).Int64Slice()
			if err != nil || len(res) != 3 {
				logger.Warn("rate limiter unavailable", "key", key, "error", err)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
			if res[0] == 1 {
				return next(c)
			}

			secs := int(math.Ceil(float64(res[2]) / 1000))
			if secs < 1 {
				secs = 1
			}
			h.Set("Retry-After", strconv.Itoa(secs))
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "too many requests, retry later"})
		}
	}
}

// rateKey names the caller's bucket.  The user strategy buckets by
// principal and falls back to the client IP for anonymous requests.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	if cfg.KeyStrategy == config.RateKeyUser {
		if p, ok := PrincipalFrom(c); ok {
			return cfg.Prefix + ":user:" + strconv.FormatUint(p.ID, 10)
		}
	}
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	return cfg.Prefix + ":ip:" + ip
}
