package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/returns-desk/internal/config"
)

// tokenBucket refills in whole intervals and returns
// {allowed, remaining, retry_after_ms}.
var tokenBucket = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_tokens = tonumber(ARGV[3])
	local interval_ms = tonumber(ARGV[4])
	local ttl_seconds = tonumber(ARGV[5])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])
	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	if interval_ms > 0 and refill_tokens > 0 then
		local intervals = math.floor(math.max(0, now_ms - last_refill) / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + intervals * refill_tokens)
			last_refill = last_refill + intervals * interval_ms
		end
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
	redis.call('EXPIRE', key, ttl_seconds)
	return { allowed, tokens, retry_after_ms }
`)

// NewTokenBucket limits /api per caller with a Redis token bucket.  It is a
// no-op without Redis, and a Redis error lets the request through: the
// limiter protects the database, it does not gate correctness.  The
// notification stream is long lived and never counted.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if strings.HasSuffix(c.Path(), "/stream") {
				return next(c)
			}
			key := buildRateKey(cfg, c)
			args := []interface{}{
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL / time.Second),
			}
			vals, err := tokenBucket.Run(c.Request().Context(), rdb, []string{key}, args...).Result()
			if err != nil {
				if cfg.Debug {
					c.Logger().Warnf("ratelimit: redis error key=%s: %v", key, err)
				}
				return next(c)
			}
			arr, ok := vals.([]interface{})
			if !ok || len(arr) != 3 {
				c.Logger().Warnf("ratelimit: unexpected script result key=%s: %#v", key, vals)
				return next(c)
			}
			allowed := fmt.Sprint(arr[0]) == "1"
			remaining := asInt64(arr[1])
			retryMs := asInt64(arr[2])

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if !allowed {
				secs := int(math.Ceil(float64(retryMs) / 1000.0))
				if secs < 1 {
					secs = 1
				}
				h.Set("Retry-After", strconv.Itoa(secs))
				if cfg.Debug {
					c.Logger().Infof("ratelimit: block key=%s retry=%dms", key, retryMs)
				}
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded", "retry_after": secs})
			}
			return next(c)
		}
	}
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// buildRateKey composes the bucket key from cfg.KeyStrategy: any of ip,
// user, route joined by underscores.  Unknown strategies use all three.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	parts := []string{cfg.Prefix}
	add := map[string]func(){
		"ip":    func() { parts = append(parts, "ip", ip) },
		"user":  func() { parts = append(parts, "user", currentUserID(c)) },
		"route": func() { parts = append(parts, "route", c.Request().Method+" "+c.Path()) },
	}
	var picked []func()
	for _, s := range strings.Split(strings.ToLower(cfg.KeyStrategy), "_") {
		f, ok := add[s]
		if !ok {
			picked = nil
			break
		}
		picked = append(picked, f)
	}
	if len(picked) == 0 {
		picked = []func(){add["ip"], add["user"], add["route"]}
	}
	for _, f := range picked {
		f()
	}
	return strings.Join(parts, ":")
}

// currentUserID keys the bucket by principal when JWTAuth ran before the
// limiter, and by "anon" otherwise.
func currentUserID(c echo.Context) string {
	if id := userID(c); id != "guest" {
		return id
	}
	return "anon"
}
