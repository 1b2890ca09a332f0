package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/candorapp/session-server-go/internal/audit"
	"github.com/candorapp/session-server-go/internal/config"
)

// rateLimitScript is a Lua script for sliding window rate limiting
var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

local windowStart = now - window

redis.call('ZREMRANGEBYSCORE', key, '-inf', windowStart)

local count = redis.call('ZCARD', key)

if count >= limit then
    local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
    local resetAt = 0
    if #oldest >= 2 then
        resetAt = tonumber(oldest[2]) + window
    else
        resetAt = now + window
    end
    return {0, resetAt}
end

redis.call('ZADD', key, now, now .. '-' .. math.random())
redis.call('EXPIRE', key, window + 10)

local resetAt = now + window
return {1, resetAt}
`)

// GuestAccessLimiter throttles invitation resolution per client IP. Tokens
// are long and random, but a brute-force attempt should still hit a wall
// before the database does.
type GuestAccessLimiter struct {
	client *redis.Client
}

func NewGuestAccessLimiter(client *redis.Client) *GuestAccessLimiter {
	return &GuestAccessLimiter{client: client}
}

func (m *GuestAccessLimiter) check(r *http.Request) (allowed bool, resetAt time.Time) {
	ip := clientIP(r)
	key := fmt.Sprintf("ratelimit:guest_access:%s", ip)
	now := time.Now().Unix()
	window := config.GuestAccessLimitWindow

	result, err := rateLimitScript.Run(
		r.Context(),
		m.client,
		[]string{key},
		now,
		int64(window.Seconds()),
		config.GuestAccessLimitPerWindow,
	).Int64Slice()

	if err != nil {
		log.Warn().Err(err).Str("ip", ip).Msg("rate limit check failed, denying request for safety")
		return false, time.Now().Add(window)
	}

	if len(result) != 2 {
		log.Warn().Str("ip", ip).Msg("unexpected rate limit result, denying request for safety")
		return false, time.Now().Add(window)
	}

	return result[0] == 1, time.Unix(result[1], 0)
}

func (m *GuestAccessLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, resetAt := m.check(r)
		if !allowed {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventRateLimitExceed})
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(time.Until(resetAt).Seconds())+1))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
