package ratelimit

import (
	"context"
	"errors"
	"time"

	"tierguard/internal/domain"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces limiter counters so the service can share a
// redis instance with other tenants.
const keyPrefix = "tierguard:rl:"

type redisLimiter struct {
	client *redis.Client
	now    func() time.Time
}

// Fixed-window counter: the first increment in a window arms the
// expiry, later increments ride the existing TTL.
var allowScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

func NewRedisLimiter(addr, password string, db int, now func() time.Time) (domain.RateLimiter, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	if now == nil {
		now = time.Now
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &redisLimiter{client: client, now: now}, nil
}

func (r *redisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	windowMillis := window.Milliseconds()
	if windowMillis <= 0 {
		windowMillis = time.Second.Milliseconds()
	}

	raw, err := allowScript.Run(ctx, r.client, []string{keyPrefix + key}, windowMillis).Result()
	if err != nil {
		return domain.RateLimitDecision{}, err
	}
	count, ttlMillis, err := decodeAllowReply(raw)
	if err != nil {
		return domain.RateLimitDecision{}, err
	}

	resetAt := r.now()
	if ttlMillis > 0 {
		resetAt = resetAt.Add(time.Duration(ttlMillis) * time.Millisecond)
	}
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return domain.RateLimitDecision{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

func decodeAllowReply(raw any) (count, ttlMillis int64, err error) {
	values, ok := raw.([]any)
	if !ok || len(values) < 2 {
		return 0, 0, errors.New("unexpected redis rate limit reply")
	}
	count, ok = values[0].(int64)
	if !ok {
		return 0, 0, errors.New("invalid redis counter reply")
	}
	ttlMillis, _ = values[1].(int64)
	return count, ttlMillis, nil
}
