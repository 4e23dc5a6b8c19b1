package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether one more request of the given key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Unlimited lets every request through. Used when no Redis is configured.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (bool, error) {
	return true, nil
}

// tokenBucket refills capacity tokens evenly over the window and consumes one per call. The
// bucket hash expires once it would have refilled completely.
var tokenBucket = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refillRate = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local windowSeconds = tonumber(ARGV[4])

	local state = redis.call('HMGET', key, 'tokens', 'lastRefill')
	local tokens = tonumber(state[1])
	local lastRefill = tonumber(state[2])
	if tokens == nil then
		tokens = capacity
	end
	if lastRefill == nil then
		lastRefill = now
	end

	local elapsed = (now - lastRefill) / 1000000000
	if elapsed > 0 then
		tokens = math.min(capacity, tokens + elapsed * refillRate)
	end

	local allowed = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HSET', key, 'tokens', tostring(tokens), 'lastRefill', tostring(now))
	redis.call('EXPIRE', key, math.ceil(windowSeconds * 1.1))
	return allowed
`)

// RedisLimiter is a token bucket shared by every server instance pointing at the same Redis.
type RedisLimiter struct {
	client    redis.Scripter
	keyPrefix string
	limit     int
	window    time.Duration
	now       func() time.Time
}

// NewRedisLimiter allows limit requests per window for each key. keyPrefix defaults to
// "rate_limit:".
func NewRedisLimiter(client redis.Scripter, keyPrefix string, limit int, window time.Duration) *RedisLimiter {
	if keyPrefix == "" {
		keyPrefix = "rate_limit:"
	}
	return &RedisLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		limit:     limit,
		window:    window,
		now:       time.Now,
	}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if r.limit <= 0 || r.window <= 0 {
		return true, nil
	}

	capacity := float64(r.limit)
	result, err := tokenBucket.Run(ctx, r.client, []string{r.bucketKey(key)},
		capacity,
		capacity/r.window.Seconds(),
		r.now().UnixNano(),
		r.window.Seconds(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("redis rate limit check failed: %w", err)
	}
	return result == 1, nil
}

func (r *RedisLimiter) bucketKey(key string) string {
	return fmt.Sprintf("%s%s:%s", r.keyPrefix, key, r.window)
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}
