package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Refills the bucket and takes one token atomically
// Returns {allowed, remaining, retry_after_ms}
var tokenBucketScript = redis.NewScript(`
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
	local elapsed = math.max(0, now_ms - last_refill)
	local intervals = math.floor(elapsed / interval_ms)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + (intervals * refill_tokens))
		last_refill = last_refill + (intervals * interval_ms)
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

type Config struct {
	// Bucket size, requests allowed in a burst
	Capacity int

	// RefillTokens are added every RefillInterval
	RefillTokens   int
	RefillInterval time.Duration

	// Redis key prefix
	Prefix string

	// Clock, time.Now if not set
	Now func() time.Time
}

type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int64
	RetryAfter time.Duration
}

// Redis backed token bucket shared by all server instances
type TokenBucket struct {
	rdb redis.Scripter
	cfg Config
	ttl time.Duration
}

func NewTokenBucket(rdb redis.Scripter, cfg Config) (*TokenBucket, error) {
	if rdb == nil {
		return nil, errors.New("redis client must not be nil")
	}
	if cfg.Capacity <= 0 || cfg.RefillTokens <= 0 || cfg.RefillInterval <= 0 {
		return nil, fmt.Errorf("invalid rate limit config: capacity=%d refill=%d interval=%s", cfg.Capacity, cfg.RefillTokens, cfg.RefillInterval)
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "ratelimit"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	// Keep the key until an empty bucket would be full again
	intervals := (cfg.Capacity + cfg.RefillTokens - 1) / cfg.RefillTokens
	ttl := time.Duration(intervals)*cfg.RefillInterval + time.Second

	return &TokenBucket{rdb: rdb, cfg: cfg, ttl: ttl}, nil
}

// Take one token from the bucket of the key
func (b *TokenBucket) Allow(ctx context.Context, key string) (Decision, error) {
	vals, err := tokenBucketScript.Run(
		ctx,
		b.rdb,
		[]string{b.cfg.Prefix + ":" + key},
		b.cfg.Now().UnixMilli(),
		b.cfg.Capacity,
		b.cfg.RefillTokens,
		b.cfg.RefillInterval.Milliseconds(),
		int64(b.ttl/time.Second),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit script failed. Err: %w", err)
	}
	if len(vals) != 3 {
		return Decision{}, fmt.Errorf("unexpected rate limit script result: %v", vals)
	}

	return Decision{
		Allowed:    vals[0] == 1,
		Limit:      b.cfg.Capacity,
		Remaining:  vals[1],
		RetryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}
