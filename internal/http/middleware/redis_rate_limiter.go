package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRateLimitBackend = errors.New("rate limit backend unavailable")

// Increment and first-hit expiry run in one script so concurrent callers never
// observe a counter without a TTL.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

type redisFixedWindowLimiter struct {
	client redis.Scripter
	prefix string
}

func NewRedisFixedWindowLimiter(client redis.Scripter, prefix string) Limiter {
	if prefix == "" {
		prefix = "rl"
	}
	return &redisFixedWindowLimiter{client: client, prefix: prefix}
}

func (l *redisFixedWindowLimiter) Allow(ctx context.Context, key string, policy RateLimitPolicy) (Decision, error) {
	policy = normalizePolicy(policy)
	res, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + ":" + key}, policy.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrRateLimitBackend, err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("%w: unexpected script reply %v", ErrRateLimitBackend, res)
	}
	return decide(int(res[0]), policy.Limit, time.Duration(res[1])*time.Millisecond, time.Now()), nil
}
