package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// loginWindowScript counts an attempt and stamps the window's expiry in one
// round trip. The key lives one second past its window so counters are never
// dropped while a window is still being checked.
var loginWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIREAT", KEYS[1], ARGV[1])
end
return count
`)

// RedisLimiter is the shared fixed-window backend. Counters are keyed by
// prefix, caller key, and window start second, so every server instance
// pointed at the same Redis database shares the attempt budget.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisLimiter constructs a RedisLimiter. An empty prefix is allowed;
// counter keys then start with the caller key.
func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: strings.TrimSpace(prefix)}
}

// Allow counts one attempt in the one-second window containing now.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, now time.Time) (Result, error) {
	if l == nil || l.client == nil || key == "" || limit <= 0 {
		return Result{Allowed: true}, nil
	}
	windowStart := now.Unix()
	reset := time.Unix(windowStart+1, 0).UTC()
	expireAt := reset.Add(time.Second).UnixMilli()

	counter := fmt.Sprintf("%s:%d", key, windowStart)
	if l.prefix != "" {
		counter = l.prefix + ":" + counter
	}
	count, errEval := loginWindowScript.Run(ctx, l.client, []string{counter}, expireAt).Int64()
	if errEval != nil {
		return Result{}, fmt.Errorf("rate limit redis: %w", errEval)
	}
	if count > int64(limit) {
		return Result{Reset: reset}, nil
	}
	return Result{Allowed: true, Remaining: limit - int(count), Reset: reset}, nil
}
