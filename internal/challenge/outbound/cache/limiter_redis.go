package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/trafficai/internal/challenge/entity"
)

// KEYS[1] window counter, KEYS[2] cooldown marker.
// ARGV[1] max per window, ARGV[2] window ms, ARGV[3] cooldown ms.
var allowScript = redis.NewScript(`
local cd = redis.call('PTTL', KEYS[2])
if cd > 0 then
  return {0, cd}
end
local max = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
if max > 0 and window > 0 then
  local n = tonumber(redis.call('GET', KEYS[1]) or '0')
  if n >= max then
    return {0, redis.call('PTTL', KEYS[1])}
  end
  if redis.call('INCR', KEYS[1]) == 1 then
    redis.call('PEXPIRE', KEYS[1], window)
  end
end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[2], '1', 'PX', ARGV[3])
end
return {1, 0}
`)

// KEYS[1] window counter, KEYS[2] cooldown marker.
var refundScript = redis.NewScript(`
redis.call('DEL', KEYS[2])
local n = tonumber(redis.call('GET', KEYS[1]) or '0')
if n > 0 then
  redis.call('DECR', KEYS[1])
end
return 1
`)

// RedisLimiter is a fixed-window issuance limiter shared through redis.
// Windows follow the redis server clock.
type RedisLimiter struct {
	client redis.Scripter
	opt    ThrottleOptions
	prefix string
}

// NewRedisLimiter constructs a redis limiter. Keys are prefix + kind + identifier.
func NewRedisLimiter(client redis.Scripter, opt ThrottleOptions, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "otp:throttle:"
	}
	return &RedisLimiter{client: client, opt: opt, prefix: prefix}
}

// Allow records an issuance attempt for identifier if the budget permits it.
func (l *RedisLimiter) Allow(ctx context.Context, identifier string) (entity.Throttle, error) {
	out, err := allowScript.Run(ctx, l.client, l.keys(identifier),
		l.opt.MaxPerWindow,
		l.opt.Window.Milliseconds(),
		l.opt.Cooldown.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return entity.Throttle{}, fmt.Errorf("cache: redis throttle: %w", err)
	}
	if len(out) != 2 {
		return entity.Throttle{}, fmt.Errorf("cache: redis throttle: unexpected reply %v", out)
	}

	if out[0] == 1 {
		return entity.Throttle{Allowed: true}, nil
	}

	return entity.Throttle{RetryAfter: time.Duration(out[1]) * time.Millisecond}, nil
}

// Refund gives back the most recent issuance of identifier and lifts its
// cooldown, for codes that were never delivered.
func (l *RedisLimiter) Refund(ctx context.Context, identifier string) error {
	if err := refundScript.Run(ctx, l.client, l.keys(identifier)).Err(); err != nil {
		return fmt.Errorf("cache: redis throttle refund: %w", err)
	}
	return nil
}

func (l *RedisLimiter) keys(identifier string) []string {
	return []string{l.prefix + "count:" + identifier, l.prefix + "cooldown:" + identifier}
}
