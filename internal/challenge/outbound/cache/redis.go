package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/trafficai/internal/challenge/entity"
	"go.opentelemetry.io/otel/trace"
)

// expiry grace on top of the TTL; expiry itself is decided against the clock.
const redisKeyGrace = time.Minute

var issueScript = redis.NewScript(`
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], 'h', ARGV[1], 'i', ARGV[2], 'e', ARGV[3], 'a', 0)
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return 1
`)

var verifyScript = redis.NewScript(`
local rec = redis.call('HMGET', KEYS[1], 'h', 'e', 'a')
if not rec[1] then
  return 'not_found'
end
if tonumber(ARGV[2]) >= tonumber(rec[2]) then
  redis.call('DEL', KEYS[1])
  return 'expired'
end
local max = tonumber(ARGV[3])
if tonumber(rec[3]) >= max then
  redis.call('DEL', KEYS[1])
  return 'locked'
end
if rec[1] == ARGV[1] then
  redis.call('DEL', KEYS[1])
  return 'ok'
end
if redis.call('HINCRBY', KEYS[1], 'a', 1) >= max then
  return 'locked'
end
return 'invalid'
`)

var revokeScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'h') == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// Redis is an OTP store backed by redis hashes. Every operation is a single
// Lua script, so issue, verify and revoke stay atomic across processes.
type Redis struct {
	client redis.Scripter
	dep    Dependency
	opt    Options
	prefix string
}

// NewRedis constructs a redis store. Keys are prefix + identifier.
func NewRedis(client redis.Scripter, dep Dependency, opt Options, prefix string) (*Redis, error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = "otp:"
	}

	return &Redis{client: client, dep: dep, opt: opt, prefix: prefix}, nil
}

func (r *Redis) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return r.dep.Instrument.Tracer("challenge.outbound.cache.redis").Start(ctx, name)
}

func (r *Redis) key(identifier string) string {
	return r.prefix + identifier
}

// Issue stores a fresh code for identifier, replacing any previous one.
func (r *Redis) Issue(ctx context.Context, identifier string) (string, error) {
	ctx, span := r.startSpan(ctx, "Issue")
	defer span.End()

	code, err := r.dep.Generator.Generate(r.opt.CodeLength)
	if err != nil {
		recordSpanError(span, err)
		return "", err
	}

	digest, err := r.dep.Hash.Hash(code)
	if err != nil {
		recordSpanError(span, err)
		return "", err
	}

	now := r.dep.Clock.Now()
	err = issueScript.Run(ctx, r.client, []string{r.key(identifier)},
		string(digest),
		now.UnixMilli(),
		now.Add(r.opt.TTL).UnixMilli(),
		(r.opt.TTL + redisKeyGrace).Milliseconds(),
	).Err()
	if err != nil {
		recordSpanError(span, err)
		return "", fmt.Errorf("cache: redis issue: %w", err)
	}

	return code, nil
}

// Verify checks candidate against the live record of identifier.
func (r *Redis) Verify(ctx context.Context, identifier, candidate string) (entity.VerifyResult, error) {
	ctx, span := r.startSpan(ctx, "Verify")
	defer span.End()

	digest, err := r.dep.Hash.Hash(candidate)
	if err != nil {
		recordSpanError(span, err)
		return entity.VerifyResultUnknown, err
	}

	out, err := verifyScript.Run(ctx, r.client, []string{r.key(identifier)},
		string(digest),
		r.dep.Clock.Now().UnixMilli(),
		strconv.Itoa(r.opt.MaxAttempts),
	).Text()
	if err != nil {
		recordSpanError(span, err)
		return entity.VerifyResultUnknown, fmt.Errorf("cache: redis verify: %w", err)
	}

	res := entity.VerifyResultFromString(out)
	if res == entity.VerifyResultUnknown {
		err := fmt.Errorf("cache: redis verify: unexpected result %q", out)
		recordSpanError(span, err)
		return res, err
	}

	return res, nil
}

// Revoke deletes the record of identifier only if it still holds code.
func (r *Redis) Revoke(ctx context.Context, identifier, code string) error {
	ctx, span := r.startSpan(ctx, "Revoke")
	defer span.End()

	digest, err := r.dep.Hash.Hash(code)
	if err != nil {
		recordSpanError(span, err)
		return err
	}

	if err := revokeScript.Run(ctx, r.client, []string{r.key(identifier)}, string(digest)).Err(); err != nil {
		recordSpanError(span, err)
		return fmt.Errorf("cache: redis revoke: %w", err)
	}

	return nil
}
