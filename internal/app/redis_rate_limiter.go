package app

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultLoginWindow = time.Minute

// LoginLimiter decides whether another login attempt for an email may proceed. A throttled
// attempt yields a *RateLimitError; any other error means the limiter itself failed.
type LoginLimiter interface {
	AllowLogin(ctx context.Context, email string) error
}

var loginAttemptScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisLoginLimiter counts login attempts per email in a fixed window shared by every
// service instance.
type RedisLoginLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLoginLimiter(client redis.UniversalClient, prefix string, limit int, window time.Duration) *RedisLoginLimiter {
	trimmedPrefix := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if trimmedPrefix == "" {
		trimmedPrefix = "ledger:rate_limit"
	}
	if window < time.Second {
		window = defaultLoginWindow
	}
	return &RedisLoginLimiter{
		client: client,
		prefix: trimmedPrefix,
		limit:  limit,
		window: window,
	}
}

func (l *RedisLoginLimiter) AllowLogin(ctx context.Context, email string) error {
	if l == nil || l.client == nil || l.limit <= 0 {
		return nil
	}
	key, ok := l.key(email)
	if !ok {
		return nil
	}

	attempts, ttl, err := l.countAttempt(ctx, key)
	if err != nil {
		return err
	}
	if attempts <= int64(l.limit) {
		return nil
	}
	return &RateLimitError{RetryAfterSeconds: retryAfterSeconds(ttl)}
}

// key is "<prefix>:login:<email>"; emails are matched the same way login matches them.
func (l *RedisLoginLimiter) key(email string) (string, bool) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return "", false
	}
	return fmt.Sprintf("%s:login:%s", l.prefix, normalized), true
}

func (l *RedisLoginLimiter) countAttempt(ctx context.Context, key string) (int64, time.Duration, error) {
	windowMs := l.window.Milliseconds()
	rawResult, err := loginAttemptScript.Run(ctx, l.client, []string{key}, windowMs).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("count login attempt: %w", err)
	}

	values, ok := rawResult.([]interface{})
	if !ok || len(values) != 2 {
		return 0, 0, fmt.Errorf("unexpected login limiter response shape: %T", rawResult)
	}
	attempts, ok := values[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected login limiter count type: %T", values[0])
	}
	ttlMs, ok := values[1].(int64)
	if !ok || ttlMs < 0 {
		ttlMs = windowMs
	}
	return attempts, time.Duration(ttlMs) * time.Millisecond, nil
}

// retryAfterSeconds rounds the remaining window up to whole seconds, never below one.
func retryAfterSeconds(ttl time.Duration) int {
	seconds := int(math.Ceil(ttl.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}
