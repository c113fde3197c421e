package lock

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotConfigured is returned when the locker has no Redis client.
var ErrNotConfigured = errors.New("lock: redis client not configured")

var releaseScript = redis.NewScript(`if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`)

// Locker serialises writers of a Redis key across registers sharing one store.
type Locker struct {
	client       *redis.Client
	ttl          time.Duration
	retryBackoff time.Duration
}

// New returns a locker holding locks for ttl and polling every retry while a
// key is taken. Non-positive values fall back to 30s and 50ms.
func New(client *redis.Client, ttl, retry time.Duration) Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	return Locker{client: client, ttl: ttl, retryBackoff: retry}
}

// WithLock runs fn while holding the lock named key. The lock is released
// even if fn fails. Waiting stops with ctx.Err() when ctx is done.
func (l Locker) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	if l.client == nil {
		return ErrNotConfigured
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			defer l.release(context.WithoutCancel(ctx), key, token)
			return fn(ctx)
		}
		timer := time.NewTimer(l.retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l Locker) release(ctx context.Context, key, token string) {
	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unknown command") {
			_ = l.client.Del(ctx, key).Err()
		}
	}
}
