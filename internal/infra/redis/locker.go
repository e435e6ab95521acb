package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/funnel-engine/internal/lock"
	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL = 10 * time.Second
	retryStep      = 10 * time.Millisecond
	retryMax       = 50 * time.Millisecond
)

// releaseScript deletes the lock key only when the caller still owns it, so
// an expired lock reacquired by another process is never released by mistake.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

var _ lock.CallLocker = (*RedisCallLocker)(nil)

// RedisCallLocker serializes per-call disposition mutations across processes
// with a Redis SET NX lease.
type RedisCallLocker struct {
	client *goredis.Client
	ttl    time.Duration
	sleep  func(ctx context.Context, d time.Duration) error
	script *goredis.Script
}

func NewRedisCallLocker(client *goredis.Client, ttl time.Duration) (*RedisCallLocker, error) {
	return newRedisCallLocker(client, ttl, sleepWithContext)
}

func newRedisCallLocker(
	client *goredis.Client,
	ttl time.Duration,
	sleepFn func(ctx context.Context, d time.Duration) error,
) (*RedisCallLocker, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if sleepFn == nil {
		sleepFn = sleepWithContext
	}

	return &RedisCallLocker{
		client: client,
		ttl:    ttl,
		sleep:  sleepFn,
		script: releaseScript,
	}, nil
}

func (l *RedisCallLocker) Acquire(ctx context.Context, callID string) (lock.ReleaseFunc, error) {
	if l == nil || l.client == nil {
		return nil, fmt.Errorf("call locker is not initialized")
	}

	callID = strings.TrimSpace(callID)
	if callID == "" {
		return nil, fmt.Errorf("call id is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	key := fmt.Sprintf("calllock:%s", callID)
	token := uuid.NewString()

	backoff := retryStep
	for {
		acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire call lock: %w", err)
		}
		if acquired {
			break
		}

		if err := l.sleep(ctx, backoff); err != nil {
			return nil, err
		}

		backoff += retryStep
		if backoff > retryMax {
			backoff = retryMax
		}
	}

	release := func(ctx context.Context) error {
		if ctx == nil {
			ctx = context.Background()
		}
		if err := l.script.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release call lock: %w", err)
		}
		return nil
	}

	return release, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
