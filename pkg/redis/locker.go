package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var errLockBusy = errors.New("lock is held")

// Deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker serializes a user's events across bot replicas.
type Locker struct {
	client *Client
	ttl    time.Duration
	retry  time.Duration
	logger *zap.Logger
}

func NewLocker(client *Client, ttl time.Duration, logger *zap.Logger) *Locker {
	return &Locker{
		client: client,
		ttl:    ttl,
		retry:  50 * time.Millisecond,
		logger: logger,
	}
}

func lockKey(user int64) string {
	return fmt.Sprintf("lock:user:%d", user)
}

// Lock waits until the user's key is acquired or ctx is done. The key expires
// after the configured TTL even if the holder dies.
func (l *Locker) Lock(ctx context.Context, user int64) (func(), error) {
	const operation = "redis.Lock"

	key := lockKey(user)
	token := uuid.NewString()

	err := backoff.Retry(func() error {
		ok, err := l.client.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errLockBusy
		}
		return nil
	}, backoff.WithContext(backoff.NewConstantBackOff(l.retry), ctx))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", operation, ctxErr)
		}
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	return func() {
		// The caller's context may already be cancelled on shutdown.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := releaseScript.Run(releaseCtx, l.client.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("Failed to release user lock",
				zap.Int64("user_id", user),
				zap.Error(err))
		}
	}, nil
}
