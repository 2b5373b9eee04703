package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/providers"
	redisclient "github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/clients/redis"
)

// compare-and-delete so a holder never releases a lock that expired and was re-taken
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisJobLock implements JobLock with SET NX and a TTL
type RedisJobLock struct {
	client *redisclient.Client
}

// NewRedisJobLock creates a new Redis-backed job lock
func NewRedisJobLock(client *redisclient.Client) providers.JobLock {
	return &RedisJobLock{client: client}
}

// TryLock takes the lock if nobody holds it
func (l *RedisJobLock) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.New().String()
	ok, err := l.client.Client().SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Unlock releases the lock if token still owns it
func (l *RedisJobLock) Unlock(ctx context.Context, key, token string) error {
	if err := unlockScript.Run(ctx, l.client.Client(), []string{key}, token).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	return nil
}
