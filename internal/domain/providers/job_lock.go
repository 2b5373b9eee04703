package providers

import (
	"context"
	"time"
)

// JobLock serializes maintenance jobs (batch training, cleanup) across processes
type JobLock interface {
	// TryLock takes the lock for ttl. ok is false when another holder owns it.
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)

	// Unlock releases the lock if token still owns it
	Unlock(ctx context.Context, key, token string) error
}
