package services

import (
	"context"
	"errors"
	"time"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/providers"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/observability"
)

// ErrJobLocked is returned when another maintenance job holds the lock
var ErrJobLocked = errors.New("another suggestion maintenance job is running")

// RunExclusive runs fn while holding the maintenance job lock so batch
// training and cleanup never overlap. A nil lock runs fn directly.
func RunExclusive(ctx context.Context, lock providers.JobLock, key string, ttl time.Duration, fn func(context.Context) error) error {
	if lock == nil {
		return fn(ctx)
	}

	token, ok, err := lock.TryLock(ctx, key, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return ErrJobLocked
	}

	defer func() {
		// release even when ctx was cancelled mid-run
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lock.Unlock(unlockCtx, key, token); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("failed to release job lock")
		}
	}()

	return fn(ctx)
}
