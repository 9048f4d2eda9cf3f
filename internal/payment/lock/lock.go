package lock

import (
	"context"
	"errors"
	"time"
)

// Locker is a SETNX-style lock: TryLock returns a release token on success,
// Release only deletes the lock when the token still matches.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

// ErrLockBusy means the lock could not be acquired within the wait budget.
var ErrLockBusy = errors.New("lock busy")

const acquireRetryInterval = 50 * time.Millisecond

// Acquire retries TryLock until it succeeds, the wait budget runs out, or
// the context is done.
func Acquire(ctx context.Context, locker Locker, key string, ttl, wait time.Duration) (string, error) {
	deadline := time.Now().Add(wait)
	for {
		token, ok, err := locker.TryLock(ctx, key, ttl)
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}
		if time.Now().After(deadline) {
			return "", ErrLockBusy
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(acquireRetryInterval):
		}
	}
}
