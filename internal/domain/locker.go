package domain

import (
	"context"
	"errors"
)

// ErrLockNotAcquired is returned when a lock cannot be acquired, for example
// if it's already held by another process.
var ErrLockNotAcquired = errors.New("lock not acquired")

// Lock represents an acquired per-job lock.
type Lock interface {
	// Unlock releases the lock.
	Unlock(ctx context.Context) error
}

// Locker scopes mutual exclusion to a single name (one job), so concurrent
// assignment attempts for different jobs never contend. Lock is a
// non-blocking call: if the lock is already held it must return
// ErrLockNotAcquired.
type Locker interface {
	Lock(ctx context.Context, name string) (Lock, error)
}
