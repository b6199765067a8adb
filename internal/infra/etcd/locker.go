package etcd

import (
	"context"
	"fmt"
	"time"

	"gig-dispatch/internal/domain"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"
)

const (
	// lockPrefix is the etcd root for per-job assignment locks.
	lockPrefix = "/dispatch/locks/"
	// lockSessionTTL bounds how long a crashed holder keeps the lock, in
	// seconds.
	lockSessionTTL = 10
)

type etcdLock struct {
	mutex   *concurrency.Mutex
	session *concurrency.Session
	name    string
}

// Unlock releases the lock and closes its session.
func (l *etcdLock) Unlock(ctx context.Context) error {
	defer func() {
		if l.session != nil {
			_ = l.session.Close()
		}
	}()

	if err := l.mutex.Unlock(ctx); err != nil {
		return fmt.Errorf("failed to unlock %s: %w", l.name, err)
	}
	return nil
}

// Locker implements domain.Locker on etcd, giving assignment attempts for
// the same job mutual exclusion across dispatcher nodes.
type Locker struct {
	client *clientv3.Client
}

// NewLocker creates an etcd-backed Locker.
func NewLocker(client *clientv3.Client) *Locker {
	return &Locker{client: client}
}

// Lock tries to acquire the named lock. Each attempt gets its own session,
// so the lock auto-releases if the holder's lease expires.
func (l *Locker) Lock(ctx context.Context, name string) (domain.Lock, error) {
	session, err := concurrency.NewSession(l.client, concurrency.WithTTL(lockSessionTTL))
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd session for lock %s: %w", name, err)
	}

	mutex := concurrency.NewMutex(session, lockPrefix+name)

	tryCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()

	if err := mutex.TryLock(tryCtx); err != nil {
		_ = session.Close()
		if err == context.DeadlineExceeded || err == concurrency.ErrLocked {
			return nil, domain.ErrLockNotAcquired
		}
		return nil, fmt.Errorf("failed to try acquiring etcd lock %s: %w", name, err)
	}

	return &etcdLock{mutex: mutex, session: session, name: name}, nil
}
