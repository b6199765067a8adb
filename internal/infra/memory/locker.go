package memory

import (
	"context"
	"sync"

	"gig-dispatch/internal/domain"
)

// Locker implements domain.Locker with per-name in-process mutexes. It
// covers single-node deployments; multi-node ones use the etcd locker.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocker creates an empty Locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*sync.Mutex)}
}

type memoryLock struct {
	mu *sync.Mutex
}

func (l *memoryLock) Unlock(ctx context.Context) error {
	l.mu.Unlock()
	return nil
}

// Lock attempts to acquire the named lock without blocking.
func (l *Locker) Lock(ctx context.Context, name string) (domain.Lock, error) {
	l.mu.Lock()
	mu, ok := l.locks[name]
	if !ok {
		mu = &sync.Mutex{}
		l.locks[name] = mu
	}
	l.mu.Unlock()

	if !mu.TryLock() {
		return nil, domain.ErrLockNotAcquired
	}
	return &memoryLock{mu: mu}, nil
}
