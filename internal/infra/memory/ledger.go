package memory

import (
	"context"
	"sync"
	"time"
)

// Ledger implements domain.DeliveryLedger in process. Entries carry a TTL
// so the key set does not grow without bound.
type Ledger struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewLedger creates a Ledger whose entries expire after ttl.
func NewLedger(ttl time.Duration) *Ledger {
	return &Ledger{
		ttl:     ttl,
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// MarkDelivered records the key, returning false if it was already present.
func (l *Ledger) MarkDelivered(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)
	if exp, ok := l.entries[key]; ok && exp.After(now) {
		return false, nil
	}
	l.entries[key] = now.Add(l.ttl)
	return true, nil
}

// Delivered reports whether the key is recorded and not expired.
func (l *Ledger) Delivered(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	exp, ok := l.entries[key]
	return ok && exp.After(l.now()), nil
}

// sweep drops expired entries. Caller must hold l.mu.
func (l *Ledger) sweep(now time.Time) {
	for k, exp := range l.entries {
		if !exp.After(now) {
			delete(l.entries, k)
		}
	}
}
