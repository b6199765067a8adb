package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ledgerKeyPrefix namespaces delivery keys in a shared redis.
const ledgerKeyPrefix = "dispatch:delivered:"

// Ledger implements domain.DeliveryLedger on redis via SETNX with a TTL, so
// a retried fan-out from any node skips recipients already reached.
type Ledger struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLedger creates a Ledger whose entries expire after ttl.
func NewLedger(client *redis.Client, ttl time.Duration) *Ledger {
	return &Ledger{client: client, ttl: ttl}
}

// MarkDelivered records the key, returning false if it was already present.
func (l *Ledger) MarkDelivered(ctx context.Context, key string) (bool, error) {
	return l.client.SetNX(ctx, ledgerKeyPrefix+key, "1", l.ttl).Result()
}

// Delivered reports whether the key is recorded.
func (l *Ledger) Delivered(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Exists(ctx, ledgerKeyPrefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
