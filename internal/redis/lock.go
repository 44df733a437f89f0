package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireReferenceLock attempts to acquire a lock for the given payment
// reference. Returns true if the lock was acquired, false if already held
// by a concurrent callback delivery.
func (s *LockStore) AcquireReferenceLock(ctx context.Context, reference string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:payment:%s", reference)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseReferenceLock releases the lock for the given reference.
func (s *LockStore) ReleaseReferenceLock(ctx context.Context, reference string) error {
	key := fmt.Sprintf("lock:payment:%s", reference)

	return s.client.Del(ctx, key).Err()
}
