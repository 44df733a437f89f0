package redis

import (
	"context"
	"time"
)

// DriverCacheInterface defines the read-side cache of bookable drivers.
// The cache only serves list reads; eligibility is always re-checked inside
// the booking transaction.
type DriverCacheInterface interface {
	GetAvailable(ctx context.Context) ([]CachedDriver, error)
	SetAvailable(ctx context.Context, drivers []CachedDriver) error
	InvalidateAvailable(ctx context.Context) error
}

// ReferenceLockInterface defines a short-lived lock per payment reference,
// used to short-circuit duplicate gateway callback deliveries before they
// reach the database.
type ReferenceLockInterface interface {
	AcquireReferenceLock(ctx context.Context, reference string, ttl time.Duration) (bool, error)
	ReleaseReferenceLock(ctx context.Context, reference string) error
}

// Ensure concrete types implement interfaces.
var (
	_ DriverCacheInterface   = (*DriverCache)(nil)
	_ ReferenceLockInterface = (*LockStore)(nil)
)
