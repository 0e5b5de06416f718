package cache

import "time"

// SweepLock is a best-effort advisory lock backed by Redis SETNX. It keeps
// overlapping reconciliation sweeps from doing duplicate provider queries;
// correctness never depends on it because every sweep write is a conditional
// single-row update.
type SweepLock struct{}

// NewSweepLock returns an advisory lock using the shared cache client.
func NewSweepLock() *SweepLock {
	return &SweepLock{}
}

// Acquire attempts to take the named lock for at most ttl. It returns false
// when another holder owns the lock. An error means Redis was unreachable;
// callers are expected to proceed unguarded in that case.
func (l *SweepLock) Acquire(name string, ttl time.Duration) (bool, error) {
	return GetClient().SetNX(ctx, "lock:"+name, 1, ttl).Result()
}

// Release drops the named lock. Safe to call after expiry.
func (l *SweepLock) Release(name string) error {
	return GetClient().Del(ctx, "lock:"+name).Err()
}
