package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock taken with DistributedLocker.Lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes edits to one document across processes.
// The session manager takes it after its in-process lock, keyed by document id.
type DistributedLocker interface {
	// Lock blocks until key is held or ctx is done. The lock expires after ttl
	// if the holder dies; the returned UnlockFunc must be called otherwise.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
