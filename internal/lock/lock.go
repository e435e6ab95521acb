package lock

import "context"

// ReleaseFunc releases a held lock. Safe to call once.
type ReleaseFunc func(ctx context.Context) error

// CallLocker serializes disposition mutations per call id across processes.
// Acquire blocks until the lock is held or the context ends.
type CallLocker interface {
	Acquire(ctx context.Context, callID string) (ReleaseFunc, error)
}
