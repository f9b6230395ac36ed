// Package lock provides advisory locks that stop two runs from applying migrations at the same
// time.
package lock

import (
	"context"
	"errors"
)

var (
	// ErrLockNotImplemented is returned when the backend does not support locking.
	ErrLockNotImplemented = errors.New("lock not implemented")

	// ErrNotLocked is returned by Unlock when the lock is not held.
	ErrNotLocked = errors.New("lock not held")
)

// Locker is an exclusive advisory lock held for the duration of a run.
type Locker interface {
	// Lock blocks until the lock is acquired, the retry budget is spent, or ctx is done.
	Lock(ctx context.Context) error
	// Unlock releases the lock. Callers should pass a context that is not already canceled.
	Unlock(ctx context.Context) error
}
