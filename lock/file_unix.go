//go:build unix

package lock

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

func (l *FileLocker) Lock(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f != nil {
		return errors.New("lock already held")
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open lock file %q: %w", l.path, err)
	}
	err = retry.Do(ctx, l.cfg.lockTimeout.backoff(), func(ctx context.Context) error {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return nil
		}
		if errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINTR) {
			// Another process holds the lock. Keep retrying until it is released or the retry
			// budget is spent.
			return retry.RetryableError(fmt.Errorf("failed to acquire lock %q: %w", l.path, err))
		}
		return err
	})
	if err != nil {
		return multierr.Append(err, f.Close())
	}
	l.f = f
	return nil
}

func (l *FileLocker) Unlock(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return ErrNotLocked
	}
	f := l.f
	l.f = nil
	err := retry.Do(ctx, l.cfg.unlockTimeout.backoff(), func(ctx context.Context) error {
		if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
			if errors.Is(err, unix.EINTR) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	// Closing the descriptor drops the lock even if LOCK_UN failed.
	return multierr.Append(err, f.Close())
}
