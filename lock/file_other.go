//go:build !unix

package lock

import "context"

func (l *FileLocker) Lock(context.Context) error {
	return ErrLockNotImplemented
}

func (l *FileLocker) Unlock(context.Context) error {
	return ErrLockNotImplemented
}
