package lock

import (
	"os"
	"sync"
)

// FileLocker holds an exclusive flock(2) on a file next to the applied log. The lock file itself
// is left in place after Unlock; only the kernel lock matters.
type FileLocker struct {
	path string
	cfg  config

	mu sync.Mutex
	f  *os.File
}

var _ Locker = (*FileLocker)(nil)

// NewFileLocker returns a locker for the file at path. The file is created on Lock if missing.
func NewFileLocker(path string, opts ...Option) (*FileLocker, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &FileLocker{path: path, cfg: cfg}, nil
}

// Path returns the lock file location.
func (l *FileLocker) Path() string {
	return l.path
}
