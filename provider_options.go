package sqlauto

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sqlauto/sqlauto/history"
	"github.com/sqlauto/sqlauto/lock"
)

// ProviderOption is a configuration option for a sqlauto provider.
type ProviderOption interface {
	apply(*config) error
}

// WithStore sets the applied log.
//
// If WithStore is not called, the provider uses a [history.FileStore] at ".migrated" in the
// working directory.
func WithStore(store history.Store) ProviderOption {
	return configFunc(func(c *config) error {
		if c.store != nil {
			return errors.New("store already set")
		}
		if store == nil {
			return errors.New("store must not be nil")
		}
		c.store = store
		return nil
	})
}

// WithForceReload makes every run apply all migrations found on disk, ignoring the applied log.
// Successful files are still appended to the log.
func WithForceReload(b bool) ProviderOption {
	return configFunc(func(c *config) error {
		c.forceReload = b
		return nil
	})
}

// WithLocker enables locking using the provided Locker. The lock is held while Up plans and applies
// migrations.
//
// If WithLocker is not called, locking is disabled.
func WithLocker(locker lock.Locker) ProviderOption {
	return configFunc(func(c *config) error {
		if c.locker != nil {
			return errors.New("locker already set")
		}
		if locker == nil {
			return errors.New("locker must not be nil")
		}
		c.locker = locker
		return nil
	})
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(logger *slog.Logger) ProviderOption {
	return configFunc(func(c *config) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		c.logger = logger
		return nil
	})
}

// WithExtension sets the migration file extension, including the leading dot. Defaults to ".sql".
func WithExtension(ext string) ProviderOption {
	return configFunc(func(c *config) error {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("extension must start with a dot: %q", ext)
		}
		c.ext = ext
		return nil
	})
}

// WithClock sets the source of the appliedAt timestamps. Defaults to time.Now.
func WithClock(clock func() time.Time) ProviderOption {
	return configFunc(func(c *config) error {
		if clock == nil {
			return errors.New("clock must not be nil")
		}
		c.clock = clock
		return nil
	})
}

type config struct {
	store       history.Store
	forceReload bool
	locker      lock.Locker
	logger      *slog.Logger
	ext         string
	clock       func() time.Time
}

type configFunc func(*config) error

func (f configFunc) apply(cfg *config) error {
	return f(cfg)
}
