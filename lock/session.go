package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/sethvargo/go-retry"
	"github.com/sqlauto/sqlauto/internal/dialect"
	"github.com/sqlauto/sqlauto/internal/dialect/dialectquery"
	"go.uber.org/multierr"
)

// SessionLocker holds a session level advisory lock in the target database: GET_LOCK on mysql and
// pg_try_advisory_lock on postgres. The lock lives as long as the dedicated connection taken in
// Lock, so it is released by the server even if the process dies.
type SessionLocker struct {
	db      *sql.DB
	querier dialectquery.Querier
	cfg     config

	mu   sync.Mutex
	conn *sql.Conn
}

var _ Locker = (*SessionLocker)(nil)

// NewSessionLocker returns a session locker for the given dialect. Dialects without advisory locks
// return [ErrLockNotImplemented].
func NewSessionLocker(db *sql.DB, d dialect.Dialect, opts ...Option) (*SessionLocker, error) {
	if db == nil {
		return nil, errors.New("db must not be nil")
	}
	querier, err := dialectquery.New(d)
	if err != nil {
		return nil, err
	}
	if querier.TryLock(0) == "" {
		return nil, fmt.Errorf("%s: %w", d, ErrLockNotImplemented)
	}
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &SessionLocker{db: db, querier: querier, cfg: cfg}, nil
}

func (l *SessionLocker) Lock(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		return errors.New("lock already held")
	}
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection for lock: %w", err)
	}
	err = retry.Do(ctx, l.cfg.lockTimeout.backoff(), func(ctx context.Context) error {
		var result any
		if err := conn.QueryRowContext(ctx, l.querier.TryLock(l.cfg.lockID)).Scan(&result); err != nil {
			return err
		}
		if truthy(result) {
			return nil
		}
		// Another session holds the lock. Keep retrying until it is released or the retry budget
		// is spent.
		return retry.RetryableError(errors.New("failed to acquire lock"))
	})
	if err != nil {
		return multierr.Append(err, conn.Close())
	}
	l.conn = conn
	return nil
}

func (l *SessionLocker) Unlock(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return ErrNotLocked
	}
	conn := l.conn
	l.conn = nil
	err := retry.Do(ctx, l.cfg.unlockTimeout.backoff(), func(ctx context.Context) error {
		var result any
		if err := conn.QueryRowContext(ctx, l.querier.Unlock(l.cfg.lockID)).Scan(&result); err != nil {
			return err
		}
		if !truthy(result) {
			return retry.RetryableError(errors.New("failed to unlock session"))
		}
		return nil
	})
	return multierr.Append(err, conn.Close())
}

// truthy interprets the single column returned by the lock functions: a bool on postgres, 1, 0 or
// NULL on mysql.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int64:
		return t == 1
	case []byte:
		n, err := strconv.ParseInt(string(t), 10, 64)
		return err == nil && n == 1
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return err == nil && n == 1
	}
	return false
}
