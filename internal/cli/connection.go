package cli

import (
	"fmt"
	"log/slog"

	"github.com/sqlauto/sqlauto"
	"github.com/sqlauto/sqlauto/executor"
	"github.com/sqlauto/sqlauto/history"
	"github.com/sqlauto/sqlauto/internal/cfg"
	"github.com/sqlauto/sqlauto/lock"
	"go.uber.org/multierr"
)

// session is everything a command needs to talk to the target database.
type session struct {
	exec   sqlauto.Executor
	admin  executor.Admin
	store  history.Store
	locker lock.Locker
	// keepTables are never dropped by --droptables.
	keepTables []string
	close      func() error
}

// openSession wires the executor, applied log and lock selected by c. Nothing contacts the database
// until a command uses the session.
func (s *state) openSession(c cfg.Config, logger *slog.Logger) (*session, error) {
	conn := executor.ConnConfig{
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		Database: c.Database,
	}
	sess := &session{close: func() error { return nil }}

	var drv *executor.Driver
	switch c.Executor {
	case cfg.ExecutorDriver:
		var err error
		drv, err = executor.OpenDriver(c.Dialect, conn,
			executor.WithDriverLogger(logger),
			executor.WithEnvLookup(s.lookupEnv),
		)
		if err != nil {
			return nil, err
		}
		sess.exec, sess.admin, sess.close = drv, drv, drv.Close
	default:
		opts := []executor.ClientOption{
			executor.WithClientBin(c.ClientBin),
			executor.WithClientLogger(logger),
		}
		if c.Verbose {
			opts = append(opts, executor.WithClientStdout(s.stderr))
		}
		client := executor.NewClient(conn, opts...)
		sess.exec, sess.admin = client, client
	}

	var err error
	switch c.History {
	case cfg.HistoryTable:
		var ts *history.TableStore
		ts, err = history.NewTableStore(drv.DB(), c.Dialect, history.DefaultTableName)
		if err == nil {
			sess.store = ts
			sess.keepTables = append(sess.keepTables, ts.Tablename())
		}
	default:
		sess.store = history.NewFileStore(c.LogFile)
	}
	if err != nil {
		return nil, multierr.Append(err, sess.close())
	}

	switch c.Lock {
	case cfg.LockSession:
		sess.locker, err = lock.NewSessionLocker(drv.DB(), c.Dialect)
	case cfg.LockFile:
		sess.locker, err = lock.NewFileLocker(c.LockPath())
	}
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to create %s lock: %w", c.Lock, err), sess.close())
	}
	return sess, nil
}

func (s *state) newProvider(c cfg.Config, sess *session, logger *slog.Logger) (*sqlauto.Provider, error) {
	fsys, err := s.fsys(c.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: migration directory %q: %w", sqlauto.ErrIO, c.Dir, err)
	}
	opts := []sqlauto.ProviderOption{
		sqlauto.WithStore(sess.store),
		sqlauto.WithForceReload(c.ForceReload),
		sqlauto.WithLogger(logger),
	}
	if sess.locker != nil {
		opts = append(opts, sqlauto.WithLocker(sess.locker))
	}
	return sqlauto.NewProvider(sess.exec, fsys, opts...)
}
