package executor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/sqlauto/sqlauto"
	"github.com/sqlauto/sqlauto/internal/dialect"
	"github.com/sqlauto/sqlauto/internal/dialect/dialectquery"
	"github.com/sqlauto/sqlauto/internal/sqlparser"
	"go.uber.org/multierr"

	// Init DB drivers.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Driver runs scripts through database/sql. Each script is split into statements and, unless it
// is annotated '-- +sqlauto NO TRANSACTION', applied inside a single transaction.
//
// Note that mysql commits DDL implicitly, so a failing mysql script can leave the statements before
// the failure applied.
type Driver struct {
	db      *sql.DB
	dialect dialect.Dialect
	querier dialectquery.Querier
	conn    ConnConfig
	logger  *slog.Logger
	lookup  func(string) (string, bool)
	ownsDB  bool
}

var (
	_ sqlauto.Executor = (*Driver)(nil)
	_ Admin            = (*Driver)(nil)
)

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithDriverLogger sets the logger used to report statements at debug level.
func WithDriverLogger(logger *slog.Logger) DriverOption {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithEnvLookup sets how ${VAR} references are resolved in '-- +sqlauto ENVSUB ON' sections.
func WithEnvLookup(lookup func(string) (string, bool)) DriverOption {
	return func(d *Driver) {
		d.lookup = lookup
	}
}

// WithConnConfig records the connection settings, needed by CreateDatabase when the Driver was
// built from an existing *sql.DB.
func WithConnConfig(conn ConnConfig) DriverOption {
	return func(d *Driver) {
		d.conn = conn
	}
}

// NewDriver returns a Driver using an already opened database. The caller keeps ownership of db.
func NewDriver(db *sql.DB, d dialect.Dialect, opts ...DriverOption) (*Driver, error) {
	if db == nil {
		return nil, errors.New("db must not be nil")
	}
	querier, err := dialectquery.New(d)
	if err != nil {
		return nil, err
	}
	drv := &Driver{
		db:      db,
		dialect: d,
		querier: querier,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(drv)
	}
	return drv, nil
}

// OpenDriver opens a connection pool for the configured database. The database is not contacted
// until first use, so OpenDriver works before CreateDatabase has run. Call Close when done.
func OpenDriver(d dialect.Dialect, conn ConnConfig, opts ...DriverOption) (*Driver, error) {
	dsn, err := DSN(d, conn, true)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sqlauto.ErrDatabaseConnect, err)
	}
	drv, err := NewDriver(db, d, append([]DriverOption{WithConnConfig(conn)}, opts...)...)
	if err != nil {
		return nil, multierr.Append(err, db.Close())
	}
	drv.ownsDB = true
	return drv, nil
}

// DB returns the underlying database handle.
func (d *Driver) DB() *sql.DB {
	return d.db
}

// Dialect returns the dialect the driver speaks.
func (d *Driver) Dialect() dialect.Dialect {
	return d.dialect
}

// Ping verifies the configured database is reachable.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", sqlauto.ErrDatabaseConnect, err)
	}
	return nil
}

// Close closes the database if it was opened by OpenDriver.
func (d *Driver) Close() error {
	if !d.ownsDB {
		return nil
	}
	return d.db.Close()
}

func (d *Driver) Exec(ctx context.Context, name string, script io.Reader) error {
	parsed, err := sqlparser.Parse(script, sqlparser.Options{Lookup: d.lookup})
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if len(parsed.Statements) == 0 {
		d.logger.DebugContext(ctx, "empty migration", slog.String("file", name))
		return nil
	}
	if !parsed.UseTx {
		return d.execAll(ctx, d.db, name, parsed.Statements)
	}
	return d.beginTx(ctx, func(tx *sql.Tx) error {
		return d.execAll(ctx, tx, name, parsed.Statements)
	})
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (d *Driver) execAll(ctx context.Context, db execer, name string, statements []string) error {
	for i, stmt := range statements {
		d.logger.DebugContext(ctx, "exec statement",
			slog.String("file", name),
			slog.Int("index", i),
		)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: statement %d: %w", name, i+1, err)
		}
	}
	return nil
}

// beginTx begins a transaction and runs the given function. If the function returns an error, the
// transaction is rolled back. Otherwise, the transaction is committed.
func (d *Driver) beginTx(ctx context.Context, fn func(tx *sql.Tx) error) (retErr error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			retErr = multierr.Append(retErr, tx.Rollback())
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateDatabase creates the configured database when the dialect has that notion. For sqlite the
// file is created by connecting to it.
func (d *Driver) CreateDatabase(ctx context.Context) error {
	if d.dialect == dialect.Sqlite3 {
		return d.Ping(ctx)
	}
	if d.conn.Database == "" {
		return fmt.Errorf("%w: database name must not be empty", sqlauto.ErrDatabaseConnect)
	}
	dsn, err := DSN(d.dialect, d.conn, false)
	if err != nil {
		return err
	}
	server, err := sql.Open(d.dialect.DriverName(), dsn)
	if err != nil {
		return fmt.Errorf("%w: %w", sqlauto.ErrDatabaseConnect, err)
	}
	defer server.Close()

	if pg, ok := d.querier.(*dialectquery.Postgres); ok {
		var exists bool
		if err := server.QueryRowContext(ctx, pg.DatabaseExists(), d.conn.Database).Scan(&exists); err != nil {
			return fmt.Errorf("%w: %w", sqlauto.ErrDatabaseConnect, err)
		}
		if exists {
			return nil
		}
	}
	if _, err := server.ExecContext(ctx, d.querier.CreateDatabase(d.conn.Database)); err != nil {
		return fmt.Errorf("%w: failed to create database %q: %w", sqlauto.ErrDatabaseConnect, d.conn.Database, err)
	}
	d.logger.DebugContext(ctx, "database ready", slog.String("database", d.conn.Database))
	return nil
}

// DropTables drops every base table of the configured database except those in keep. All
// statements run on one connection so session settings such as FOREIGN_KEY_CHECKS apply to every
// drop.
func (d *Driver) DropTables(ctx context.Context, keep ...string) (retErr error) {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", sqlauto.ErrDatabaseConnect, err)
	}
	defer func() {
		retErr = multierr.Append(retErr, conn.Close())
	}()
	tables, err := listTables(ctx, conn, d.querier.ListTables())
	if err != nil {
		return fmt.Errorf("%w: failed to list tables: %w", sqlauto.ErrDatabaseConnect, err)
	}
	for _, table := range tables {
		if kept(table, keep) {
			d.logger.DebugContext(ctx, "keep table", slog.String("table", table))
			continue
		}
		for _, q := range d.querier.DropTable(table) {
			if _, err := conn.ExecContext(ctx, q); err != nil {
				return fmt.Errorf("%w: failed to drop table %q: %w", sqlauto.ErrDatabaseConnect, table, err)
			}
		}
		d.logger.InfoContext(ctx, "dropped table", slog.String("table", table))
	}
	return nil
}

// kept reports whether table is in keep. Table names are compared case-insensitively since mysql
// may fold them depending on lower_case_table_names.
func kept(table string, keep []string) bool {
	return slices.ContainsFunc(keep, func(k string) bool {
		return strings.EqualFold(k, table)
	})
}

func listTables(ctx context.Context, conn *sql.Conn, query string) ([]string, error) {
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}
