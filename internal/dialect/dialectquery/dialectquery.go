package dialectquery

import (
	"fmt"

	"github.com/sqlauto/sqlauto/internal/dialect"
)

// Querier is the interface that wraps the basic methods to create a dialect specific query.
type Querier interface {
	// CreateTable returns the SQL query string to create the applied log table if it does not
	// exist. The table has a filename and an applied_at column.
	CreateTable(table string) string

	// InsertRecord returns the SQL query string to append one record to the applied log table. The
	// query takes the filename and the applied_at timestamp as arguments.
	InsertRecord(table string) string

	// ListRecords returns the SQL query string to list every record in insertion order.
	//
	// The query should return the filename and applied_at columns.
	ListRecords(table string) string

	// CreateDatabase returns the SQL query string to create the named database if it is missing.
	// Empty when the dialect has no notion of creating a database.
	CreateDatabase(name string) string

	// ListTables returns the SQL query string listing the base tables of the current database.
	ListTables() string

	// DropTable returns the SQL statements needed to drop a single table, ignoring foreign keys.
	DropTable(table string) []string

	// TryLock returns the SQL query string that tries to take a session level advisory lock
	// without blocking. The query returns a single boolean-ish column. Empty if unsupported.
	TryLock(id int64) string

	// Unlock returns the SQL query string that releases the lock taken with TryLock.
	Unlock(id int64) string
}

// New returns the Querier for the given dialect.
func New(d dialect.Dialect) (Querier, error) {
	switch d {
	case dialect.Mysql:
		return &Mysql{}, nil
	case dialect.Postgres:
		return &Postgres{}, nil
	case dialect.Sqlite3:
		return &Sqlite3{}, nil
	}
	return nil, fmt.Errorf("%q: %w", d, dialect.ErrUnknownDialect)
}
