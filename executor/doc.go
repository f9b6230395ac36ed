// Package executor runs migration scripts against a database.
//
// Two implementations satisfy [sqlauto.Executor]:
//
//   - [Client] shells out to the mysql command line client and feeds the script on stdin, exactly
//     like running mysql --database=... < file.sql by hand.
//   - [Driver] uses database/sql with a native driver (mysql, postgres or sqlite), splits the
//     script into statements and runs them in a transaction.
//
// Both also implement [Admin] for the create-database and drop-tables utilities.
package executor

import "context"

// Admin is implemented by executors that can prepare the target database.
type Admin interface {
	// CreateDatabase creates the configured database if it does not exist yet.
	CreateDatabase(ctx context.Context) error
	// DropTables drops every table in the configured database, ignoring foreign keys. Tables named
	// in keep are left in place.
	DropTables(ctx context.Context, keep ...string) error
}

// ConnConfig holds the settings needed to reach the target database.
type ConnConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	// Database is the schema name, or the database file path for sqlite.
	Database string
}
