package dialect

import (
	"errors"
	"fmt"
	"strings"
)

// Dialect is the type of database dialect.
type Dialect string

var ErrUnknownDialect = errors.New("unknown dialect")

const (
	Mysql    Dialect = "mysql"
	Postgres Dialect = "postgres"
	Sqlite3  Dialect = "sqlite3"
)

// GetDialect gets the dialect for a user supplied name.
func GetDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "mysql", "mariadb":
		return Mysql, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite3", "sqlite":
		return Sqlite3, nil
	default:
		return "", fmt.Errorf("%s: %w", s, ErrUnknownDialect)
	}
}

func (d *Dialect) UnmarshalText(text []byte) error {
	parsed, err := GetDialect(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DriverName returns the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case Postgres:
		return "pgx"
	case Sqlite3:
		return "sqlite"
	default:
		return "mysql"
	}
}

// NeedsServer reports whether the dialect talks to a server, and therefore requires a host and
// user to be configured.
func (d Dialect) NeedsServer() bool {
	return d != Sqlite3
}
