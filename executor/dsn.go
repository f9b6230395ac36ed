package executor

import (
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/sqlauto/sqlauto/internal/dialect"
)

const (
	defaultMysqlPort    = "3306"
	defaultPostgresPort = "5432"
	// postgresMaintenanceDB is connected to when the target database may not exist yet.
	postgresMaintenanceDB = "postgres"
)

// DSN returns the connection string for the dialect. When withDatabase is false the string
// connects to the server without selecting the configured database, which is what creating the
// database needs.
func DSN(d dialect.Dialect, conn ConnConfig, withDatabase bool) (string, error) {
	switch d {
	case dialect.Mysql:
		return mysqlDSN(conn, withDatabase), nil
	case dialect.Postgres:
		return postgresDSN(conn, withDatabase), nil
	case dialect.Sqlite3:
		if conn.Database == "" {
			return "", fmt.Errorf("sqlite: database file must not be empty")
		}
		return conn.Database, nil
	}
	return "", fmt.Errorf("%q: %w", d, dialect.ErrUnknownDialect)
}

// mysqlDSN always sets parseTime so DATETIME columns scan into time.Time.
func mysqlDSN(conn ConnConfig, withDatabase bool) string {
	cfg := mysql.NewConfig()
	cfg.User = conn.User
	cfg.Passwd = conn.Password
	cfg.Net = "tcp"
	cfg.Addr = hostPort(conn.Host, conn.Port, defaultMysqlPort)
	if withDatabase {
		cfg.DBName = conn.Database
	}
	cfg.ParseTime = true
	cfg.Loc = time.Local
	return cfg.FormatDSN()
}

func postgresDSN(conn ConnConfig, withDatabase bool) string {
	database := postgresMaintenanceDB
	if withDatabase {
		database = conn.Database
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   hostPort(conn.Host, conn.Port, defaultPostgresPort),
		Path:   "/" + database,
	}
	if conn.Password != "" {
		u.User = url.UserPassword(conn.User, conn.Password)
	} else {
		u.User = url.User(conn.User)
	}
	return u.String()
}

func hostPort(host, port, defaultPort string) string {
	if port == "" {
		if _, _, err := net.SplitHostPort(host); err == nil {
			return host
		}
		port = defaultPort
	}
	return net.JoinHostPort(host, port)
}
