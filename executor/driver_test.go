package executor

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sqlauto/sqlauto"
	"github.com/sqlauto/sqlauto/internal/dialect"
	"github.com/stretchr/testify/require"
)

func newSqliteDriver(t *testing.T, opts ...DriverOption) *Driver {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sqlauto.db")
	d, err := OpenDriver(dialect.Sqlite3, ConnConfig{Database: path}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, d.Close())
	})
	return d
}

func tableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}

func TestDriver(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("exec", func(t *testing.T) {
		t.Parallel()
		d := newSqliteDriver(t)
		require.NoError(t, d.CreateDatabase(ctx))
		script := `
-- create the users table
CREATE TABLE users (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL
);
INSERT INTO users (name) VALUES ('alice');
INSERT INTO users (name) VALUES ('bob')
`
		require.NoError(t, d.Exec(ctx, "sql20180101_users.sql", strings.NewReader(script)))
		var count int
		require.NoError(t, d.DB().QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count))
		require.Equal(t, 2, count)
	})
	t.Run("failure_rolls_back_file", func(t *testing.T) {
		t.Parallel()
		d := newSqliteDriver(t)
		script := `
CREATE TABLE a (id INTEGER);
INSERT INTO a VALUES (1);
INSERT INTO missing VALUES (1);
`
		err := d.Exec(ctx, "sql20180101_a.sql", strings.NewReader(script))
		require.Error(t, err)
		require.Contains(t, err.Error(), "sql20180101_a.sql: statement 3")
		require.Empty(t, tableNames(t, d.DB()))
	})
	t.Run("no_transaction", func(t *testing.T) {
		t.Parallel()
		d := newSqliteDriver(t)
		script := `-- +sqlauto NO TRANSACTION
CREATE TABLE a (id INTEGER);
INSERT INTO missing VALUES (1);
`
		require.Error(t, d.Exec(ctx, "sql20180101_a.sql", strings.NewReader(script)))
		require.Equal(t, []string{"a"}, tableNames(t, d.DB()))
	})
	t.Run("parse_error", func(t *testing.T) {
		t.Parallel()
		d := newSqliteDriver(t)
		script := `-- +sqlauto StatementBegin
CREATE TABLE a (id INTEGER);
`
		err := d.Exec(ctx, "sql20180101_a.sql", strings.NewReader(script))
		require.Error(t, err)
		require.Contains(t, err.Error(), "StatementEnd")
	})
	t.Run("envsub", func(t *testing.T) {
		t.Parallel()
		lookup := func(key string) (string, bool) {
			if key == "TABLE_NAME" {
				return "widgets", true
			}
			return "", false
		}
		d := newSqliteDriver(t, WithEnvLookup(lookup))
		script := `-- +sqlauto ENVSUB ON
CREATE TABLE ${TABLE_NAME} (id INTEGER);
`
		require.NoError(t, d.Exec(ctx, "sql20180101_a.sql", strings.NewReader(script)))
		require.Equal(t, []string{"widgets"}, tableNames(t, d.DB()))
	})
	t.Run("empty_script", func(t *testing.T) {
		t.Parallel()
		d := newSqliteDriver(t)
		require.NoError(t, d.Exec(ctx, "sql20180101_a.sql", strings.NewReader("-- nothing yet\n")))
	})
	t.Run("drop_tables", func(t *testing.T) {
		t.Parallel()
		d := newSqliteDriver(t)
		script := `
CREATE TABLE parent (id INTEGER PRIMARY KEY);
CREATE TABLE child (id INTEGER PRIMARY KEY AUTOINCREMENT, parent_id INTEGER REFERENCES parent(id));
INSERT INTO parent VALUES (1);
INSERT INTO child (parent_id) VALUES (1);
`
		require.NoError(t, d.Exec(ctx, "sql20180101_a.sql", strings.NewReader(script)))
		require.Equal(t, []string{"child", "parent"}, tableNames(t, d.DB()))
		require.NoError(t, d.DropTables(ctx))
		require.Empty(t, tableNames(t, d.DB()))
		// Nothing left to drop is not an error.
		require.NoError(t, d.DropTables(ctx))
	})
	t.Run("drop_tables_keeps_listed", func(t *testing.T) {
		t.Parallel()
		d := newSqliteDriver(t)
		script := "CREATE TABLE users (id INTEGER);\nCREATE TABLE sqlauto_migrated (filename TEXT);\n"
		require.NoError(t, d.Exec(ctx, "sql20180101_a.sql", strings.NewReader(script)))
		require.NoError(t, d.DropTables(ctx, "SQLAUTO_MIGRATED"))
		require.Equal(t, []string{"sqlauto_migrated"}, tableNames(t, d.DB()))
	})
	t.Run("new_driver_keeps_db_open", func(t *testing.T) {
		t.Parallel()
		db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "shared.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		d, err := NewDriver(db, dialect.Sqlite3)
		require.NoError(t, err)
		require.NoError(t, d.Close())
		require.NoError(t, db.Ping())
	})
	t.Run("new_driver_nil_db", func(t *testing.T) {
		t.Parallel()
		_, err := NewDriver(nil, dialect.Sqlite3)
		require.Error(t, err)
	})
	t.Run("create_database_requires_name", func(t *testing.T) {
		t.Parallel()
		d, err := OpenDriver(dialect.Mysql, ConnConfig{Host: "127.0.0.1", User: "root", Database: "app"})
		require.NoError(t, err)
		t.Cleanup(func() { _ = d.Close() })
		d.conn.Database = ""
		require.ErrorIs(t, d.CreateDatabase(ctx), sqlauto.ErrDatabaseConnect)
	})
}
