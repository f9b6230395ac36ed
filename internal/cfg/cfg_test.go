package cfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sqlauto/sqlauto"
	"github.com/sqlauto/sqlauto/internal/dialect"
	"github.com/stretchr/testify/require"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sqlauto.env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolve(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		c, err := Resolve(Flags(map[Key]string{
			Host:     "localhost",
			User:     "root",
			Database: "app",
		}))
		require.NoError(t, err)
		require.Equal(t, "sqlauto", c.Dir)
		require.Equal(t, ".migrated", c.LogFile)
		require.Equal(t, dialect.Mysql, c.Dialect)
		require.Equal(t, ExecutorClient, c.Executor)
		require.Equal(t, HistoryFile, c.History)
		require.Equal(t, LockFile, c.Lock)
		require.False(t, c.ForceReload)
		require.False(t, c.DropTables)
		require.Equal(t, ".migrated.lock", c.LockPath())
	})
	t.Run("flags_over_constants_over_env", func(t *testing.T) {
		env, err := Env([]string{
			"HOST=env-host",
			"USER=env-user",
			"DB=env-db",
			"PASS=env-pass",
		}, writeEnvFile(t, ""))
		require.NoError(t, err)
		c, err := Resolve(
			Flags(map[Key]string{Host: "flag-host"}),
			Constants(map[Key]string{Host: "const-host", User: "const-user"}),
			env,
		)
		require.NoError(t, err)
		require.Equal(t, "flag-host", c.Host)
		require.Equal(t, "const-user", c.User)
		require.Equal(t, "env-db", c.Database)
		require.Equal(t, "env-pass", c.Password)
	})
	t.Run("empty_values_fall_through", func(t *testing.T) {
		c, err := Resolve(
			Flags(map[Key]string{Host: "", User: "  "}),
			Constants(map[Key]string{Host: "const-host", User: "const-user", Database: "db"}),
		)
		require.NoError(t, err)
		require.Equal(t, "const-host", c.Host)
		require.Equal(t, "const-user", c.User)
	})
	t.Run("booleans", func(t *testing.T) {
		c, err := Resolve(Flags(map[Key]string{
			Host:        "h",
			User:        "u",
			Database:    "d",
			ForceReload: "1",
			DropTables:  "yes",
		}))
		require.NoError(t, err)
		require.True(t, c.ForceReload)
		require.True(t, c.DropTables)

		// An explicit false on the command line wins over the environment.
		c, err = Resolve(
			Flags(map[Key]string{Host: "h", User: "u", Database: "d", ForceReload: "0"}),
			Layer{Name: "env", Values: map[Key]string{ForceReload: "1"}},
		)
		require.NoError(t, err)
		require.False(t, c.ForceReload)

		_, err = Resolve(Flags(map[Key]string{Host: "h", User: "u", Database: "d", DropTables: "maybe"}))
		require.ErrorIs(t, err, sqlauto.ErrConfig)
		require.Contains(t, err.Error(), "droptables")
	})
	t.Run("required", func(t *testing.T) {
		_, err := Resolve(Flags(map[Key]string{User: "u", Database: "d"}))
		require.ErrorIs(t, err, sqlauto.ErrConfig)
		require.Contains(t, err.Error(), "host must not be empty")

		_, err = Resolve(Flags(map[Key]string{Host: "h", Database: "d"}))
		require.ErrorIs(t, err, sqlauto.ErrConfig)
		require.Contains(t, err.Error(), "user must not be empty")

		_, err = Resolve(Flags(map[Key]string{Host: "h", User: "u"}))
		require.ErrorIs(t, err, sqlauto.ErrConfig)
		require.Contains(t, err.Error(), "database must not be empty")

		_, err = Resolve()
		require.ErrorIs(t, err, sqlauto.ErrConfig)
	})
	t.Run("sqlite_needs_database_only", func(t *testing.T) {
		c, err := Resolve(Flags(map[Key]string{
			Dialect:  "sqlite",
			Executor: "driver",
			Database: "app.db",
		}))
		require.NoError(t, err)
		require.Equal(t, dialect.Sqlite3, c.Dialect)
	})
	t.Run("invalid_combinations", func(t *testing.T) {
		base := func(extra map[Key]string) map[Key]string {
			m := map[Key]string{Host: "h", User: "u", Database: "d"}
			for k, v := range extra {
				m[k] = v
			}
			return m
		}
		for _, extra := range []map[Key]string{
			{Dialect: "oracle"},
			{Dialect: "postgres"},
			{Executor: "ssh"},
			{History: "table"},
			{History: "s3"},
			{Lock: "session"},
			{Lock: "mutex"},
		} {
			_, err := Resolve(Flags(base(extra)))
			require.ErrorIs(t, err, sqlauto.ErrConfig, "%v", extra)
		}
		c, err := Resolve(Flags(base(map[Key]string{
			Dialect:  "postgres",
			Executor: "driver",
			History:  "table",
			Lock:     "session",
		})))
		require.NoError(t, err)
		require.Equal(t, dialect.Postgres, c.Dialect)
	})
	t.Run("redacted", func(t *testing.T) {
		c, err := Resolve(Flags(map[Key]string{Host: "h", User: "u", Database: "d", Password: "hunter2"}))
		require.NoError(t, err)
		for _, kv := range c.Redacted() {
			require.NotEqual(t, "hunter2", kv[1])
		}
	})
}

func TestEnv(t *testing.T) {
	t.Parallel()

	t.Run("file_fills_gaps", func(t *testing.T) {
		path := writeEnvFile(t, "HOST=file-host\nDB=file-db\n# comment\nFORCELOAD=1\n")
		l, err := Env([]string{"HOST=proc-host", "UNRELATED=x"}, path)
		require.NoError(t, err)
		require.Equal(t, "proc-host", l.Values[Host])
		require.Equal(t, "file-db", l.Values[Database])
		require.Equal(t, "1", l.Values[ForceReload])
	})
	t.Run("prefixed_names_win", func(t *testing.T) {
		l, err := Env([]string{"USER=login-shell", "SQLAUTO_USER=deploy", "PASS=p"}, writeEnvFile(t, ""))
		require.NoError(t, err)
		require.Equal(t, "deploy", l.Values[User])
		require.Equal(t, "p", l.Values[Password])
	})
	t.Run("empty_process_value_does_not_hide_file", func(t *testing.T) {
		path := writeEnvFile(t, "SQLAUTO_DIR=migrations\n")
		l, err := Env([]string{"SQLAUTO_DIR="}, path)
		require.NoError(t, err)
		require.Equal(t, "migrations", l.Values[Dir])
	})
	t.Run("missing_explicit_file", func(t *testing.T) {
		_, err := Env(nil, filepath.Join(t.TempDir(), "missing.env"))
		require.ErrorIs(t, err, sqlauto.ErrConfig)
	})
}

func TestParseBool(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"1", "true", "TRUE", "yes", "on", " y "} {
		b, err := ParseBool(s)
		require.NoError(t, err)
		require.True(t, b, s)
	}
	for _, s := range []string{"0", "false", "no", "off", ""} {
		b, err := ParseBool(s)
		require.NoError(t, err)
		require.False(t, b, s)
	}
	_, err := ParseBool("2")
	require.Error(t, err)
}
