package history_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sqlauto/sqlauto/history"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	t.Run("missing_file_is_empty", func(t *testing.T) {
		t.Parallel()
		s := history.NewFileStore(filepath.Join(t.TempDir(), ".migrated"))
		applied, err := s.Load(ctx)
		require.NoError(t, err)
		require.Empty(t, applied)
		records, err := s.List(ctx)
		require.NoError(t, err)
		require.Empty(t, records)
	})
	t.Run("append_then_load", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".migrated")
		s := history.NewFileStore(path)
		at := time.Date(2018, 9, 12, 10, 11, 12, 0, time.Local)
		require.NoError(t, s.Append(ctx, history.Record{Filename: "sql00000000_init.sql", AppliedAt: at}))
		require.NoError(t, s.Append(ctx, history.Record{Filename: "sql20180912_users.sql", AppliedAt: at}))

		applied, err := s.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, map[string]bool{
			"sql00000000_init.sql":  true,
			"sql20180912_users.sql": true,
		}, applied)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, "sql00000000_init.sql\t2018-09-12 10:11:12\nsql20180912_users.sql\t2018-09-12 10:11:12\n", string(data))

		records, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 2)
		require.True(t, records[1].AppliedAt.Equal(at))
	})
	t.Run("append_keeps_existing_content", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".migrated")
		existing := "sql20170101_old.sql\t2017-01-01 00:00:00\n"
		require.NoError(t, os.WriteFile(path, []byte(existing), 0o644))
		s := history.NewFileStore(path)
		require.NoError(t, s.Append(ctx, history.Record{Filename: "sql20180101_new.sql", AppliedAt: time.Now()}))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Contains(t, string(data), existing)
		applied, err := s.Load(ctx)
		require.NoError(t, err)
		require.True(t, applied["sql20170101_old.sql"])
		require.True(t, applied["sql20180101_new.sql"])
	})
	t.Run("quoting_round_trip", func(t *testing.T) {
		t.Parallel()
		s := history.NewFileStore(filepath.Join(t.TempDir(), ".migrated"))
		name := "sql20180101_with \"quotes\"\tand tab.sql"
		require.NoError(t, s.Append(ctx, history.Record{Filename: name, AppliedAt: time.Now()}))
		applied, err := s.Load(ctx)
		require.NoError(t, err)
		require.True(t, applied[name])
	})
	t.Run("tolerates_odd_lines", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".migrated")
		content := "" +
			"sql20180101_a.sql\t2018-01-01 10:00:00\n" +
			"\n" +
			"\tno-filename\n" +
			"sql20180102_b.sql\n" +
			"sql20180103_c.sql\tnot a timestamp\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		s := history.NewFileStore(path)
		records, err := s.List(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 3)
		require.Equal(t, "sql20180101_a.sql", records[0].Filename)
		require.False(t, records[0].AppliedAt.IsZero())
		require.Equal(t, "sql20180102_b.sql", records[1].Filename)
		require.True(t, records[1].AppliedAt.IsZero())
		require.Equal(t, "sql20180103_c.sql", records[2].Filename)
		require.True(t, records[2].AppliedAt.IsZero())
	})
	t.Run("tolerates_long_line", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".migrated")
		content := "sql20180101_a.sql\t2018-01-01 10:00:00\n" +
			"\t" + strings.Repeat("x", 70_000) + "\n" +
			"sql20180102_b.sql\t2018-01-02 10:00:00"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		applied, err := history.NewFileStore(path).Load(ctx)
		require.NoError(t, err)
		require.Equal(t, map[string]bool{
			"sql20180101_a.sql": true,
			"sql20180102_b.sql": true,
		}, applied)
	})
	t.Run("crlf_line_endings", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".migrated")
		require.NoError(t, os.WriteFile(path, []byte("sql20180101_a.sql\t2018-01-01 10:00:00\r\n"), 0o644))
		records, err := history.NewFileStore(path).List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, "sql20180101_a.sql", records[0].Filename)
		require.False(t, records[0].AppliedAt.IsZero())
	})
	t.Run("rejects_line_breaks_in_filename", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".migrated")
		s := history.NewFileStore(path)
		require.Error(t, s.Append(ctx, history.Record{Filename: "sql20180101_a\n.sql", AppliedAt: time.Now()}))
		require.Error(t, s.Append(ctx, history.Record{Filename: "sql20180101_a\r.sql", AppliedAt: time.Now()}))
		_, err := os.Stat(path)
		require.True(t, os.IsNotExist(err))
	})
	t.Run("empty_filename", func(t *testing.T) {
		t.Parallel()
		s := history.NewFileStore(filepath.Join(t.TempDir(), ".migrated"))
		require.Error(t, s.Append(ctx, history.Record{}))
	})
	t.Run("unwritable", func(t *testing.T) {
		t.Parallel()
		s := history.NewFileStore(filepath.Join(t.TempDir(), "missing-dir", ".migrated"))
		require.Error(t, s.Append(ctx, history.Record{Filename: "sql20180101_a.sql"}))
	})
	t.Run("default_path", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, history.DefaultLogFile, history.NewFileStore("").Path())
	})
}
