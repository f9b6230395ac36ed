package sqlauto_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/sqlauto/sqlauto"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	t.Parallel()

	t.Run("filters_by_extension", func(t *testing.T) {
		fsys := fstest.MapFS{
			"sql20180101_a.sql":        {},
			"sql20180102_b.SQL":        {},
			"sql20180103_c.sql.bak":    {},
			"README.md":                {},
			"nested/sql20180104_d.sql": {},
			"sql00000000_init.sql":     {},
		}
		got, err := sqlauto.Catalog(fsys, "")
		require.NoError(t, err)
		require.Equal(t, []string{"sql00000000_init.sql", "sql20180101_a.sql"}, got)
	})
	t.Run("custom_extension", func(t *testing.T) {
		fsys := fstest.MapFS{
			"sql20180101_a.sql":   {},
			"sql20180101_a.mysql": {},
		}
		got, err := sqlauto.Catalog(fsys, ".mysql")
		require.NoError(t, err)
		require.Equal(t, []string{"sql20180101_a.mysql"}, got)
	})
	t.Run("directory_named_like_migration", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, "sql20180101_dir.sql"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "sql20180102_a.sql"), nil, 0o644))
		got, err := sqlauto.Catalog(os.DirFS(dir), ".sql")
		require.NoError(t, err)
		require.Equal(t, []string{"sql20180102_a.sql"}, got)
	})
	t.Run("missing_directory", func(t *testing.T) {
		_, err := sqlauto.Catalog(os.DirFS(filepath.Join(t.TempDir(), "missing")), ".sql")
		require.Error(t, err)
		require.True(t, errors.Is(err, sqlauto.ErrIO))
	})
	t.Run("nil_fs", func(t *testing.T) {
		_, err := sqlauto.Catalog(nil, ".sql")
		require.ErrorIs(t, err, sqlauto.ErrIO)
	})
}
