package sqlauto_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sqlauto/sqlauto"
	"github.com/sqlauto/sqlauto/history"
	"github.com/stretchr/testify/require"
)

// brokenStore fails every operation.
type brokenStore struct{ err error }

func (s brokenStore) Load(context.Context) (map[string]bool, error)  { return nil, s.err }
func (s brokenStore) Append(context.Context, history.Record) error   { return s.err }
func (s brokenStore) List(context.Context) ([]history.Record, error) { return nil, s.err }

func TestPlan(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("empty_log_returns_all_candidates", func(t *testing.T) {
		got, err := sqlauto.Plan(ctx, newFS(), sqlauto.DefaultExtension, newLog(t), false)
		require.NoError(t, err)
		require.Len(t, got, 3)
	})
	t.Run("excludes_exactly_the_logged_names", func(t *testing.T) {
		log := newLog(t)
		for _, name := range []string{"sql00000000_init.sql", "sql20180101_a.sql", "sql19990101_unknown.sql"} {
			require.NoError(t, log.Append(ctx, history.Record{Filename: name, AppliedAt: time.Now()}))
		}
		got, err := sqlauto.Plan(ctx, newFS(), sqlauto.DefaultExtension, log, false)
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "sql20171231_b.sql", got[0].Name)
	})
	t.Run("force_reload_ignores_log", func(t *testing.T) {
		got, err := sqlauto.Plan(ctx, newFS(), sqlauto.DefaultExtension, brokenStore{err: errors.New("boom")}, true)
		require.NoError(t, err)
		require.Len(t, got, 3)
	})
	t.Run("broken_log", func(t *testing.T) {
		_, err := sqlauto.Plan(ctx, newFS(), sqlauto.DefaultExtension, brokenStore{err: errors.New("boom")}, false)
		require.ErrorIs(t, err, sqlauto.ErrIO)
	})
	t.Run("deterministic", func(t *testing.T) {
		log := newLog(t)
		first, err := sqlauto.Plan(ctx, newFS(), sqlauto.DefaultExtension, log, false)
		require.NoError(t, err)
		second, err := sqlauto.Plan(ctx, newFS(), sqlauto.DefaultExtension, log, false)
		require.NoError(t, err)
		require.Equal(t, first, second)
	})
}
