package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/sqlauto/sqlauto/internal/cfg"
	"go.uber.org/multierr"
)

// execUp prepares the database and applies every pending migration. The database is created if it
// is missing and, when requested, emptied before planning. The applied log table survives the drop.
// The migration directory is read first so a bad directory fails before the database is touched.
func execUp(ctx context.Context, st *state, c cfg.Config, rf *rootFlags) (retErr error) {
	logger := st.newLogger(c)
	sess, err := st.openSession(c, logger)
	if err != nil {
		return err
	}
	defer func() {
		retErr = multierr.Append(retErr, sess.close())
	}()
	p, err := st.newProvider(c, sess, logger)
	if err != nil {
		return err
	}

	if _, err := p.Sources(); err != nil {
		return err
	}
	if err := sess.admin.CreateDatabase(ctx); err != nil {
		return err
	}
	if c.DropTables {
		logger.WarnContext(ctx, "dropping all tables", slog.String("database", c.Database))
		if err := sess.admin.DropTables(ctx, sess.keepTables...); err != nil {
			return err
		}
		if !c.ForceReload {
			logger.WarnContext(ctx, "tables dropped but the applied log is kept, pass --forceload to apply every migration again")
		}
	}

	start := time.Now()
	results, err := p.Up(ctx)
	return st.printResults(results, err, time.Since(start), rf.json)
}
