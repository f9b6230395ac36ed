package sqlauto

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/sqlauto/sqlauto/history"
)

// Apply runs files in the given order, strictly one after the other.
//
// Each file is read from fsys and handed to exec. On success a record with the current clock time
// is appended to store before the next file starts, so a crash mid-run keeps every earlier success
// recorded. The first failure stops the run: the failing file is not recorded, the remaining files
// are not attempted, and a [*PartialError] is returned.
//
// If files is empty, Apply returns nil with no error.
func Apply(
	ctx context.Context,
	files []MigrationFile,
	fsys fs.FS,
	exec Executor,
	store history.Store,
	clock func() time.Time,
) ([]*MigrationResult, error) {
	a := &applier{
		fsys:   fsys,
		exec:   exec,
		store:  store,
		clock:  clock,
		logger: slog.New(slog.DiscardHandler),
	}
	return a.run(ctx, files)
}

type applier struct {
	fsys   fs.FS
	exec   Executor
	store  history.Store
	clock  func() time.Time
	logger *slog.Logger
}

func (a *applier) run(ctx context.Context, files []MigrationFile) ([]*MigrationResult, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if a.exec == nil {
		return nil, ErrNoExecutor
	}
	if a.store == nil {
		return nil, fmt.Errorf("%w: applied log must not be nil", ErrConfig)
	}
	if a.clock == nil {
		a.clock = time.Now
	}
	var results []*MigrationResult
	for _, f := range files {
		current := &MigrationResult{File: f}
		a.logger.DebugContext(ctx, "applying migration", slog.String("file", f.Name))

		start := time.Now()
		err := a.applyOne(ctx, current)
		current.Duration = time.Since(start)
		if err != nil {
			current.Error = err
			a.logger.ErrorContext(ctx, "migration failed",
				slog.String("file", f.Name),
				slog.Any("error", err),
			)
			return nil, &PartialError{
				Applied: results,
				Failed:  current,
				Err:     err,
			}
		}
		a.logger.InfoContext(ctx, "applied migration",
			slog.String("file", f.Name),
			slog.Duration("duration", current.Duration),
		)
		results = append(results, current)
	}
	return results, nil
}

func (a *applier) applyOne(ctx context.Context, result *MigrationResult) error {
	name := result.File.Name
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrApply, name, err)
	}
	f, err := a.fsys.Open(name)
	if err != nil {
		return fmt.Errorf("%w: failed to open %s: %w", ErrIO, name, err)
	}
	defer f.Close()
	if err := a.exec.Exec(ctx, name, f); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrApply, name, err)
	}
	rec := history.Record{Filename: name, AppliedAt: a.clock()}
	if err := a.store.Append(ctx, rec); err != nil {
		return fmt.Errorf("%w: %s applied but not recorded: %w", ErrIO, name, err)
	}
	result.AppliedAt = rec.AppliedAt
	return nil
}
