package sqlauto

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/sqlauto/sqlauto/history"
	"go.uber.org/multierr"
)

// NewProvider returns a new sqlauto Provider.
//
// exec runs each migration script against the target database. fsys is the filesystem holding the
// migration files at its root; most users will want os.DirFS("sqlauto").
//
// See [ProviderOption] for more information on configuring the provider.
//
// Unless otherwise specified, all methods on Provider are safe for concurrent use.
func NewProvider(exec Executor, fsys fs.FS, opts ...ProviderOption) (*Provider, error) {
	if exec == nil {
		return nil, ErrNoExecutor
	}
	if fsys == nil {
		return nil, errors.New("fsys must not be nil")
	}
	var cfg config
	for _, opt := range opts {
		if err := opt.apply(&cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfig, err)
		}
	}
	// Set defaults after applying user-supplied options so option funcs can check for empty values.
	if cfg.store == nil {
		cfg.store = history.NewFileStore(history.DefaultLogFile)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	if cfg.ext == "" {
		cfg.ext = DefaultExtension
	}
	if cfg.clock == nil {
		cfg.clock = time.Now
	}
	return &Provider{
		exec: exec,
		fsys: fsys,
		cfg:  cfg,
	}, nil
}

// Provider is a sqlauto migration provider.
type Provider struct {
	// mu protects all accesses to the provider and must be held when calling operations on the
	// applied log or the executor.
	mu sync.Mutex

	exec Executor
	fsys fs.FS
	cfg  config
}

// Sources returns every migration candidate in apply order.
func (p *Provider) Sources() ([]MigrationFile, error) {
	names, err := Catalog(p.fsys, p.cfg.ext)
	if err != nil {
		return nil, err
	}
	for _, name := range skipped(names) {
		p.cfg.logger.Debug("ignoring file without a valid date token", slog.String("file", name))
	}
	return Order(names), nil
}

// Plan returns the migrations Up would apply, in order, without applying anything.
func (p *Provider) Plan(ctx context.Context) ([]MigrationFile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plan(ctx)
}

func (p *Provider) plan(ctx context.Context) ([]MigrationFile, error) {
	candidates, err := p.Sources()
	if err != nil {
		return nil, err
	}
	if p.cfg.forceReload {
		p.cfg.logger.DebugContext(ctx, "force reload, ignoring applied log")
	}
	return resolvePending(ctx, candidates, p.cfg.store, p.cfg.forceReload)
}

// Up applies all pending migrations in order. When a locker is configured the lock is held for
// the whole plan and apply.
//
// If a migration fails, Up returns a [*PartialError] listing the migrations applied before it. If
// there is nothing to apply, Up returns no results and no error.
func (p *Provider) Up(ctx context.Context) (_ []*MigrationResult, retErr error) {
	cleanup, err := p.initialize(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		retErr = multierr.Append(retErr, cleanup())
	}()

	files, err := p.plan(ctx)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		p.cfg.logger.InfoContext(ctx, "no migrations to apply")
		return nil, nil
	}
	p.cfg.logger.InfoContext(ctx, "applying migrations", slog.Int("count", len(files)))
	a := &applier{
		fsys:   p.fsys,
		exec:   p.exec,
		store:  p.cfg.store,
		clock:  p.cfg.clock,
		logger: p.cfg.logger,
	}
	return a.run(ctx, files)
}

// Status returns every migration candidate with its state. The returned items are in apply order.
func (p *Provider) Status(ctx context.Context) ([]*MigrationStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	candidates, err := p.Sources()
	if err != nil {
		return nil, err
	}
	records, err := p.cfg.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load applied log: %w", ErrIO, err)
	}
	// A file applied more than once (force reload) reports its latest timestamp.
	appliedAt := make(map[string]time.Time, len(records))
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		seen[r.Filename] = true
		if r.AppliedAt.After(appliedAt[r.Filename]) {
			appliedAt[r.Filename] = r.AppliedAt
		}
	}
	status := make([]*MigrationStatus, 0, len(candidates))
	for _, f := range candidates {
		st := &MigrationStatus{File: f, State: StatePending}
		if seen[f.Name] {
			st.State = StateApplied
			st.AppliedAt = appliedAt[f.Name]
		}
		status = append(status, st)
	}
	return status, nil
}

func (p *Provider) initialize(ctx context.Context) (func() error, error) {
	p.mu.Lock()
	cleanup := func() error {
		p.mu.Unlock()
		return nil
	}
	l := p.cfg.locker
	if l == nil {
		return cleanup, nil
	}
	if err := l.Lock(ctx); err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to acquire lock: %w", err), cleanup())
	}
	p.cfg.logger.DebugContext(ctx, "lock acquired")
	return func() error {
		defer p.mu.Unlock()
		// Use a detached context to unlock. The context passed to Lock may have been canceled, and
		// we don't want to cancel the unlock.
		if err := l.Unlock(context.WithoutCancel(ctx)); err != nil {
			return fmt.Errorf("failed to release lock: %w", err)
		}
		p.cfg.logger.DebugContext(ctx, "lock released")
		return nil
	}, nil
}
