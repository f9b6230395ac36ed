package sqlauto

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/sqlauto/sqlauto/history"
)

// Sources returns the ordered migration candidates found at the root of fsys. Files with the wrong
// extension or without a valid date token are not candidates.
func Sources(fsys fs.FS, ext string) ([]MigrationFile, error) {
	names, err := Catalog(fsys, ext)
	if err != nil {
		return nil, err
	}
	return Order(names), nil
}

// Plan returns the files that still need to be applied, in apply order.
//
// With forceReload every candidate is returned and the store is not consulted. Otherwise
// candidates whose filename is already in the store are removed. Plan has no side effects.
func Plan(ctx context.Context, fsys fs.FS, ext string, store history.Store, forceReload bool) ([]MigrationFile, error) {
	candidates, err := Sources(fsys, ext)
	if err != nil {
		return nil, err
	}
	return resolvePending(ctx, candidates, store, forceReload)
}

func resolvePending(
	ctx context.Context,
	candidates []MigrationFile,
	store history.Store,
	forceReload bool,
) ([]MigrationFile, error) {
	if forceReload {
		return candidates, nil
	}
	if store == nil {
		return nil, fmt.Errorf("%w: applied log must not be nil", ErrConfig)
	}
	applied, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load applied log: %w", ErrIO, err)
	}
	var out []MigrationFile
	for _, f := range candidates {
		if !applied[f.Name] {
			out = append(out, f)
		}
	}
	return out, nil
}
