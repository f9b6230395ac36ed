package sqlauto

import (
	"fmt"
	"io/fs"
	"strings"
)

// DefaultExtension is the suffix a file must carry to be treated as a migration.
const DefaultExtension = ".sql"

// Catalog lists the migration files at the root of fsys. Only regular files whose name ends with
// ext are returned; the match is case-sensitive. Subdirectories and other files are ignored.
//
// The names are returned in directory order (lexical, see [fs.ReadDir]), which is the input order
// used to break ties when ordering.
//
// A missing or unreadable directory is reported as [ErrIO].
func Catalog(fsys fs.FS, ext string) ([]string, error) {
	if fsys == nil {
		return nil, fmt.Errorf("%w: no migration directory", ErrIO)
	}
	if ext == "" {
		ext = DefaultExtension
	}
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read migration directory: %w", ErrIO, err)
	}
	var names []string
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		if !isRegular(fsys, entry) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// isRegular reports whether entry is a regular file, following symlinks.
func isRegular(fsys fs.FS, entry fs.DirEntry) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.Type().IsRegular()
	}
	info, err := fs.Stat(fsys, entry.Name())
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
