package sqlauto

import (
	"context"
	"io"
)

// Executor runs one migration script against the target database.
//
// Exec must return a non-nil error when the script did not apply cleanly, for example when the
// database client exits with a non-zero status. name is the migration filename and is only used
// for reporting.
type Executor interface {
	Exec(ctx context.Context, name string, script io.Reader) error
}

// ExecutorFunc is an adapter to allow the use of an ordinary function as an [Executor].
type ExecutorFunc func(ctx context.Context, name string, script io.Reader) error

func (f ExecutorFunc) Exec(ctx context.Context, name string, script io.Reader) error {
	return f(ctx, name, script)
}
