package sqlauto

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig is returned when a required setting is missing or invalid. It is always raised
	// before any side effect.
	ErrConfig = errors.New("invalid configuration")

	// ErrIO is returned when the migration directory cannot be read or the applied log cannot be
	// written.
	ErrIO = errors.New("i/o error")

	// ErrDatabaseConnect is returned when the target database cannot be reached, created or
	// emptied.
	ErrDatabaseConnect = errors.New("database connect error")

	// ErrApply is returned when a migration file fails to apply.
	ErrApply = errors.New("apply error")

	// ErrNoExecutor is returned by [NewProvider] when the executor is nil.
	ErrNoExecutor = errors.New("executor must not be nil")
)

// PartialError is returned when a migration fails, but some migrations already got applied. The
// applied migrations are recorded in the applied log; the failed migration and every migration
// after it are not.
type PartialError struct {
	// Applied are migrations that were applied successfully before the error occurred. May be
	// empty.
	Applied []*MigrationResult
	// Failed contains the result of the migration that failed. Cannot be nil.
	Failed *MigrationResult
	// Err is the error that occurred while running the migration and caused the failure. It wraps
	// [ErrApply] when the script failed, or [ErrIO] when the applied log could not be written.
	Err error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("partial migration error (file:%s, applied:%d): %v",
		e.Failed.File.Name, len(e.Applied), e.Err,
	)
}

func (e *PartialError) Unwrap() error {
	return e.Err
}
