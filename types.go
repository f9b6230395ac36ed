package sqlauto

import (
	"fmt"
	"time"
)

// KeyKind is the kind of a SequenceKey.
type KeyKind int

const (
	// KindDated is a key parsed from a valid YYYYMMDD date token.
	KindDated KeyKind = iota + 1
	// KindBootstrap is the reserved all-zero token. Bootstrap files always run first.
	KindBootstrap
)

func (k KeyKind) String() string {
	switch k {
	case KindDated:
		return "dated"
	case KindBootstrap:
		return "bootstrap"
	default:
		// This should never happen.
		return fmt.Sprintf("unknown (%d)", k)
	}
}

// SequenceKey determines where a migration file sorts in the apply order.
type SequenceKey struct {
	Kind KeyKind
	// Date is only set when Kind is KindDated.
	Date time.Time
}

// Dated returns a key for the given calendar date.
func Dated(date time.Time) SequenceKey {
	return SequenceKey{Kind: KindDated, Date: date}
}

// Bootstrap returns the reserved key for the init script.
func Bootstrap() SequenceKey {
	return SequenceKey{Kind: KindBootstrap}
}

func (k SequenceKey) String() string {
	if k.Kind == KindDated {
		return k.Date.Format(dateLayout)
	}
	return k.Kind.String()
}

// MigrationFile is a single migration discovered on the filesystem.
type MigrationFile struct {
	// Name is the base filename, for example sql20180912_add_users.sql. It is unique within the
	// migration directory and is the value recorded in the applied log.
	Name string
	Key  SequenceKey
}

// State represents the state of a migration.
type State string

const (
	// StatePending represents a migration that is on the filesystem, but not in the applied log.
	StatePending State = "pending"
	// StateApplied represents a migration that is in BOTH the applied log and on the filesystem.
	StateApplied State = "applied"
)

// MigrationStatus represents the status of a single migration.
type MigrationStatus struct {
	File  MigrationFile
	State State
	// AppliedAt is the time the migration was applied. Only set if state is [StateApplied] and the
	// log recorded a parseable timestamp.
	AppliedAt time.Time
}

// MigrationResult is the result of a single migration operation.
//
// Note, the caller is responsible for checking the Error field for any errors that occurred while
// running the migration. If the Error field is not nil, the migration failed.
type MigrationResult struct {
	File MigrationFile
	// AppliedAt is the timestamp written to the applied log. Zero if the migration failed.
	AppliedAt time.Time
	Duration  time.Duration
	// Error is any error that occurred while running the migration.
	Error error
}

func (r *MigrationResult) String() string {
	state := "OK"
	if r.Error != nil {
		state = "FAILED"
	}
	return fmt.Sprintf("%-6s %s (%s)", state, r.File.Name, r.Duration.Truncate(time.Millisecond))
}
