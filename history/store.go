package history

import (
	"context"
	"time"
)

// TimeFormat is the layout of the appliedAt column.
const TimeFormat = "2006-01-02 15:04:05"

// Record is one successfully applied migration file.
type Record struct {
	Filename  string
	AppliedAt time.Time
}

// Store is an append-only log of applied migration files.
//
// Filenames are expected to be unique in a healthy log but this is not enforced; callers only ask
// whether a filename is present.
type Store interface {
	// Load returns the set of filenames found in the log. A log that does not exist yet is empty,
	// not an error.
	Load(ctx context.Context) (map[string]bool, error)

	// Append adds one record to the end of the log. Existing records are never rewritten.
	Append(ctx context.Context, rec Record) error

	// List returns every record in log order.
	List(ctx context.Context) ([]Record, error)
}

// filenames collects the filename column of records into a set.
func filenames(records []Record) map[string]bool {
	set := make(map[string]bool, len(records))
	for _, r := range records {
		set[r.Filename] = true
	}
	return set
}
