package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sqlauto/sqlauto/internal/dialect"
	"github.com/sqlauto/sqlauto/internal/dialect/dialectquery"
)

// DefaultTableName is the table used by [TableStore] when none is given.
const DefaultTableName = "sqlauto_migrated"

// TableStore is a [Store] backed by a table in the target database. The table is created on first
// use.
type TableStore struct {
	db      *sql.DB
	table   string
	querier dialectquery.Querier

	mu      sync.Mutex
	ensured bool
}

var _ Store = (*TableStore)(nil)

// NewTableStore returns a new [Store] backed by the given dialect.
func NewTableStore(db *sql.DB, d dialect.Dialect, table string) (*TableStore, error) {
	if db == nil {
		return nil, errors.New("db must not be nil")
	}
	if table == "" {
		table = DefaultTableName
	}
	querier, err := dialectquery.New(d)
	if err != nil {
		return nil, err
	}
	return &TableStore{
		db:      db,
		table:   table,
		querier: querier,
	}, nil
}

// Tablename is the table used to record applied migrations.
func (s *TableStore) Tablename() string {
	return s.table
}

func (s *TableStore) ensureTable(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, s.querier.CreateTable(s.table)); err != nil {
		return fmt.Errorf("failed to create applied log table %q: %w", s.table, err)
	}
	s.ensured = true
	return nil
}

func (s *TableStore) Load(ctx context.Context) (map[string]bool, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return filenames(records), nil
}

func (s *TableStore) Append(ctx context.Context, rec Record) error {
	if rec.Filename == "" {
		return errors.New("filename must not be empty")
	}
	if err := s.ensureTable(ctx); err != nil {
		return err
	}
	q := s.querier.InsertRecord(s.table)
	if _, err := s.db.ExecContext(ctx, q, rec.Filename, rec.AppliedAt.UTC()); err != nil {
		return fmt.Errorf("failed to insert %q: %w", rec.Filename, err)
	}
	return nil
}

func (s *TableStore) List(ctx context.Context) ([]Record, error) {
	if err := s.ensureTable(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.querier.ListRecords(s.table))
	if err != nil {
		return nil, fmt.Errorf("failed to list applied migrations: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			filename  string
			appliedAt any
		)
		if err := rows.Scan(&filename, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan applied migration: %w", err)
		}
		records = append(records, Record{
			Filename:  filename,
			AppliedAt: toTime(appliedAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// toTime converts a scanned timestamp column. Drivers disagree on the Go type they return, so
// text values are parsed with the common layouts; anything else yields the zero time.
func toTime(v any) time.Time {
	var s string
	switch t := v.(type) {
	case time.Time:
		return t.Local()
	case []byte:
		s = string(t)
	case string:
		s = t
	default:
		return time.Time{}
	}
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		time.RFC3339Nano,
		TimeFormat,
	} {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.Local()
		}
	}
	return time.Time{}
}
