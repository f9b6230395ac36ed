package history

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"go.uber.org/multierr"
)

const (
	// DefaultLogFile is the applied log written in the working directory.
	DefaultLogFile = ".migrated"

	delimiter = '\t'
)

// FileStore is a [Store] backed by a tab-delimited text file with two columns, filename and
// appliedAt. Fields are quoted with the usual CSV rules.
type FileStore struct {
	path string
	loc  *time.Location
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store that reads and appends to the file at path. The file is created on
// the first append.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultLogFile
	}
	return &FileStore{path: path, loc: time.Local}
}

// Path returns the location of the log file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(ctx context.Context) (map[string]bool, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return filenames(records), nil
}

// List reads the whole log. Lines are parsed independently so one malformed line does not hide
// the rest of the file; a malformed line contributes no record. Lines have no length limit. A
// timestamp that cannot be parsed leaves AppliedAt zero but keeps the filename.
func (s *FileStore) List(ctx context.Context) ([]Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open applied log %q: %w", s.path, err)
	}
	defer f.Close()

	var records []Record
	r := bufio.NewReader(f)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, readErr := r.ReadString('\n')
		if rec, ok := s.parseLine(line); ok {
			records = append(records, rec)
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return records, nil
			}
			return nil, fmt.Errorf("failed to read applied log %q: %w", s.path, readErr)
		}
	}
}

func (s *FileStore) parseLine(line string) (Record, bool) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return Record{}, false
	}
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	fields, err := r.Read()
	if err != nil || len(fields) == 0 || fields[0] == "" {
		return Record{}, false
	}
	rec := Record{Filename: fields[0]}
	if len(fields) > 1 {
		if t, err := time.ParseInLocation(TimeFormat, fields[1], s.loc); err == nil {
			rec.AppliedAt = t
		}
	}
	return rec, true
}

// Append writes one record at the end of the file, creating it if needed. Existing content is
// never truncated. The log is line oriented, so filenames containing line breaks are rejected.
func (s *FileStore) Append(ctx context.Context, rec Record) (retErr error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.Filename == "" {
		return errors.New("filename must not be empty")
	}
	if strings.ContainsAny(rec.Filename, "\r\n") {
		return fmt.Errorf("filename %q must not contain line breaks", rec.Filename)
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open applied log %q: %w", s.path, err)
	}
	defer func() {
		retErr = multierr.Append(retErr, f.Close())
	}()
	if err := writeRecord(f, rec); err != nil {
		return fmt.Errorf("failed to append to applied log %q: %w", s.path, err)
	}
	return nil
}

func writeRecord(w io.Writer, rec Record) error {
	cw := csv.NewWriter(w)
	cw.Comma = delimiter
	if err := cw.Write([]string{rec.Filename, rec.AppliedAt.Format(TimeFormat)}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
