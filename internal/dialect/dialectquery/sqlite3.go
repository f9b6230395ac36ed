package dialectquery

import "fmt"

type Sqlite3 struct{}

var _ Querier = (*Sqlite3)(nil)

func (s *Sqlite3) CreateTable(table string) string {
	q := `CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT NOT NULL,
		applied_at TIMESTAMP NOT NULL
	)`
	return fmt.Sprintf(q, quoteANSI(table))
}

func (s *Sqlite3) InsertRecord(table string) string {
	q := `INSERT INTO %s (filename, applied_at) VALUES (?, ?)`
	return fmt.Sprintf(q, quoteANSI(table))
}

func (s *Sqlite3) ListRecords(table string) string {
	q := `SELECT filename, applied_at FROM %s ORDER BY id ASC`
	return fmt.Sprintf(q, quoteANSI(table))
}

// CreateDatabase is empty, the database file is created when it is opened.
func (s *Sqlite3) CreateDatabase(string) string { return "" }

func (s *Sqlite3) ListTables() string {
	return `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`
}

func (s *Sqlite3) DropTable(table string) []string {
	return []string{
		`PRAGMA foreign_keys = OFF`,
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteANSI(table)),
	}
}

// TryLock is empty, sqlite has no advisory locks.
func (s *Sqlite3) TryLock(int64) string { return "" }

func (s *Sqlite3) Unlock(int64) string { return "" }
