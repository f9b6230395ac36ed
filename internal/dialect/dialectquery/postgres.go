package dialectquery

import (
	"fmt"
	"strings"
)

type Postgres struct{}

var _ Querier = (*Postgres)(nil)

func (p *Postgres) CreateTable(table string) string {
	q := `CREATE TABLE IF NOT EXISTS %s (
		id bigserial NOT NULL,
		filename text NOT NULL,
		applied_at timestamp NOT NULL,
		PRIMARY KEY(id)
	)`
	return fmt.Sprintf(q, quoteANSI(table))
}

func (p *Postgres) InsertRecord(table string) string {
	q := `INSERT INTO %s (filename, applied_at) VALUES ($1, $2)`
	return fmt.Sprintf(q, quoteANSI(table))
}

func (p *Postgres) ListRecords(table string) string {
	q := `SELECT filename, applied_at FROM %s ORDER BY id ASC`
	return fmt.Sprintf(q, quoteANSI(table))
}

// CreateDatabase has no IF NOT EXISTS form in postgres, callers check DatabaseExists first.
func (p *Postgres) CreateDatabase(name string) string {
	return fmt.Sprintf(`CREATE DATABASE %s`, quoteANSI(name))
}

// DatabaseExists returns the query used to check for a database before creating it.
func (p *Postgres) DatabaseExists() string {
	return `SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`
}

func (p *Postgres) ListTables() string {
	return `SELECT tablename FROM pg_tables WHERE schemaname = current_schema()`
}

func (p *Postgres) DropTable(table string) []string {
	return []string{fmt.Sprintf(`DROP TABLE IF EXISTS %s CASCADE`, quoteANSI(table))}
}

func (p *Postgres) TryLock(id int64) string {
	return fmt.Sprintf(`SELECT pg_try_advisory_lock(%d)`, id)
}

func (p *Postgres) Unlock(id int64) string {
	return fmt.Sprintf(`SELECT pg_advisory_unlock(%d)`, id)
}

func quoteANSI(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
