package dialectquery

import (
	"fmt"
	"strings"
)

type Mysql struct{}

var _ Querier = (*Mysql)(nil)

func (m *Mysql) CreateTable(table string) string {
	q := `CREATE TABLE IF NOT EXISTS %s (
		id bigint unsigned NOT NULL AUTO_INCREMENT,
		filename varchar(255) NOT NULL,
		applied_at datetime NOT NULL,
		PRIMARY KEY(id)
	)`
	return fmt.Sprintf(q, quoteMysql(table))
}

func (m *Mysql) InsertRecord(table string) string {
	q := `INSERT INTO %s (filename, applied_at) VALUES (?, ?)`
	return fmt.Sprintf(q, quoteMysql(table))
}

func (m *Mysql) ListRecords(table string) string {
	q := `SELECT filename, applied_at FROM %s ORDER BY id ASC`
	return fmt.Sprintf(q, quoteMysql(table))
}

func (m *Mysql) CreateDatabase(name string) string {
	return fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, quoteMysql(name))
}

func (m *Mysql) ListTables() string {
	return `SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'`
}

func (m *Mysql) DropTable(table string) []string {
	return []string{
		`SET FOREIGN_KEY_CHECKS=0`,
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteMysql(table)),
	}
}

func (m *Mysql) TryLock(id int64) string {
	return fmt.Sprintf(`SELECT GET_LOCK('sqlauto_%d', 0)`, id)
}

func (m *Mysql) Unlock(id int64) string {
	return fmt.Sprintf(`SELECT RELEASE_LOCK('sqlauto_%d')`, id)
}

func quoteMysql(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}
