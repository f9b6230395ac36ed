// Package history records which migration files have been applied.
//
// The applied log is append-only: records are added after a file applies successfully and are
// never modified or deleted. Two stores are provided, a tab-delimited text file compatible with
// the classic .migrated log, and a table inside the target database. Both satisfy [Store], so the
// planner does not care where the log lives.
package history
