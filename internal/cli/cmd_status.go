package cli

import (
	"context"

	"github.com/sqlauto/sqlauto"
	"github.com/sqlauto/sqlauto/history"
	"github.com/sqlauto/sqlauto/internal/cfg"
	"go.uber.org/multierr"
)

type migrationsStatus struct {
	Migrations []migrationStatus `json:"migrations"`
	HasPending bool              `json:"has_pending"`
}

type migrationStatus struct {
	Filename  string `json:"filename"`
	Key       string `json:"key"`
	State     string `json:"state"`
	AppliedAt string `json:"applied_at"`
}

func execStatus(ctx context.Context, st *state, c cfg.Config, rf *rootFlags) (retErr error) {
	logger := st.newLogger(c)
	sess, err := st.openSession(c, logger)
	if err != nil {
		return err
	}
	defer func() {
		retErr = multierr.Append(retErr, sess.close())
	}()
	p, err := st.newProvider(c, sess, logger)
	if err != nil {
		return err
	}
	status, err := p.Status(ctx)
	if err != nil {
		return err
	}
	output := convertStatus(status)
	if rf.json {
		return st.writeJSON(output)
	}
	if len(output.Migrations) == 0 {
		_, err := st.stdout.Write([]byte("no migrations found\n"))
		return err
	}
	data := make([][]string, 0, len(output.Migrations))
	for _, m := range output.Migrations {
		appliedAt := m.AppliedAt
		if appliedAt == "" {
			appliedAt = "-"
		}
		data = append(data, []string{m.Filename, m.Key, m.State, appliedAt})
	}
	return renderTable(st.stdout, []string{"FILE", "KEY", "STATE", "APPLIED AT"}, data)
}

func convertStatus(status []*sqlauto.MigrationStatus) migrationsStatus {
	var output migrationsStatus
	output.Migrations = make([]migrationStatus, 0, len(status))
	for _, s := range status {
		m := migrationStatus{
			Filename: s.File.Name,
			Key:      s.File.Key.String(),
			State:    string(s.State),
		}
		if !s.AppliedAt.IsZero() {
			m.AppliedAt = s.AppliedAt.Format(history.TimeFormat)
		}
		if s.State == sqlauto.StatePending {
			output.HasPending = true
		}
		output.Migrations = append(output.Migrations, m)
	}
	return output
}
