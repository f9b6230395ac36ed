package cli

import (
	"context"
	"fmt"

	"github.com/sqlauto/sqlauto/internal/cfg"
	"go.uber.org/multierr"
)

type planOutput struct {
	Pending []string `json:"pending"`
}

// execPlan prints the migrations up would apply, in order. It reads the applied log but never runs
// a script.
func execPlan(ctx context.Context, st *state, c cfg.Config, rf *rootFlags) (retErr error) {
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
	files, err := p.Plan(ctx)
	if err != nil {
		return err
	}
	output := planOutput{Pending: make([]string, 0, len(files))}
	for _, f := range files {
		output.Pending = append(output.Pending, f.Name)
	}
	if rf.json {
		return st.writeJSON(output)
	}
	if len(files) == 0 {
		fmt.Fprintln(st.stdout, "no migrations to run")
		return nil
	}
	for _, name := range output.Pending {
		fmt.Fprintln(st.stdout, name)
	}
	return nil
}
