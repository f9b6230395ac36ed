package cli

import (
	"context"
	"fmt"

	"github.com/mfridman/xflag"
	"github.com/sqlauto/sqlauto/internal/cfg"
)

type commandFunc func(ctx context.Context, st *state, c cfg.Config, rf *rootFlags) error

var commandFuncs = map[string]commandFunc{
	"up":     execUp,
	"status": execStatus,
	"plan":   execPlan,
	"env":    execEnv,
}

func run(ctx context.Context, args []string, opts ...Options) (retErr error) {
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("panic: %v", r)
		}
	}()
	st, err := newStateWithDefaults(opts...)
	if err != nil {
		return err
	}

	rf := &rootFlags{}
	fs := newFlagSet(rf)
	fs.SetOutput(st.stderr)
	fs.Usage = func() { printUsage(st.stderr, fs) }
	// Flags may appear before or after the command.
	if err := xflag.ParseToEnd(fs, args); err != nil {
		return err
	}
	if rf.help {
		printUsage(st.stdout, fs)
		return nil
	}
	name := "up"
	if fs.NArg() > 0 {
		name = fs.Arg(0)
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("too many arguments: %q", fs.Args()[1:])
	}
	if name == "version" {
		fmt.Fprintf(st.stdout, "sqlauto version: %s\n", st.version)
		return nil
	}
	fn, ok := commandFuncs[name]
	if !ok {
		return fmt.Errorf("unknown command %q, see sqlauto --help", name)
	}

	env, err := cfg.Env(st.environ, rf.envFile)
	if err != nil {
		return err
	}
	c, err := cfg.Resolve(rf.layer(), cfg.Constants(st.constants), env)
	if err != nil {
		return err
	}
	return fn(ctx, st, c, rf)
}
