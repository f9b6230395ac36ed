package cli

import (
	"flag"

	"github.com/sqlauto/sqlauto/internal/cfg"
)

// rootFlags holds the raw command line values. Unset flags stay empty so lower layers can fill
// them in.
type rootFlags struct {
	values  map[cfg.Key]*string
	envFile string
	json    bool
	help    bool
}

func newFlagSet(rf *rootFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("sqlauto", flag.ContinueOnError)
	rf.values = make(map[cfg.Key]*string)
	str := func(k cfg.Key, usage string) {
		rf.values[k] = fs.String(string(k), "", usage)
	}
	boolean := func(k cfg.Key, usage string) {
		v := new(string)
		rf.values[k] = v
		fs.Var((*optionalBool)(v), string(k), usage)
	}
	str(cfg.Host, "database host")
	str(cfg.Port, "database port (default 3306 for mysql, 5432 for postgres)")
	str(cfg.User, "database user")
	str(cfg.Password, "database password")
	str(cfg.Database, "database name, or the database file for sqlite")
	boolean(cfg.ForceReload, "apply every migration, ignoring the applied log (1 or 0)")
	boolean(cfg.DropTables, "drop every table before applying migrations (1 or 0)")
	str(cfg.Dir, "directory with migration files (default \""+cfg.DefaultDir+"\")")
	str(cfg.LogFile, "applied log file for --history=file (default \".migrated\")")
	str(cfg.Dialect, "database dialect: mysql, postgres or sqlite3 (default \"mysql\")")
	str(cfg.Executor, "how scripts are run: client (mysql binary) or driver (database/sql) (default \"client\")")
	str(cfg.History, "where applied migrations are recorded: file or table (default \"file\")")
	str(cfg.Lock, "lock held while migrating: file, session or none (default \"file\")")
	str(cfg.ClientBin, "mysql client binary for --executor=client (default \"mysql\")")
	boolean(cfg.Verbose, "enable debug logging")
	fs.StringVar(&rf.envFile, "env-file", "", "read environment variables from this file (default \".env\")")
	fs.BoolVar(&rf.json, "json", false, "print status and plan as JSON")
	fs.BoolVar(&rf.help, "help", false, "print help and exit")
	fs.BoolVar(&rf.help, "h", false, "print help and exit")
	return fs
}

func (rf *rootFlags) layer() cfg.Layer {
	values := make(map[cfg.Key]string, len(rf.values))
	for k, v := range rf.values {
		values[k] = *v
	}
	return cfg.Flags(values)
}

// optionalBool is a string flag that may be given without a value: --forceload means true, while
// --forceload=0 is an explicit false. Left unset it stays empty.
type optionalBool string

func (b *optionalBool) String() string {
	if b == nil {
		return ""
	}
	return string(*b)
}

func (b *optionalBool) Set(s string) error {
	if _, err := cfg.ParseBool(s); err != nil {
		return err
	}
	*b = optionalBool(s)
	return nil
}

func (b *optionalBool) IsBoolFlag() bool { return true }

var _ flag.Value = (*optionalBool)(nil)
