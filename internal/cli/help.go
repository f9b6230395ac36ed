package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sqlauto/sqlauto/internal/cfg"
)

type command struct {
	name        string
	description string
}

var commands = []command{
	{"up", "Apply every pending migration (default)"},
	{"status", "List migrations and whether they are applied"},
	{"plan", "List pending migrations in apply order without applying them"},
	{"env", "Print the resolved configuration"},
	{"version", "Print the sqlauto version"},
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprint(w, usagePrefix)
	tw := tabwriter.NewWriter(w, 0, 0, 4, ' ', 0)
	for _, c := range commands {
		fmt.Fprintf(tw, "    %s\t%s\n", c.name, c.description)
	}
	tw.Flush()

	fmt.Fprint(w, "\nOptions:\n")
	fs.SetOutput(w)
	fs.PrintDefaults()

	fmt.Fprint(w, "\nEnvironment:\n")
	tw = tabwriter.NewWriter(w, 0, 0, 4, ' ', 0)
	fs.VisitAll(func(f *flag.Flag) {
		names := cfg.EnvNames(cfg.Key(f.Name))
		if len(names) == 0 {
			return
		}
		fmt.Fprintf(tw, "    --%s\t%s\n", f.Name, strings.Join(names, ", "))
	})
	tw.Flush()
	fmt.Fprint(w, usageSuffix)
}

const usagePrefix = `Usage: sqlauto [OPTIONS] [COMMAND]

Applies the SQL files of the migration directory that are not yet in the applied log, in date
order. Files are named <marker><YYYYMMDD>_<description>.sql, for example sql20180912_add_users.sql;
the init script sql00000000_init.sql always runs first.

Commands:
`

const usageSuffix = `
Settings are resolved in order: command line flags, values compiled into the binary, the
environment, then the env file.

Examples:
    sqlauto --host=localhost --user=root --password=secret --database=app
    sqlauto --database=app --forceload=1 --droptables=1
    HOST=localhost USER=root DB=app sqlauto status
    sqlauto --dialect=sqlite3 --executor=driver --database=app.db plan
`
