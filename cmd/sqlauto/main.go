package main

import (
	"github.com/sqlauto/sqlauto/internal/cfg"
	"github.com/sqlauto/sqlauto/internal/cli"
)

// Set at build time, for example:
//
//	go build -ldflags "-X main.mysqlHost=db.internal -X main.mysqlDatabase=app" ./cmd/sqlauto
//
// Values set here rank below command line flags and above the environment.
var (
	version = ""

	mysqlHost     = ""
	mysqlPort     = ""
	mysqlUser     = ""
	mysqlPassword = ""
	mysqlDatabase = ""
	forceLoad     = ""
	dropTables    = ""
)

func main() {
	cli.Main(
		cli.WithVersion(version),
		cli.WithConstants(map[cfg.Key]string{
			cfg.Host:        mysqlHost,
			cfg.Port:        mysqlPort,
			cfg.User:        mysqlUser,
			cfg.Password:    mysqlPassword,
			cfg.Database:    mysqlDatabase,
			cfg.ForceReload: forceLoad,
			cfg.DropTables:  dropTables,
		}),
	)
}
