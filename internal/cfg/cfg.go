// Package cfg resolves the run configuration from command line flags, build-time constants and the
// environment.
package cfg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/sqlauto/sqlauto"
	"github.com/sqlauto/sqlauto/history"
	"github.com/sqlauto/sqlauto/internal/dialect"
)

// Key names a single setting.
type Key string

const (
	Host        Key = "host"
	Port        Key = "port"
	User        Key = "user"
	Password    Key = "password"
	Database    Key = "database"
	ForceReload Key = "forceload"
	DropTables  Key = "droptables"
	Dir         Key = "dir"
	LogFile     Key = "log-file"
	Dialect     Key = "dialect"
	Executor    Key = "executor"
	History     Key = "history"
	Lock        Key = "lock"
	ClientBin   Key = "mysql-bin"
	Verbose     Key = "verbose"
	NoColor     Key = "no-color"
)

// envNames maps each setting to its environment variables, checked in order. The short names are
// the ones older deploy scripts set; the SQLAUTO_ prefixed names win so that a stray USER or
// HOST from the login shell can be overridden.
var envNames = map[Key][]string{
	Host:        {"SQLAUTO_HOST", "HOST"},
	Port:        {"SQLAUTO_PORT", "PORT"},
	User:        {"SQLAUTO_USER", "USER"},
	Password:    {"SQLAUTO_PASSWORD", "PASS"},
	Database:    {"SQLAUTO_DATABASE", "DB"},
	ForceReload: {"SQLAUTO_FORCELOAD", "FORCELOAD"},
	DropTables:  {"SQLAUTO_DROP_TABLES", "DROP_TABLES"},
	Dir:         {"SQLAUTO_DIR"},
	LogFile:     {"SQLAUTO_LOG_FILE"},
	Dialect:     {"SQLAUTO_DIALECT"},
	Executor:    {"SQLAUTO_EXECUTOR"},
	History:     {"SQLAUTO_HISTORY"},
	Lock:        {"SQLAUTO_LOCK"},
	ClientBin:   {"SQLAUTO_MYSQL_BIN"},
	Verbose:     {"SQLAUTO_VERBOSE"},
	// https://no-color.org/
	NoColor: {"NO_COLOR"},
}

// EnvNames returns the environment variables consulted for k.
func EnvNames(k Key) []string {
	return envNames[k]
}

const (
	DefaultDir     = "sqlauto"
	DefaultEnvFile = ".env"
	// xdgEnvFile is looked up under $XDG_CONFIG_HOME and $XDG_CONFIG_DIRS when no env file is given
	// and ./.env does not exist.
	xdgEnvFile = "sqlauto/sqlauto.env"
)

// Executor kinds.
const (
	ExecutorClient = "client"
	ExecutorDriver = "driver"
)

// History kinds.
const (
	HistoryFile  = "file"
	HistoryTable = "table"
)

// Lock modes.
const (
	LockFile    = "file"
	LockSession = "session"
	LockNone    = "none"
)

// Layer supplies raw values for some settings. Layers are consulted in order and the first
// non-empty value wins.
type Layer struct {
	Name   string
	Values map[Key]string
}

func (l Layer) lookup(k Key) (string, bool) {
	v, ok := l.Values[k]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// Flags returns the layer for values given on the command line.
func Flags(values map[Key]string) Layer {
	return Layer{Name: "flags", Values: values}
}

// Constants returns the layer for values compiled into the binary.
func Constants(values map[Key]string) Layer {
	return Layer{Name: "constants", Values: values}
}

// Env returns the layer built from the environment. environ is in os.Environ form. Variables read
// from envFile fill in anything the process environment does not set. An empty envFile means
// ./.env, falling back to sqlauto/sqlauto.env in the XDG config directories; neither has to
// exist. An explicitly named file must exist.
func Env(environ []string, envFile string) (Layer, error) {
	vars := make(map[string]string)
	path, required := envFile, envFile != ""
	if path == "" {
		path = findEnvFile()
	}
	if path != "" {
		fileVars, err := godotenv.Read(path)
		if err != nil {
			if required || !errors.Is(err, os.ErrNotExist) {
				return Layer{}, fmt.Errorf("%w: failed to read env file %q: %w", sqlauto.ErrConfig, path, err)
			}
		}
		for k, v := range fileVars {
			vars[k] = v
		}
	}
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if ok && v != "" {
			vars[k] = v
		}
	}
	values := make(map[Key]string, len(envNames))
	for key, names := range envNames {
		for _, name := range names {
			if v := vars[name]; v != "" {
				values[key] = v
				break
			}
		}
	}
	return Layer{Name: "env", Values: values}, nil
}

func findEnvFile() string {
	if _, err := os.Stat(DefaultEnvFile); err == nil {
		return DefaultEnvFile
	}
	if path, err := xdg.SearchConfigFile(xdgEnvFile); err == nil {
		return path
	}
	return ""
}

// Config is the resolved run configuration. It is a plain value; copies do not share state.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string

	ForceReload bool
	DropTables  bool

	// Dir is the migration directory.
	Dir string
	// LogFile is the applied log path for the file history.
	LogFile   string
	Dialect   dialect.Dialect
	Executor  string
	History   string
	Lock      string
	ClientBin string
	Verbose   bool
	NoColor   bool
}

// Resolve merges the layers, first non-empty value wins, applies defaults and validates the
// result. Any problem is reported as [sqlauto.ErrConfig] before anything touches the database.
func Resolve(layers ...Layer) (Config, error) {
	get := func(k Key) string {
		for _, l := range layers {
			if v, ok := l.lookup(k); ok {
				return v
			}
		}
		return ""
	}
	var errs []error
	boolean := func(k Key) bool {
		v := get(k)
		if v == "" {
			return false
		}
		b, err := ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
		}
		return b
	}
	c := Config{
		Host:        get(Host),
		Port:        get(Port),
		User:        get(User),
		Password:    get(Password),
		Database:    get(Database),
		ForceReload: boolean(ForceReload),
		DropTables:  boolean(DropTables),
		Dir:         orDefault(get(Dir), DefaultDir),
		LogFile:     orDefault(get(LogFile), history.DefaultLogFile),
		Executor:    strings.ToLower(orDefault(get(Executor), ExecutorClient)),
		History:     strings.ToLower(orDefault(get(History), HistoryFile)),
		Lock:        strings.ToLower(orDefault(get(Lock), LockFile)),
		ClientBin:   get(ClientBin),
		Verbose:     boolean(Verbose),
		// Any non-empty NO_COLOR disables color.
		NoColor: get(NoColor) != "",
	}
	d, err := dialect.GetDialect(orDefault(get(Dialect), string(dialect.Mysql)))
	if err != nil {
		errs = append(errs, err)
	}
	c.Dialect = d
	errs = append(errs, c.validate()...)
	if len(errs) > 0 {
		return Config{}, fmt.Errorf("%w: %w", sqlauto.ErrConfig, errors.Join(errs...))
	}
	return c, nil
}

func (c Config) validate() []error {
	var errs []error
	switch c.Executor {
	case ExecutorClient:
		if c.Dialect != "" && c.Dialect != dialect.Mysql {
			errs = append(errs, fmt.Errorf("executor %q only supports the mysql dialect", c.Executor))
		}
	case ExecutorDriver:
	default:
		errs = append(errs, fmt.Errorf("unknown executor %q: want %s or %s", c.Executor, ExecutorClient, ExecutorDriver))
	}
	switch c.History {
	case HistoryFile:
	case HistoryTable:
		if c.Executor != ExecutorDriver {
			errs = append(errs, fmt.Errorf("history %q requires the %s executor", c.History, ExecutorDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown history %q: want %s or %s", c.History, HistoryFile, HistoryTable))
	}
	switch c.Lock {
	case LockFile, LockNone:
	case LockSession:
		if c.Executor != ExecutorDriver {
			errs = append(errs, fmt.Errorf("lock %q requires the %s executor", c.Lock, ExecutorDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown lock %q: want %s, %s or %s", c.Lock, LockFile, LockSession, LockNone))
	}
	if c.Database == "" {
		errs = append(errs, errors.New("database must not be empty"))
	}
	if c.Dialect.NeedsServer() {
		if c.Host == "" {
			errs = append(errs, errors.New("host must not be empty"))
		}
		if c.User == "" {
			errs = append(errs, errors.New("user must not be empty"))
		}
	}
	return errs
}

// LockPath is the file used by the file lock, next to the applied log.
func (c Config) LockPath() string {
	return filepath.Clean(c.LogFile) + ".lock"
}

// Redacted returns the settings as name, value pairs with the password masked.
func (c Config) Redacted() [][2]string {
	pass := ""
	if c.Password != "" {
		pass = "********"
	}
	return [][2]string{
		{string(Host), c.Host},
		{string(Port), c.Port},
		{string(User), c.User},
		{string(Password), pass},
		{string(Database), c.Database},
		{string(ForceReload), fmt.Sprint(c.ForceReload)},
		{string(DropTables), fmt.Sprint(c.DropTables)},
		{string(Dir), c.Dir},
		{string(LogFile), c.LogFile},
		{string(Dialect), string(c.Dialect)},
		{string(Executor), c.Executor},
		{string(History), c.History},
		{string(Lock), c.Lock},
		{string(ClientBin), c.ClientBin},
	}
}

// ParseBool accepts the usual spellings of a boolean: 1/0, true/false, yes/no and on/off.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "0", "f", "false", "n", "no", "off", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
