package cli

import (
	"encoding/json"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sqlauto/sqlauto/internal/cfg"
)

// state holds the state of the CLI and is passed to each command. It is used to configure the
// environment, filesystem, and output streams.
type state struct {
	version   string
	environ   []string
	constants map[cfg.Key]string
	stdout    io.Writer
	stderr    io.Writer
	color     bool
	// This is effectively [fs.SubFS](https://pkg.go.dev/io/fs#SubFS).
	fsys func(dir string) (fs.FS, error)
}

func newStateWithDefaults(opts ...Options) (*state, error) {
	st := &state{
		environ: os.Environ(),
	}
	for _, opt := range opts {
		if err := opt.apply(st); err != nil {
			return nil, err
		}
	}
	// Set defaults if not set by the caller
	if st.stdout == nil {
		st.stdout = colorable.NewColorable(os.Stdout)
	}
	if st.stderr == nil {
		st.stderr = colorable.NewColorable(os.Stderr)
		st.color = isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	}
	if st.fsys == nil {
		// Use the default filesystem if not set, reading from the local filesystem.
		st.fsys = func(dir string) (fs.FS, error) { return os.DirFS(dir), nil }
	}
	if st.version == "" {
		st.version = "devel"
	}
	return st, nil
}

// newLogger returns the logger for a run. Output goes to stderr so stdout only carries results.
func (s *state) newLogger(c cfg.Config) *slog.Logger {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(s.stderr, &tint.Options{
		Level:      level,
		NoColor:    !s.color || c.NoColor,
		TimeFormat: time.TimeOnly,
	}))
}

// lookupEnv resolves ${VAR} references in migration files against the command environment.
func (s *state) lookupEnv(key string) (string, bool) {
	for i := len(s.environ) - 1; i >= 0; i-- {
		k, v, ok := strings.Cut(s.environ[i], "=")
		if ok && k == key {
			return v, true
		}
	}
	return "", false
}

func (s *state) writeJSON(v any) error {
	by, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	by = append(by, '\n')
	_, err = s.stdout.Write(by)
	return err
}
