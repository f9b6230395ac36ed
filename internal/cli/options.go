package cli

import (
	"fmt"
	"io"
	"io/fs"

	"github.com/sqlauto/sqlauto/internal/cfg"
)

// Options are used to configure the command execution and are passed to the Run or Main function.
type Options interface {
	apply(*state) error
}

type optionFunc func(*state) error

func (f optionFunc) apply(s *state) error { return f(s) }

// WithEnviron sets the environment variables for the command. This will overwrite the current
// environment, primarily useful for testing.
func WithEnviron(env []string) Options {
	return optionFunc(func(s *state) error {
		s.environ = env
		return nil
	})
}

// WithStdout sets the writer for stdout.
func WithStdout(w io.Writer) Options {
	return optionFunc(func(s *state) error {
		if w == nil {
			return fmt.Errorf("stdout cannot be nil")
		}
		if s.stdout != nil {
			return fmt.Errorf("stdout already set")
		}
		s.stdout = w
		return nil
	})
}

// WithStderr sets the writer for stderr. Log output goes here.
//
// isTerminal enables colored log output unless NO_COLOR is set.
func WithStderr(w io.Writer, isTerminal bool) Options {
	return optionFunc(func(s *state) error {
		if w == nil {
			return fmt.Errorf("stderr cannot be nil")
		}
		if s.stderr != nil {
			return fmt.Errorf("stderr already set")
		}
		s.stderr = w
		s.color = isTerminal
		return nil
	})
}

// WithVersion sets the version reported by the version command.
func WithVersion(version string) Options {
	return optionFunc(func(s *state) error {
		s.version = version
		return nil
	})
}

// WithConstants sets values compiled into the binary. They rank below command line flags and
// above the environment.
func WithConstants(values map[cfg.Key]string) Options {
	return optionFunc(func(s *state) error {
		s.constants = values
		return nil
	})
}

// WithFilesystem takes a function that returns a filesystem for the given directory. The directory
// will be the value of the --dir flag passed to the command. A typical use case is to use
// [embed.FS] or [fstest.MapFS]. For example:
//
//	fsys := fstest.MapFS{
//	    "sqlauto/sql00000000_init.sql": {Data: []byte(`SELECT 1;`)},
//	}
//	err := cli.Run(context.Background(), os.Args[1:], cli.WithFilesystem(fsys.Sub))
//
// The above example will run the command with the filesystem provided by [fsys.Sub].
func WithFilesystem(fsys func(dir string) (fs.FS, error)) Options {
	return optionFunc(func(s *state) error {
		if fsys == nil {
			return fmt.Errorf("filesystem cannot be nil")
		}
		if s.fsys != nil {
			return fmt.Errorf("filesystem already set")
		}
		s.fsys = fsys
		return nil
	})
}
