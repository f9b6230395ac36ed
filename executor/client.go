package executor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"strings"

	"github.com/sqlauto/sqlauto"
)

// DefaultClientBin is the mysql command line client looked up in PATH.
const DefaultClientBin = "mysql"

// ExitError is returned when the client binary exits with a non-zero status.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("mysql client exited with code %d", e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Client runs scripts with the mysql command line client.
type Client struct {
	bin     string
	conn    ConnConfig
	logger  *slog.Logger
	stdout  io.Writer
	environ []string
}

var (
	_ sqlauto.Executor = (*Client)(nil)
	_ Admin            = (*Client)(nil)
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientBin sets the client binary, a name looked up in PATH or a path.
func WithClientBin(bin string) ClientOption {
	return func(c *Client) {
		if bin != "" {
			c.bin = bin
		}
	}
}

// WithClientLogger sets the logger used to report commands at debug level.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClientStdout sets where the client's standard output goes. Discarded by default.
func WithClientStdout(w io.Writer) ClientOption {
	return func(c *Client) {
		if w != nil {
			c.stdout = w
		}
	}
}

// NewClient returns a Client for the given connection settings.
func NewClient(conn ConnConfig, opts ...ClientOption) *Client {
	c := &Client{
		bin:     DefaultClientBin,
		conn:    conn,
		logger:  slog.New(slog.DiscardHandler),
		stdout:  io.Discard,
		environ: os.Environ(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Exec feeds script to the client connected to the configured database.
func (c *Client) Exec(ctx context.Context, name string, script io.Reader) error {
	args := append(c.connArgs(), "--database="+c.conn.Database)
	c.logger.DebugContext(ctx, "running mysql client", slog.String("file", name))
	return c.run(ctx, script, c.stdout, args...)
}

// CreateDatabase runs CREATE DATABASE IF NOT EXISTS without selecting a database.
func (c *Client) CreateDatabase(ctx context.Context) error {
	q := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", quoteIdent(c.conn.Database))
	args := append(c.connArgs(), "-e", q)
	if err := c.run(ctx, nil, io.Discard, args...); err != nil {
		return fmt.Errorf("%w: failed to create database %q: %w", sqlauto.ErrDatabaseConnect, c.conn.Database, err)
	}
	return nil
}

// DropTables lists the tables with SHOW TABLES and drops them one by one with foreign key checks
// disabled. Tables in keep are skipped.
func (c *Client) DropTables(ctx context.Context, keep ...string) error {
	args := append(c.connArgs(), "-Nse", "SHOW TABLES", c.conn.Database)
	var out bytes.Buffer
	if err := c.run(ctx, nil, &out, args...); err != nil {
		return fmt.Errorf("%w: failed to list tables: %w", sqlauto.ErrDatabaseConnect, err)
	}
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		table := strings.TrimSpace(scanner.Text())
		if table == "" || kept(table, keep) {
			continue
		}
		q := "SET FOREIGN_KEY_CHECKS=0;DROP TABLE " + quoteIdent(table)
		args := append(c.connArgs(), "-e", q, c.conn.Database)
		if err := c.run(ctx, nil, io.Discard, args...); err != nil {
			return fmt.Errorf("%w: failed to drop table %q: %w", sqlauto.ErrDatabaseConnect, table, err)
		}
		c.logger.InfoContext(ctx, "dropped table", slog.String("table", table))
	}
	return scanner.Err()
}

// connArgs returns the connection flags. The password travels in MYSQL_PWD so it does not show up
// in the process list.
func (c *Client) connArgs() []string {
	args := []string{
		"--host=" + c.conn.Host,
		"--user=" + c.conn.User,
	}
	if c.conn.Port != "" {
		args = append(args, "--port="+c.conn.Port)
	}
	return args
}

func (c *Client) run(ctx context.Context, stdin io.Reader, stdout io.Writer, args ...string) error {
	cmd := exec.CommandContext(ctx, c.bin, args...)
	cmd.Env = append(slices.Clip(c.environ), "MYSQL_PWD="+c.conn.Password)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode(), Stderr: stderr.String()}
	}
	return fmt.Errorf("failed to run %s: %w", c.bin, err)
}

func quoteIdent(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}
