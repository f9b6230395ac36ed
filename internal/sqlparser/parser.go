package sqlparser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/mfridman/interpolate"
)

type parserState int

const (
	start          parserState = iota // 0
	statement                         // 1
	statementBegin                    // 2
	statementEnd                      // 3
)

type stateMachine struct {
	state   parserState
	verbose bool
}

func newStateMachine(begin parserState, verbose bool) *stateMachine {
	return &stateMachine{
		state:   begin,
		verbose: verbose,
	}
}

func (s *stateMachine) get() parserState {
	return s.state
}

func (s *stateMachine) set(new parserState) {
	s.print("set %d => %d", s.state, new)
	s.state = new
}

const (
	grayColor  = "\033[90m"
	resetColor = "\033[00m"
)

func (s *stateMachine) print(msg string, args ...interface{}) {
	msg = "StateMachine: " + msg
	if s.verbose {
		log.Printf(grayColor+msg+resetColor, args...)
	}
}

const scanBufSize = 4 * 1024 * 1024

var bufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, scanBufSize)
		return &buf
	},
}

// DefaultDelimiter terminates a statement until a DELIMITER line changes it.
const DefaultDelimiter = ";"

// Script is a migration file split into statements.
type Script struct {
	Statements []string
	// UseTx is false when the file carries the '-- +sqlauto NO TRANSACTION' annotation.
	UseTx bool
}

// Options tune the parser.
type Options struct {
	// Lookup resolves ${VAR} references inside '-- +sqlauto ENVSUB ON' sections. Defaults to
	// os.LookupEnv.
	Lookup func(key string) (string, bool)
	Debug  bool
}

// Parse splits a SQL script into individual statements, the same way the mysql command line
// client does.
//
// The base case is to simply split on the delimiter, a semicolon unless changed by a
// 'DELIMITER <token>' line, which is how stored procedures are usually written for mysql. A custom
// delimiter is stripped from the statement it terminates since the server does not understand it.
//
// For bodies that contain semicolons but cannot use DELIMITER, like pl/pgsql, the explicit
// annotations '-- +sqlauto StatementBegin' and '-- +sqlauto StatementEnd' tell the parser to
// ignore delimiters in between.
//
// A final statement without a delimiter is kept, matching the mysql client.
func Parse(r io.Reader, opts Options) (*Script, error) {
	scanBufPtr := bufferPool.Get().(*[]byte)
	scanBuf := *scanBufPtr
	defer bufferPool.Put(scanBufPtr)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(scanBuf, scanBufSize)

	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	env := envWrapper(lookup)

	stateMachine := newStateMachine(start, opts.Debug)
	script := &Script{UseTx: true}
	delimiter := DefaultDelimiter
	useEnvsub := false

	var buf bytes.Buffer
	flush := func() {
		stmt := cleanupStatement(buf.String(), delimiter)
		buf.Reset()
		if stmt != "" {
			script.Statements = append(script.Statements, stmt)
		}
	}
	for scanner.Scan() {
		line := scanner.Text()
		if opts.Debug {
			log.Println(line)
		}
		if strings.HasPrefix(line, "--") {
			cmd := strings.TrimSpace(strings.TrimPrefix(line, "--"))

			switch cmd {
			case "+sqlauto StatementBegin":
				switch stateMachine.get() {
				case start, statement, statementEnd:
					if bufferRemaining := strings.TrimSpace(buf.String()); len(bufferRemaining) > 0 {
						return nil, missingDelimiterError(delimiter, bufferRemaining)
					}
					stateMachine.set(statementBegin)
				default:
					return nil, errors.New("duplicate '-- +sqlauto StatementBegin' annotation")
				}
				continue

			case "+sqlauto StatementEnd":
				if stateMachine.get() != statementBegin {
					return nil, errors.New("'-- +sqlauto StatementEnd' must be defined after '-- +sqlauto StatementBegin'")
				}
				stateMachine.set(statementEnd)
				flush()
				stateMachine.print("store annotated statement")
				continue

			case "+sqlauto NO TRANSACTION":
				script.UseTx = false
				continue

			case "+sqlauto ENVSUB ON":
				useEnvsub = true
				continue

			case "+sqlauto ENVSUB OFF":
				useEnvsub = false
				continue
			}
		}
		// Delimiter changes are client directives and never reach the server.
		if stateMachine.get() != statementBegin && buf.Len() == 0 {
			if d, ok := delimiterDirective(line); ok {
				stateMachine.print("delimiter %q => %q", delimiter, d)
				delimiter = d
				continue
			}
		}
		// Once we've started parsing a statement the buffer is no longer empty, we keep all
		// comments up until the end of the statement (the buffer will be reset). All other
		// comments in the file are ignored.
		if buf.Len() == 0 && stateMachine.get() != statementBegin {
			// This check ensures leading comments and empty lines prior to a statement are ignored.
			if isComment(line) || strings.TrimSpace(line) == "" {
				stateMachine.print("ignore comment")
				continue
			}
		}
		if useEnvsub {
			expanded, err := interpolate.Interpolate(env, line)
			if err != nil {
				return nil, fmt.Errorf("variable substitution failed: %w:\n%s", err, line)
			}
			line = expanded
		}
		// Write SQL line to a buffer.
		if _, err := buf.WriteString(line + "\n"); err != nil {
			return nil, fmt.Errorf("failed to write to buf: %w", err)
		}
		switch stateMachine.get() {
		case statementBegin:
			// Delimiters are ignored until the closing annotation.
			continue
		default:
			stateMachine.set(statement)
		}
		if endsWithDelimiter(line, delimiter) {
			flush()
			stateMachine.print("store simple query")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan migration: %w", err)
	}
	// EOF

	if stateMachine.get() == statementBegin {
		return nil, errors.New("failed to parse migration: missing '-- +sqlauto StatementEnd' annotation")
	}
	flush()
	return script, nil
}

func missingDelimiterError(delimiter, s string) error {
	return fmt.Errorf("failed to parse migration: unexpected unfinished SQL query: %q: missing %q?",
		s,
		delimiter,
	)
}

// delimiterDirective parses a 'DELIMITER <token>' line.
func delimiterDirective(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "DELIMITER") {
		return "", false
	}
	return fields[1], true
}

func isComment(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "--") || strings.HasPrefix(trimmed, "#")
}

// cleanupStatement trims whitespace from the given statement and strips a custom delimiter.
func cleanupStatement(input, delimiter string) string {
	stmt := strings.TrimSpace(input)
	if delimiter != DefaultDelimiter {
		stmt = strings.TrimSpace(strings.TrimSuffix(stmt, delimiter))
	}
	return stmt
}

// Checks the line to see if the line has a statement-ending delimiter or if the line contains a
// double-dash comment.
func endsWithDelimiter(line, delimiter string) bool {
	scanBufPtr := bufferPool.Get().(*[]byte)
	scanBuf := *scanBufPtr
	defer bufferPool.Put(scanBufPtr)

	prev := ""
	scanner := bufio.NewScanner(strings.NewReader(line))
	scanner.Buffer(scanBuf, scanBufSize)
	scanner.Split(bufio.ScanWords)

	for scanner.Scan() {
		word := scanner.Text()
		if strings.HasPrefix(word, "--") {
			break
		}
		prev = word
	}

	return strings.HasSuffix(prev, delimiter)
}

type envWrapper func(key string) (string, bool)

var _ interpolate.Env = (envWrapper)(nil)

func (e envWrapper) Get(key string) (string, bool) {
	return e(key)
}
