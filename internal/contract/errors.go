package contract

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxExcerptBytes bounds the stdout/stderr text attached to analyzer errors.
const MaxExcerptBytes = 4 * 1024

// CommandError is returned when an analyzer subprocess exits non-zero, times out,
// or cannot be started.
type CommandError struct {
	Command  string
	ExitCode int // -1 when the process did not exit normally
	TimedOut bool
	Stdout   string
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	var b strings.Builder
	switch {
	case e.TimedOut:
		fmt.Fprintf(&b, "analyzer command timed out: %s", e.Command)
	case e.ExitCode >= 0:
		fmt.Fprintf(&b, "analyzer command exited with code %d: %s", e.ExitCode, e.Command)
	default:
		fmt.Fprintf(&b, "analyzer command failed: %s", e.Command)
		if e.Err != nil {
			fmt.Fprintf(&b, ": %v", e.Err)
		}
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, "\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		fmt.Fprintf(&b, "\nstdout: %s", e.Stdout)
	}
	return b.String()
}

func (e *CommandError) Unwrap() error { return e.Err }

// ParseError is returned when analyzer stdout does not parse as the expected shape.
type ParseError struct {
	Command string
	Excerpt string
	Err     error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("cannot parse output of %s: %v", e.Command, e.Err)
	if e.Excerpt != "" {
		msg += "\noutput: " + e.Excerpt
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsFatalAnalysisError reports whether err carries a CommandError or ParseError.
func IsFatalAnalysisError(err error) bool {
	var cmdErr *CommandError
	var parseErr *ParseError
	return errors.As(err, &cmdErr) || errors.As(err, &parseErr)
}

// Excerpt trims s to at most MaxExcerptBytes without splitting a UTF-8 sequence.
func Excerpt(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= MaxExcerptBytes {
		return s
	}
	cut := MaxExcerptBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "... (truncated)"
}
