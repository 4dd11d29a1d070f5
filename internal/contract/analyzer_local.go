package contract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long Wait blocks on inherited pipes after the process is killed.
const waitDelay = 2 * time.Second

// LocalAnalyzerClient implements the AnalyzerClient interface by executing the
// analyzer installed on the machine, or through npx when no binary is configured.
type LocalAnalyzerClient struct {
	bin    string
	prefix []string
	dir    string
}

var _ AnalyzerClient = &LocalAnalyzerClient{} // Compile-time check

// NewLocalAnalyzerClient creates an analyzer client. When bin is empty the analyzer
// package is run through npx at the given version.
func NewLocalAnalyzerClient(bin, pkg, version, dir string) *LocalAnalyzerClient {
	if bin != "" {
		return &LocalAnalyzerClient{bin: bin, dir: dir}
	}
	return &LocalAnalyzerClient{
		bin:    "npx",
		prefix: []string{"--yes", pkg + "@" + version},
		dir:    dir,
	}
}

// CommandLine renders the command as it would be typed.
func (c *LocalAnalyzerClient) CommandLine(args ...string) string {
	parts := append([]string{c.bin}, c.prefix...)
	return strings.Join(append(parts, args...), " ")
}

// Run executes the analyzer and returns its stdout. Stdout is buffered in full.
func (c *LocalAnalyzerClient) Run(ctx context.Context, args ...string) ([]byte, error) {
	var stdout bytes.Buffer
	if err := c.exec(ctx, &stdout, args); err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			cmdErr.Stdout = Excerpt(stdout.Bytes())
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// Stream executes the analyzer and copies stdout into w.
func (c *LocalAnalyzerClient) Stream(ctx context.Context, w io.Writer, args ...string) error {
	return c.exec(ctx, w, args)
}

func (c *LocalAnalyzerClient) exec(ctx context.Context, stdout io.Writer, args []string) error {
	fullArgs := append(append([]string{}, c.prefix...), args...)
	cmd := exec.CommandContext(ctx, c.bin, fullArgs...)
	cmd.Dir = c.dir
	cmd.WaitDelay = waitDelay

	var stderr bytes.Buffer
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	cmdErr := &CommandError{
		Command:  c.CommandLine(args...),
		ExitCode: -1,
		Stderr:   Excerpt(stderr.Bytes()),
		Err:      err,
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		cmdErr.TimedOut = true
		cmdErr.Err = ctx.Err()
		return cmdErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.Exited() {
		cmdErr.ExitCode = exitErr.ExitCode()
		return cmdErr
	}
	if errors.Is(err, exec.ErrNotFound) {
		cmdErr.Err = fmt.Errorf("%w. Ensure %s is installed and available on your PATH", err, c.bin)
	}
	return cmdErr
}
