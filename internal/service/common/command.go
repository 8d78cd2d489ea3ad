//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// ErrExternalProcess is returned when a child process cannot be started or exits unsuccessfully.
var ErrExternalProcess = errors.New("external process failed")

// Command is a program with its arguments.
type Command struct {
	// Program is the executable name or path; bare names are looked up in PATH.
	Program string
	// Args are passed to the program verbatim.
	Args []string
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Program + " " + strings.Join(c.Args, " "))
}

// Runner runs a command to completion.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner runs commands as child processes sharing the given streams.
type ExecRunner struct {
	// Stdout receives the child's standard output; nil means os.Stdout.
	Stdout io.Writer
	// Stderr receives the child's standard error; nil means os.Stderr.
	Stderr io.Writer
}

// Run starts the command, waits for it and reports a non-zero exit status as an error.
func (r ExecRunner) Run(ctx context.Context, cmd Command) error {
	if strings.TrimSpace(cmd.Program) == "" {
		return fmt.Errorf("%w: empty command", ErrExternalProcess)
	}

	child := exec.CommandContext(ctx, cmd.Program, cmd.Args...)
	child.Stdin = os.Stdin
	child.Stdout = orDefault(r.Stdout, os.Stdout)
	child.Stderr = orDefault(r.Stderr, os.Stderr)

	if err := child.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w: %s exited with code %d", ErrExternalProcess, cmd, exitErr.ExitCode())
		}

		return fmt.Errorf("%w: start %s: %w", ErrExternalProcess, cmd, err)
	}

	return nil
}

func orDefault(w, fallback io.Writer) io.Writer {
	if w == nil {
		return fallback
	}

	return w
}
