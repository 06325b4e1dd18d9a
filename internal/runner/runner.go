// Package runner executes external toolchain processes with captured or
// streamed output and normalizes their failures into typed errors.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// ErrKind classifies a process failure.
type ErrKind string

const (
	// ErrNonZeroExit covers a non-zero exit code, and under the strict
	// stderr policy also a zero exit with non-empty captured stderr.
	ErrNonZeroExit ErrKind = "non_zero_exit"
	// ErrToolFatal marks a fatal-error signature found in captured stdout.
	// pdflatex in nonstopmode can exit 0 while reporting a fatal error, so
	// exit-code checking alone is not enough.
	ErrToolFatal ErrKind = "tool_fatal"
	// ErrTimeout marks a forcibly terminated process after a deadline.
	ErrTimeout ErrKind = "timeout"
)

// ProcessError carries the failure kind and the diagnostic text captured from
// the child process, surfaced verbatim to the operator.
type ProcessError struct {
	Kind       ErrKind
	Cmd        string
	ExitCode   int
	Diagnostic string
	Err        error
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("%s: command %q", e.Kind, e.Cmd)
	if e.Kind == ErrNonZeroExit {
		msg = fmt.Sprintf("%s exited with code %d", msg, e.ExitCode)
	}
	if e.Diagnostic != "" {
		msg = fmt.Sprintf("%s: %s", msg, strings.TrimSpace(e.Diagnostic))
	}
	return msg
}

func (e *ProcessError) Unwrap() error { return e.Err }

// Command is a structured argument vector; no shell is involved, so callers
// never escape anything.
type Command struct {
	Path string
	Args []string
	Dir  string
}

// String renders the command for logs and diagnostics.
func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Options controls a single invocation.
type Options struct {
	// Stream forwards the child's stdout/stderr to the runner's writers in
	// real time. A failing streamed call carries no captured buffer.
	Stream bool

	// IgnoreStderr relaxes the strict policy for tools known to write
	// informational text to stderr. By default a captured call with
	// non-empty stderr fails even on a zero exit code.
	IgnoreStderr bool

	// Timeout, when positive, forcibly terminates the child after the
	// deadline. Partial output collected so far is attached.
	Timeout time.Duration

	// FatalPattern, when set, is matched against captured stdout; a match
	// fails the call regardless of exit code.
	FatalPattern *regexp.Regexp
}

// Output is the normalized result of a captured invocation.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes a single external process synchronously.
type Runner interface {
	Run(ctx context.Context, cmd Command, opts Options) (Output, error)
}

// ExecRunner is the production Runner backed by os/exec. Stdout and Stderr
// are the streaming targets; they default to the process's own streams.
type ExecRunner struct {
	Logger *slog.Logger
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner constructs an ExecRunner writing streamed output to the
// current process's stdout/stderr.
func NewExecRunner(logger *slog.Logger) *ExecRunner {
	return &ExecRunner{Logger: logger, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run spawns one external process and blocks until it exits or the optional
// deadline fires. No retries.
func (r *ExecRunner) Run(ctx context.Context, cmd Command, opts Options) (Output, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir

	if r.Logger != nil {
		r.Logger.Debug("Running external command", "cmd", cmd.String(), "dir", cmd.Dir, "stream", opts.Stream)
	}

	if opts.Stream {
		c.Stdout = r.Stdout
		c.Stderr = r.Stderr
		err := c.Run()
		if ctx.Err() == context.DeadlineExceeded {
			return Output{}, &ProcessError{Kind: ErrTimeout, Cmd: cmd.String(), Err: ctx.Err()}
		}
		if err != nil {
			return Output{}, &ProcessError{
				Kind:     ErrNonZeroExit,
				Cmd:      cmd.String(),
				ExitCode: exitCode(err),
				Err:      err,
			}
		}
		return Output{}, nil
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	err := c.Run()

	out := Output{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode(err),
	}

	if ctx.Err() == context.DeadlineExceeded {
		return out, &ProcessError{
			Kind:       ErrTimeout,
			Cmd:        cmd.String(),
			Diagnostic: out.Stdout + out.Stderr,
			Err:        ctx.Err(),
		}
	}

	if opts.FatalPattern != nil {
		if match := opts.FatalPattern.FindString(out.Stdout); match != "" {
			return out, &ProcessError{
				Kind:       ErrToolFatal,
				Cmd:        cmd.String(),
				ExitCode:   out.ExitCode,
				Diagnostic: match,
				Err:        err,
			}
		}
	}

	if err != nil {
		return out, &ProcessError{
			Kind:       ErrNonZeroExit,
			Cmd:        cmd.String(),
			ExitCode:   out.ExitCode,
			Diagnostic: out.Stderr,
			Err:        err,
		}
	}

	if out.Stderr != "" && !opts.IgnoreStderr {
		return out, &ProcessError{
			Kind:       ErrNonZeroExit,
			Cmd:        cmd.String(),
			ExitCode:   0,
			Diagnostic: out.Stderr,
		}
	}

	return out, nil
}

// exitCode extracts the exit code from a Run error; 0 on success, -1 when the
// process never ran or was killed.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
