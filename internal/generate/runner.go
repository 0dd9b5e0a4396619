package generate

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Command is one external process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// RunResult is what a process left behind. A non-zero ExitCode is a normal
// result, not an error.
type RunResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner executes commands. Implementations return *TransportError when the
// process could not be started.
type Runner interface {
	Run(ctx context.Context, cmd Command) (RunResult, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, cmd Command) (RunResult, error)

func (f RunnerFunc) Run(ctx context.Context, cmd Command) (RunResult, error) {
	return f(ctx, cmd)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run starts cmd and waits for it. Stdout and stderr are captured separately.
func (ExecRunner) Run(ctx context.Context, c Command) (RunResult, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := RunResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	// Interpreter not found, permission denied, etc.
	return res, &TransportError{Command: c.String(), Err: err}
}
