// Package sandbox provides the execution environment capabilities shell out
// to. The runtime treats it as a black box: commands go in, output comes
// back, and no capability interprets results beyond pass-through.
package sandbox

import (
	"context"
	"time"
)

// ExecResult is the outcome of one command execution.
type ExecResult struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// OK reports whether the command exited zero.
func (r ExecResult) OK() bool { return r.ExitCode == 0 }

// ExecOptions tune a single command execution.
type ExecOptions struct {
	// Timeout bounds the command; zero means the executor default.
	Timeout time.Duration
	// Dir is the working directory relative to the sandbox root.
	Dir string
	// Env is appended to the executor's base environment, KEY=VALUE form.
	Env []string
}

// Executor runs commands and moves files inside an execution environment.
// Implementations must be safe for concurrent use: capabilities executed in
// parallel within one assistant turn share a single executor.
type Executor interface {
	// RunCommand executes a shell command line and returns its outcome. A
	// non-zero exit is not a Go error; err is reserved for failures to run
	// at all (bad command line, context cancelled, environment missing).
	RunCommand(ctx context.Context, command string, opts ExecOptions) (ExecResult, error)

	// WriteFile places content at a path relative to the sandbox root,
	// creating parent directories as needed.
	WriteFile(ctx context.Context, path string, data []byte) error

	// ReadFile fetches a file from the sandbox.
	ReadFile(ctx context.Context, path string) ([]byte, error)
}
