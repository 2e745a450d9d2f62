package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	shellwords "github.com/mattn/go-shellwords"

	"github.com/navvy-ai/navvy/logging"
)

// Local executes commands as child processes rooted at a working directory.
// It is the development stand-in for a remote sandbox: same contract, no
// isolation beyond the directory root.
type Local struct {
	root           string
	defaultTimeout time.Duration
	env            []string
	logger         logging.Logger
}

// LocalOptions configure a Local executor.
type LocalOptions struct {
	// DefaultTimeout bounds commands that do not set their own. Zero
	// disables the default bound.
	DefaultTimeout time.Duration
	// Env is the base environment; nil inherits the process environment.
	Env []string
	// Logger receives command logs.
	Logger logging.Logger
}

// NewLocal creates a Local executor rooted at dir, creating it if needed.
func NewLocal(dir string, optFns ...func(o *LocalOptions)) (*Local, error) {
	opts := LocalOptions{
		DefaultTimeout: 5 * time.Minute,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve sandbox root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create sandbox root: %w", err)
	}

	return &Local{
		root:           abs,
		defaultTimeout: opts.DefaultTimeout,
		env:            opts.Env,
		logger:         opts.Logger,
	}, nil
}

// Root returns the sandbox root directory.
func (l *Local) Root() string { return l.root }

// RunCommand parses the command line with shell-style quoting and executes it.
func (l *Local) RunCommand(ctx context.Context, command string, opts ExecOptions) (ExecResult, error) {
	argv, err := shellwords.Parse(command)
	if err != nil {
		return ExecResult{}, fmt.Errorf("parse command: %w", err)
	}
	if len(argv) == 0 {
		return ExecResult{}, errors.New("empty command")
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = l.defaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	dir := l.root
	if opts.Dir != "" {
		dir, err = l.resolve(opts.Dir)
		if err != nil {
			return ExecResult{}, err
		}
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	if l.env != nil {
		cmd.Env = append(append([]string{}, l.env...), opts.Env...)
	} else if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	res := ExecResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			l.logger.Debug("sandbox.command.nonzero", "command", argv[0], "exit_code", res.ExitCode)
			return res, nil
		}
		if ctx.Err() != nil {
			return res, fmt.Errorf("command timed out or cancelled: %w", ctx.Err())
		}
		return res, fmt.Errorf("run command: %w", runErr)
	}

	l.logger.Debug("sandbox.command.ok", "command", argv[0], "duration_ms", res.Duration.Milliseconds())
	return res, nil
}

// WriteFile places data under the sandbox root.
func (l *Local) WriteFile(_ context.Context, path string, data []byte) error {
	abs, err := l.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	return os.WriteFile(abs, data, 0o644)
}

// ReadFile fetches a file from under the sandbox root.
func (l *Local) ReadFile(_ context.Context, path string) ([]byte, error) {
	abs, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}

// resolve joins path to the root and rejects escapes above it.
func (l *Local) resolve(path string) (string, error) {
	abs := filepath.Join(l.root, path)
	if abs != l.root && !strings.HasPrefix(abs, l.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes sandbox root: %s", path)
	}
	return abs, nil
}
