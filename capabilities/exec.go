package capabilities

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/navvy-ai/navvy/capability"
	"github.com/navvy-ai/navvy/sandbox"
)

const (
	defaultCommandTimeout = 60 * time.Second
	defaultHelperTimeout  = 120 * time.Second
)

// timeoutArg reads an optional "timeout" argument in seconds.
func timeoutArg(args map[string]any, fallback time.Duration) time.Duration {
	if secs, ok := args["timeout"].(float64); ok && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return fallback
}

// execOutput shapes a sandbox result for the model.
func execOutput(res sandbox.ExecResult) map[string]any {
	return map[string]any{
		"stdout":    res.Stdout,
		"stderr":    res.Stderr,
		"exit_code": res.ExitCode,
	}
}

// execError picks the most useful line to surface for a failed command.
func execError(res sandbox.ExecResult) string {
	msg := strings.TrimSpace(res.Stderr)
	if msg == "" {
		msg = strings.TrimSpace(res.Stdout)
	}
	if msg == "" {
		msg = "no output"
	}
	return msg
}

// runHelperScript writes a generated python helper into the sandbox, runs
// it and returns its stdout. Helpers are the delivery vehicle for the
// media and system capabilities; their stdout is the entire contract.
func runHelperScript(ctx *capability.Context, name, script string, timeout time.Duration) (string, error) {
	executor := ctx.Sandbox()
	if executor == nil {
		return "", errors.New("no sandbox configured")
	}

	path := fmt.Sprintf("helpers/%s_%s.py", name, ctx.CallID())
	if err := executor.WriteFile(ctx.Context(), path, []byte(script)); err != nil {
		return "", fmt.Errorf("write helper script: %w", err)
	}

	res, err := executor.RunCommand(ctx.Context(), "python3 "+path, sandbox.ExecOptions{Timeout: timeout})
	if err != nil {
		return "", err
	}
	if !res.OK() {
		return "", fmt.Errorf("helper exited %d: %s", res.ExitCode, execError(res))
	}
	return strings.TrimSpace(res.Stdout), nil
}
