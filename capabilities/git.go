package capabilities

import (
	shellwords "github.com/mattn/go-shellwords"

	"github.com/navvy-ai/navvy/capability"
	"github.com/navvy-ai/navvy/sandbox"
)

// allowedGitSubcommands is the subcommand allow-list. Anything with an
// interactive or destructive default stays off it.
var allowedGitSubcommands = map[string]bool{
	"status":    true,
	"log":       true,
	"diff":      true,
	"show":      true,
	"branch":    true,
	"add":       true,
	"commit":    true,
	"checkout":  true,
	"switch":    true,
	"restore":   true,
	"fetch":     true,
	"pull":      true,
	"push":      true,
	"clone":     true,
	"stash":     true,
	"remote":    true,
	"tag":       true,
	"rev-parse": true,
	"init":      true,
}

// GitCommand runs an allow-listed git subcommand in the sandbox.
func GitCommand() *capability.FuncCapability {
	return capability.NewFunc(
		"git_command",
		"Run a git subcommand in the sandbox, e.g. \"status\" or \"log --oneline -5\". Only common subcommands are allowed.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command": map[string]any{
					"type":        "string",
					"description": "The git subcommand and its arguments, without the leading \"git\".",
				},
				"folder": map[string]any{
					"type":        "string",
					"description": "Repository directory relative to the sandbox root.",
				},
			},
			"required": []string{"command"},
		},
		func(ctx *capability.Context, args map[string]any) capability.Result {
			executor := ctx.Sandbox()
			if executor == nil {
				return capability.Failure("no sandbox configured")
			}
			command, _ := args["command"].(string)
			folder, _ := args["folder"].(string)

			words, err := shellwords.Parse(command)
			if err != nil {
				return capability.Failure("parse git arguments: %v", err)
			}
			if len(words) == 0 {
				return capability.Failure("git subcommand required")
			}
			if !allowedGitSubcommands[words[0]] {
				return capability.Failure("git subcommand %q is not allowed", words[0])
			}

			opts := sandbox.ExecOptions{Timeout: defaultCommandTimeout, Dir: folder}
			res, err := executor.RunCommand(ctx.Context(), "git "+command, opts)
			if err != nil {
				return capability.Failure("git failed to run: %v", err)
			}
			if !res.OK() {
				return capability.Failure("git exited %d: %s", res.ExitCode, execError(res))
			}
			return capability.Success(execOutput(res))
		},
	)
}
