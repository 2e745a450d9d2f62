package capabilities

import (
	"github.com/navvy-ai/navvy/capability"
	"github.com/navvy-ai/navvy/sandbox"
)

// ExecuteCommand runs a shell command inside the sandbox. A non-zero exit
// comes back as a failure Result so the model can react to stderr.
func ExecuteCommand() *capability.FuncCapability {
	return capability.NewFunc(
		"execute_command",
		"Execute a shell command in the sandbox working directory and return stdout, stderr and the exit code.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command": map[string]any{
					"type":        "string",
					"description": "The command line to execute.",
				},
				"folder": map[string]any{
					"type":        "string",
					"description": "Working directory relative to the sandbox root.",
				},
				"timeout": map[string]any{
					"type":        "number",
					"description": "Seconds to wait before killing the command. Defaults to 60.",
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

			opts := sandbox.ExecOptions{
				Timeout: timeoutArg(args, defaultCommandTimeout),
				Dir:     folder,
			}
			res, err := executor.RunCommand(ctx.Context(), command, opts)
			if err != nil {
				return capability.Failure("command failed to run: %v", err)
			}
			if !res.OK() {
				return capability.Failure("command exited %d: %s", res.ExitCode, execError(res))
			}
			return capability.Success(execOutput(res))
		},
	).WithMarkup(&capability.MarkupSpec{
		Tag: "execute-command",
		Mappings: []capability.Mapping{
			{Param: "command", Source: capability.SourceAttribute},
			{Param: "folder", Source: capability.SourceAttribute},
		},
		Example: `<execute-command command="ls -la"/>`,
	})
}
