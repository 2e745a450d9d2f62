package capabilities

import (
	"fmt"

	"github.com/navvy-ai/navvy/capability"
	"github.com/navvy-ai/navvy/sandbox"
)

// ExecutePython writes a script into the sandbox and runs it with python3.
func ExecutePython() *capability.FuncCapability {
	return capability.NewFunc(
		"execute_python",
		"Run a Python script in the sandbox. The script is written to a file and executed with python3; stdout, stderr and the exit code come back.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "Python source to execute.",
				},
				"timeout": map[string]any{
					"type":        "number",
					"description": "Seconds to wait before killing the script. Defaults to 60.",
				},
			},
			"required": []string{"code"},
		},
		func(ctx *capability.Context, args map[string]any) capability.Result {
			executor := ctx.Sandbox()
			if executor == nil {
				return capability.Failure("no sandbox configured")
			}
			code, _ := args["code"].(string)

			path := fmt.Sprintf("scripts/run_%s.py", ctx.CallID())
			if err := executor.WriteFile(ctx.Context(), path, []byte(code)); err != nil {
				return capability.Failure("write script: %v", err)
			}

			opts := sandbox.ExecOptions{Timeout: timeoutArg(args, defaultCommandTimeout)}
			res, err := executor.RunCommand(ctx.Context(), "python3 "+path, opts)
			if err != nil {
				return capability.Failure("script failed to run: %v", err)
			}
			if !res.OK() {
				return capability.Failure("script exited %d: %s", res.ExitCode, execError(res))
			}
			return capability.Success(execOutput(res))
		},
	).WithMarkup(&capability.MarkupSpec{
		Tag: "execute-python",
		Mappings: []capability.Mapping{
			{Param: "code", Source: capability.SourceContent},
		},
		Example: `<execute-python>print("hello")</execute-python>`,
	})
}
