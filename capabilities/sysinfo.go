package capabilities

import (
	"github.com/navvy-ai/navvy/capability"
)

const sysinfoScript = `import json
import os
import platform

print(json.dumps({
    "system": platform.system(),
    "release": platform.release(),
    "machine": platform.machine(),
    "python": platform.python_version(),
    "cpus": os.cpu_count(),
}))
`

// GetSystemInfo reports basic facts about the sandbox host.
func GetSystemInfo() *capability.FuncCapability {
	return capability.NewFunc(
		"get_system_info",
		"Return basic information about the sandbox: OS, architecture, Python version and CPU count.",
		map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		func(ctx *capability.Context, args map[string]any) capability.Result {
			out, err := runHelperScript(ctx, "sysinfo", sysinfoScript, defaultCommandTimeout)
			if err != nil {
				return capability.Failure("system info failed: %v", err)
			}
			return capability.Success(out)
		},
	)
}
