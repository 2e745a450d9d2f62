package capabilities

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/navvy-ai/navvy/capability"
	"github.com/navvy-ai/navvy/core"
	"github.com/navvy-ai/navvy/sandbox"
)

// browserBridgePath is the automation entry point shipped with the sandbox
// image. Each verb becomes one bridge invocation; the bridge prints the
// resulting page state as JSON on stdout.
const browserBridgePath = "helpers/browser_bridge.py"

// Browser returns the browser automation verbs.
func Browser() []capability.Capability {
	return []capability.Capability{
		browserVerb(
			"browser_navigate_to",
			"Open a URL in the managed browser and return the resulting page state.",
			map[string]any{
				"url": map[string]any{"type": "string", "description": "Absolute URL to open."},
			},
			[]string{"url"},
		),
		browserVerb(
			"browser_click_element",
			"Click a numbered element from the current page state.",
			map[string]any{
				"index": map[string]any{"type": "number", "description": "Element index from the page state."},
			},
			[]string{"index"},
		),
		browserVerb(
			"browser_input_text",
			"Type text into a numbered input element.",
			map[string]any{
				"index": map[string]any{"type": "number", "description": "Element index from the page state."},
				"text":  map[string]any{"type": "string", "description": "Text to type."},
			},
			[]string{"index", "text"},
		),
		browserVerb(
			"browser_extract_data",
			"Extract structured data from the current page according to an instruction.",
			map[string]any{
				"instruction": map[string]any{"type": "string", "description": "What to extract, e.g. all product names and prices."},
			},
			[]string{"instruction"},
		),
		browserVerb(
			"browser_summarize_page",
			"Summarize the visible content of the current page.",
			map[string]any{},
			nil,
		),
	}
}

// browserVerb builds one thin wrapper around the bridge script. The verb
// name after the browser_ prefix selects the bridge action.
func browserVerb(name, description string, props map[string]any, required []string) *capability.FuncCapability {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	action := strings.TrimPrefix(name, "browser_")

	return capability.NewFunc(name, description, schema,
		func(ctx *capability.Context, args map[string]any) capability.Result {
			executor := ctx.Sandbox()
			if executor == nil {
				return capability.Failure("no sandbox configured")
			}

			payload, err := json.Marshal(args)
			if err != nil {
				return capability.Failure("encode browser action: %v", err)
			}
			reqPath := fmt.Sprintf("helpers/browser_%s.json", ctx.CallID())
			if err := executor.WriteFile(ctx.Context(), reqPath, payload); err != nil {
				return capability.Failure("write browser action: %v", err)
			}

			command := fmt.Sprintf("python3 %s %s %s", browserBridgePath, action, reqPath)
			res, err := executor.RunCommand(ctx.Context(), command, sandbox.ExecOptions{Timeout: defaultHelperTimeout})
			if err != nil {
				return capability.Failure("browser action failed to run: %v", err)
			}
			if !res.OK() {
				return capability.Failure("browser action exited %d: %s", res.ExitCode, execError(res))
			}

			state := strings.TrimSpace(res.Stdout)
			if state != "" {
				if err := ctx.RecordMessage(core.MessageTypeBrowserState, "assistant", state, false); err != nil {
					ctx.LogWarn("capability.record_failed", "capability", name, "error", err)
				}
			}
			return capability.Success(state)
		},
	)
}
