package capabilities

import (
	"encoding/json"

	"github.com/navvy-ai/navvy/capability"
	"github.com/navvy-ai/navvy/core"
)

// Ask poses a question to the user. Its closing tag doubles as the stop
// marker the runner watches for, so emitting it ends the run after the
// current attempt drains.
func Ask() *capability.FuncCapability {
	return capability.NewFunc(
		"ask",
		"Ask the user a question and pause until they respond. Use this whenever you need input, a decision, or a confirmation before continuing.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{
					"type":        "string",
					"description": "The question to put to the user.",
				},
				"attachments": map[string]any{
					"type":        "string",
					"description": "Optional comma-separated file paths to present alongside the question.",
				},
			},
			"required": []string{"text"},
		},
		func(ctx *capability.Context, args map[string]any) capability.Result {
			text, _ := args["text"].(string)
			recordSignal(ctx, "ask", map[string]any{
				"question":    text,
				"attachments": args["attachments"],
			})
			return capability.Success(text)
		},
	).WithMarkup(&capability.MarkupSpec{
		Tag: "ask",
		Mappings: []capability.Mapping{
			{Param: "text", Source: capability.SourceContent},
			{Param: "attachments", Source: capability.SourceAttribute},
		},
		Example: `<ask attachments="report.md">Should I deploy to staging or production?</ask>`,
	})
}

// Complete declares the task finished. Its closing tag is a stop marker.
func Complete() *capability.FuncCapability {
	return capability.NewFunc(
		"complete",
		"Declare the task complete. Emit this once every requested outcome has been achieved and verified.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{
					"type":        "string",
					"description": "A short summary of what was accomplished.",
				},
			},
		},
		func(ctx *capability.Context, args map[string]any) capability.Result {
			summary, _ := args["text"].(string)
			recordSignal(ctx, "complete", map[string]any{"summary": summary})
			return capability.Success("Task marked complete.")
		},
	).WithMarkup(&capability.MarkupSpec{
		Tag: "complete",
		Mappings: []capability.Mapping{
			{Param: "text", Source: capability.SourceContent},
		},
		Example: `<complete>Migrated the database and verified row counts match.</complete>`,
	})
}

// BrowserTakeover hands browser control to the user, typically for logins
// or captchas the automation cannot clear. Its closing tag is a stop
// marker.
func BrowserTakeover() *capability.FuncCapability {
	return capability.NewFunc(
		"web-browser-takeover",
		"Request that the user take manual control of the browser, for example to complete a login or solve a captcha. Explain exactly what they need to do.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{
					"type":        "string",
					"description": "What the user should do once they have control.",
				},
			},
			"required": []string{"text"},
		},
		func(ctx *capability.Context, args map[string]any) capability.Result {
			text, _ := args["text"].(string)
			recordSignal(ctx, "web-browser-takeover", map[string]any{"instructions": text})
			return capability.Success(text)
		},
	).WithMarkup(&capability.MarkupSpec{
		Tag: "web-browser-takeover",
		Mappings: []capability.Mapping{
			{Param: "text", Source: capability.SourceContent},
		},
		Example: `<web-browser-takeover>Please log in with your credentials, then tell me to continue.</web-browser-takeover>`,
	})
}

// recordSignal writes an out-of-band status record so callers can see the
// signal without it entering model history.
func recordSignal(ctx *capability.Context, signal string, detail map[string]any) {
	payload := map[string]any{"signal": signal}
	for k, v := range detail {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		payload[k] = v
	}
	data, err := json.Marshal(payload)
	if err != nil {
		ctx.LogWarn("capability.signal_encode_failed", "signal", signal, "error", err)
		return
	}
	if err := ctx.RecordMessage(core.MessageTypeStatus, "assistant", string(data), false); err != nil {
		ctx.LogWarn("capability.record_failed", "signal", signal, "error", err)
	}
}
