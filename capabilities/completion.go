package capabilities

import (
	"github.com/navvy-ai/navvy/capability"
	"github.com/navvy-ai/navvy/core"
	"github.com/navvy-ai/navvy/model"
)

// CreateChatCompletion runs a one-shot completion against m, outside the
// main conversation. Useful for summarizing, reformatting or generating
// text without growing the run's own history.
func CreateChatCompletion(m model.Model) *capability.FuncCapability {
	return capability.NewFunc(
		"create_chat_completion",
		"Run a standalone chat completion and return the generated text. The call does not touch the main conversation history.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"prompt": map[string]any{
					"type":        "string",
					"description": "The user prompt for the completion.",
				},
				"system": map[string]any{
					"type":        "string",
					"description": "Optional system prompt.",
				},
				"temperature": map[string]any{
					"type":        "number",
					"description": "Optional sampling temperature.",
				},
				"max_tokens": map[string]any{
					"type":        "number",
					"description": "Optional response token cap.",
				},
			},
			"required": []string{"prompt"},
		},
		func(ctx *capability.Context, args map[string]any) capability.Result {
			prompt, _ := args["prompt"].(string)

			req := model.Request{
				Messages: []core.Message{
					{Type: core.MessageTypeUser, Role: "user", Content: prompt},
				},
			}
			if system, ok := args["system"].(string); ok && system != "" {
				req.System = system
			}
			if temp, ok := args["temperature"].(float64); ok {
				req.Temperature = &temp
			}
			if maxTokens, ok := args["max_tokens"].(float64); ok {
				limit := int64(maxTokens)
				req.MaxTokens = &limit
			}

			respCh, errCh := m.Generate(ctx.Context(), req)
			var final model.Response
			for resp := range respCh {
				if !resp.Partial {
					final = resp
				}
			}
			if err, ok := <-errCh; ok && err != nil {
				return capability.Failure("chat completion failed: %v", err)
			}
			if final.Text == "" {
				return capability.Failure("chat completion returned no text")
			}
			return capability.Success(final.Text)
		},
	)
}
