// Package anthropic provides a model wrapper for the Anthropic Claude API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/navvy-ai/navvy/core"
	"github.com/navvy-ai/navvy/model"
)

// Options configures the Anthropic model adapter (model id, temperature,
// max tokens, thinking budget, API key). Extend via functional options to
// preserve stability.
type Options struct {
	Model          anthropic.Model
	Temperature    float64
	MaxTokens      int64
	ThinkingBudget int64
	APIKey         string
}

// Model wraps the Anthropic Messages API behind the generic model.Model
// interface, supporting streaming with text, thinking and tool use blocks.
type Model struct {
	client *anthropic.Client
	opts   Options
}

// NewModel creates a new Anthropic model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)
	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new Anthropic model from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:          anthropic.ModelClaudeSonnet4_20250514,
		Temperature:    0.7,
		MaxTokens:      8192,
		ThinkingBudget: 1024,
	}
}

// Generate implements unified streaming / non-streaming generation. It
// adapts the Anthropic Messages API (with tool calling and extended
// thinking) into model.Response events.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := m.buildParams(req)

		if req.Stream {
			m.handleStreaming(ctx, params, out, errCh)
			return
		}
		m.handleNonStreaming(ctx, params, out, errCh)
	}()

	return out, errCh
}

func (m *Model) buildParams(req model.Request) anthropic.MessageNewParams {
	maxTokens := m.opts.MaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	temperature := m.opts.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	params := anthropic.MessageNewParams{
		Model:       m.opts.Model,
		Messages:    buildMessages(req.Messages),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(temperature),
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}
	// The API requires a thinking budget of at least 1024 tokens below the
	// completion cap, and rejects temperature alongside thinking.
	if req.Thinking && m.opts.ThinkingBudget >= 1024 && m.opts.ThinkingBudget < maxTokens {
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(m.opts.ThinkingBudget)
		params.Temperature = anthropic.Float(1.0)
	}
	return params
}

func (m *Model) handleStreaming(
	ctx context.Context,
	params anthropic.MessageNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	stream := m.client.Messages.NewStreaming(ctx, params)
	acc := anthropic.Message{}

	// Tool use arguments arrive as partial JSON per content block index.
	type aggTool struct {
		id, name string
		args     strings.Builder
	}
	tools := map[int64]*aggTool{}
	var textBuf strings.Builder

	for stream.Next() {
		event := stream.Current()
		if err := acc.Accumulate(event); err != nil {
			errCh <- fmt.Errorf("anthropic stream accumulate: %w", err)
			return
		}

		switch variant := event.AsAny().(type) {
		case anthropic.ContentBlockStartEvent:
			if variant.ContentBlock.Type == "tool_use" {
				tools[variant.Index] = &aggTool{
					id:   variant.ContentBlock.ID,
					name: variant.ContentBlock.Name,
				}
			}
		case anthropic.ContentBlockDeltaEvent:
			switch delta := variant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if delta.Text == "" {
					continue
				}
				textBuf.WriteString(delta.Text)
				select {
				case out <- model.Response{Partial: true, Text: delta.Text}:
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}
			case anthropic.ThinkingDelta:
				if delta.Thinking == "" {
					continue
				}
				select {
				case out <- model.Response{Partial: true, Thinking: delta.Thinking}:
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}
			case anthropic.InputJSONDelta:
				if agg, ok := tools[variant.Index]; ok {
					agg.args.WriteString(delta.PartialJSON)
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		errCh <- fmt.Errorf("anthropic streaming error: %w", err)
		return
	}

	final := model.Response{
		ID:           acc.ID,
		Partial:      false,
		Text:         textBuf.String(),
		FinishReason: finishReason(acc.StopReason),
		Usage: &model.Usage{
			InputTokens:  acc.Usage.InputTokens,
			OutputTokens: acc.Usage.OutputTokens,
			TotalTokens:  acc.Usage.InputTokens + acc.Usage.OutputTokens,
		},
	}
	// Complete tool calls come from the accumulated message so truncated
	// argument streams never surface as calls.
	for _, block := range acc.Content {
		if tu, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
			final.ToolCalls = append(final.ToolCalls, model.ToolCall{
				ID:        tu.ID,
				Name:      tu.Name,
				Arguments: string(tu.Input),
			})
		}
	}
	out <- final
}

func (m *Model) handleNonStreaming(
	ctx context.Context,
	params anthropic.MessageNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		errCh <- fmt.Errorf("anthropic api error: %w", err)
		return
	}

	final := model.Response{
		ID:           resp.ID,
		Partial:      false,
		FinishReason: finishReason(resp.StopReason),
		Usage: &model.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}

	var textBuf strings.Builder
	for _, block := range resp.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			textBuf.WriteString(variant.Text)
		case anthropic.ToolUseBlock:
			final.ToolCalls = append(final.ToolCalls, model.ToolCall{
				ID:        variant.ID,
				Name:      variant.Name,
				Arguments: string(variant.Input),
			})
		}
	}
	final.Text = textBuf.String()
	out <- final
}

// buildMessages converts conversation records to the Anthropic message
// format. System records never reach this list; tool results have already
// been re-injected as user-role records by the thread manager.
func buildMessages(messages []core.Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case "assistant":
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return out
}

func buildTools(defs []model.ToolDef) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, def := range defs {
		schema := anthropic.ToolInputSchemaParam{Type: constant.Object("object")}
		if def.Parameters != nil {
			schema.Properties = def.Parameters["properties"]
			schema.Required = requiredNames(def.Parameters["required"])
		}
		param := anthropic.ToolParam{
			Name:        def.Name,
			Description: anthropic.String(def.Description),
			InputSchema: schema,
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &param})
	}
	return out
}

func requiredNames(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		var names []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				names = append(names, s)
			}
		}
		return names
	default:
		return nil
	}
}

func finishReason(stop anthropic.StopReason) string {
	if stop == "" {
		return "stop"
	}
	return string(stop)
}

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          string(m.opts.Model),
		Provider:      "anthropic",
		SupportsTools: true,
	}
}
