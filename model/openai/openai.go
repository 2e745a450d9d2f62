// Package openai provides an implementation of model.Model using the OpenAI
// Chat Completions API (including streaming + tool calling). It adapts
// Navvy's normalized Request/Response structures into the SDK's message
// format and back.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/navvy-ai/navvy/model"
)

// aggCall aggregates partial tool call streaming deltas (id, name,
// arguments) so complete calls can be reconstructed when the finish reason
// arrives. Internal helper (unexported).
type aggCall struct{ id, name, args string }

// Options configure the OpenAI model adapter. Fields mirror a subset of
// Chat Completion parameters intentionally kept minimal; extend via
// functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
	BaseURL             string
}

// Model wraps the OpenAI Chat Completions API behind the generic
// model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client. BaseURL
// makes the adapter usable against OpenAI-compatible gateways.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	client := openai.NewClient(clientOpts...)
	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:               openai.ChatModelGPT4o,
		Temperature:         0.7,
		MaxCompletionTokens: 8192,
	}
}

// Generate implements unified streaming / non-streaming generation.
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

// buildParams assembles the OpenAI request parameters including tool
// definitions.
func (m *Model) buildParams(req model.Request) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, msg := range req.Messages {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	maxTokens := m.opts.MaxCompletionTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	temperature := m.opts.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.opts.Model,
		Temperature:         openai.Float(temperature),
		MaxCompletionTokens: openai.Int(maxTokens),
	}
	if req.ReasoningEffort != "" {
		params.ReasoningEffort = shared.ReasoningEffort(req.ReasoningEffort)
	}
	if len(req.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
		for i, def := range req.Tools {
			tools[i] = openai.ChatCompletionToolParam{
				Type: "function",
				Function: openai.FunctionDefinitionParam{
					Name:        def.Name,
					Description: openai.String(def.Description),
					Parameters:  def.Parameters,
				},
			}
		}
		params.Tools = tools
	}
	return params
}

// handleStreaming processes streaming responses and forwards partial /
// final events.
func (m *Model) handleStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	stream := m.client.Chat.Completions.NewStreaming(ctx, params)
	var textBuf strings.Builder
	toolAgg := map[int64]*aggCall{}
	emittedFinal := false

	for stream.Next() {
		ck := stream.Current()
		for _, choice := range ck.Choices {
			if choice.Delta.Content != "" {
				textBuf.WriteString(choice.Delta.Content)
				select {
				case out <- model.Response{ID: ck.ID, Partial: true, Text: choice.Delta.Content}:
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}
			}
			for _, tc := range choice.Delta.ToolCalls {
				agg, ok := toolAgg[tc.Index]
				if !ok {
					agg = &aggCall{}
					toolAgg[tc.Index] = agg
				}
				if tc.ID != "" {
					agg.id = tc.ID
				}
				if tc.Function.Name != "" {
					agg.name = tc.Function.Name
				}
				agg.args += tc.Function.Arguments
			}
			if choice.FinishReason != "" {
				out <- m.finalResponse(ck.ID, &textBuf, toolAgg, choice.FinishReason)
				emittedFinal = true
			}
		}
	}
	if err := stream.Err(); err != nil {
		errCh <- fmt.Errorf("openai streaming error: %w", err)
		return
	}
	// Some OpenAI-compatible gateways close the stream without a finish
	// reason; emit what was accumulated so the turn still lands.
	if !emittedFinal && (textBuf.Len() > 0 || len(toolAgg) > 0) {
		out <- m.finalResponse("", &textBuf, toolAgg, "stop")
	}
}

func (m *Model) finalResponse(
	id string,
	textBuf *strings.Builder,
	toolAgg map[int64]*aggCall,
	finishReason string,
) model.Response {
	resp := model.Response{
		ID:           id,
		Partial:      false,
		Text:         textBuf.String(),
		FinishReason: finishReason,
	}
	for i := int64(0); i < int64(len(toolAgg)); i++ {
		agg, ok := toolAgg[i]
		if !ok {
			continue
		}
		resp.ToolCalls = append(resp.ToolCalls, model.ToolCall{
			ID:        agg.id,
			Name:      agg.name,
			Arguments: agg.args,
		})
	}
	return resp
}

// handleNonStreaming processes a normal (non-streaming) completion.
func (m *Model) handleNonStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		errCh <- fmt.Errorf("openai api error: %w", err)
		return
	}
	if len(resp.Choices) == 0 {
		errCh <- fmt.Errorf("no choices returned")
		return
	}

	choice := resp.Choices[0]
	final := model.Response{
		ID:           resp.ID,
		Partial:      false,
		Text:         choice.Message.Content,
		FinishReason: choice.FinishReason,
		Usage: &model.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		final.ToolCalls = append(final.ToolCalls, model.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	out <- final
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}
