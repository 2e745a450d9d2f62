package model

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/navvy-ai/navvy/core"
)

// ToolDef declaratively exposes a callable capability to the model.
// Parameters is a JSON Schema object (minimal subset).
type ToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolCall is a native function call surfaced by a provider, unified across
// vendors so downstream logic does not need per-provider branching.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string of arguments
}

// Request captures the normalized model input assembled by the thread
// manager: the system prompt, the model-visible conversation history and
// the declared tools.
type Request struct {
	System          string         `json:"system,omitempty"`
	Messages        []core.Message `json:"messages"`
	Tools           []ToolDef      `json:"tools,omitempty"`
	Temperature     *float64       `json:"temperature,omitempty"`
	MaxTokens       *int64         `json:"max_tokens,omitempty"`
	Thinking        bool           `json:"thinking,omitempty"`
	ReasoningEffort string         `json:"reasoning_effort,omitempty"`
	Stream          bool           `json:"stream,omitempty"`
}

// Usage captures token usage statistics for a response.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a streaming model.
// Partial chunks carry a text or thinking delta; the final chunk carries
// the full accumulated text, the complete tool calls and usage.
type Response struct {
	ID           string     `json:"id,omitempty"`
	Partial      bool       `json:"partial"`
	Text         string     `json:"text,omitempty"`
	Thinking     string     `json:"thinking,omitempty"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
	Usage        *Usage     `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface the thread manager needs to drive
// generation. Implementations stream responses on the first channel and
// report at most one terminal error on the second; both close when the
// generation finishes.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Resolver maps the model name a run requests onto a Model implementation.
type Resolver interface {
	Resolve(name string) (Model, error)
}

// StaticResolver resolves exact names first, then prefixes, then the
// fallback. It is safe for concurrent use.
type StaticResolver struct {
	mu       sync.RWMutex
	exact    map[string]Model
	prefixes map[string]Model
	fallback Model
}

// NewStaticResolver returns an empty resolver.
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{
		exact:    make(map[string]Model),
		prefixes: make(map[string]Model),
	}
}

// Register binds an exact model name to an implementation.
func (r *StaticResolver) Register(name string, m Model) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exact[name] = m
}

// RegisterPrefix binds every model name starting with prefix to an
// implementation, e.g. "claude-" to the Anthropic adapter.
func (r *StaticResolver) RegisterPrefix(prefix string, m Model) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefixes[prefix] = m
}

// SetFallback sets the model used when nothing else matches.
func (r *StaticResolver) SetFallback(m Model) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = m
}

// Resolve implements Resolver.
func (r *StaticResolver) Resolve(name string) (Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if m, ok := r.exact[name]; ok {
		return m, nil
	}
	for prefix, m := range r.prefixes {
		if strings.HasPrefix(name, prefix) {
			return m, nil
		}
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, fmt.Errorf("no model registered for %q", name)
}

// MockModel is a lightweight in-memory Model useful for tests and examples.
type MockModel struct {
	info      Info
	responses map[string]string
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// Generate implements Model; emits optional streaming rune chunks then the
// final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		if len(req.Messages) == 0 {
			errCh <- fmt.Errorf("no messages provided")
			return
		}
		input := req.Messages[len(req.Messages)-1].Content
		full := m.responses[input]
		if full == "" {
			full = fmt.Sprintf("Mock response to: %s", input)
		}
		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Text: string(r)}:
				}
			}
		}
		respCh <- Response{
			Partial:      false,
			Text:         full,
			FinishReason: "stop",
		}
	}()
	return respCh, errCh
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
