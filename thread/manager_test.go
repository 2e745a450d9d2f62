package thread

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navvy-ai/navvy/capability"
	"github.com/navvy-ai/navvy/compaction"
	"github.com/navvy-ai/navvy/conversation"
	"github.com/navvy-ai/navvy/core"
	"github.com/navvy-ai/navvy/model"
)

// scriptedModel replays a fixed response sequence and captures every request
// it receives.
type scriptedModel struct {
	responses []model.Response
	err       error

	mu       sync.Mutex
	requests []model.Request
}

func (m *scriptedModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	out := make(chan model.Response, len(m.responses)+1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		for _, resp := range m.responses {
			select {
			case out <- resp:
			case <-ctx.Done():
				return
			}
		}
		if m.err != nil {
			errCh <- m.err
		}
	}()

	return out, errCh
}

func (m *scriptedModel) Info() model.Info {
	return model.Info{Name: "scripted", Provider: "test", SupportsTools: true}
}

func (m *scriptedModel) lastRequest() model.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

func newTestManager(t *testing.T, scripted *scriptedModel, optFns ...func(o *ManagerOptions)) (*Manager, core.Store) {
	t.Helper()

	resolver := model.NewStaticResolver()
	resolver.Register("scripted", scripted)

	store := conversation.NewInMemoryStore()
	return NewManager(resolver, store, optFns...), store
}

func testRequest(conversationID string) core.RunRequest {
	return core.RunRequest{
		ConversationID: conversationID,
		Message:        "do the thing",
		ModelName:      "scripted",
	}
}

// drainSession collects every fragment, then the terminal error if any.
func drainSession(t *testing.T, frags <-chan core.Fragment, errs <-chan error) ([]core.Fragment, error) {
	t.Helper()

	var out []core.Fragment
	for f := range frags {
		out = append(out, f)
	}
	if err, ok := <-errs; ok && err != nil {
		return out, err
	}
	return out, nil
}

func fragmentKinds(frags []core.Fragment) []core.Kind {
	kinds := make([]core.Kind, 0, len(frags))
	for _, f := range frags {
		kinds = append(kinds, f.Kind)
	}
	return kinds
}

func findToolFragment(frags []core.Fragment, name string) (core.Fragment, bool) {
	for _, f := range frags {
		if f.Kind == core.KindTool && f.Name == name {
			return f, true
		}
	}
	return core.Fragment{}, false
}

func finalAssistant(frags []core.Fragment) (core.Fragment, bool) {
	for _, f := range frags {
		if f.Kind == core.KindAssistant && f.Content.Decoded["stream_status"] == "complete" {
			return f, true
		}
	}
	return core.Fragment{}, false
}

func TestManager_Prepare(t *testing.T) {
	mgr, store := newTestManager(t, &scriptedModel{})
	ctx := context.Background()

	req := testRequest("conv-1")
	req.ProjectID = "proj-1"
	req.Metadata = map[string]string{"origin": "test"}

	require.NoError(t, mgr.Prepare(ctx, req))

	conv, err := store.GetConversation(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "proj-1", conv.ProjectID)
	assert.Equal(t, "test", conv.Metadata["origin"])

	msgs, err := store.Messages(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, core.MessageTypeUser, msgs[0].Type)
	assert.Equal(t, "do the thing", msgs[0].Content)

	// A second run against the same conversation appends, not recreates.
	req.Message = "and another"
	require.NoError(t, mgr.Prepare(ctx, req))
	msgs, err = store.Messages(ctx, "conv-1")
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestManager_StartSession_Failures(t *testing.T) {
	mgr, store := newTestManager(t, &scriptedModel{})
	ctx := context.Background()

	t.Run("unknown model", func(t *testing.T) {
		req := testRequest("conv-unknown-model")
		req.ModelName = "no-such-model"
		_, _, err := mgr.StartSession(ctx, core.NewID(), req, core.DefaultToolPolicy())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "resolve model")
	})

	t.Run("missing conversation", func(t *testing.T) {
		_, _, err := mgr.StartSession(ctx, core.NewID(), testRequest("conv-missing"), core.DefaultToolPolicy())
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrConversationNotFound)
	})

	t.Run("empty conversation", func(t *testing.T) {
		require.NoError(t, store.CreateConversation(ctx, core.NewConversation("conv-empty", "")))
		_, _, err := mgr.StartSession(ctx, core.NewID(), testRequest("conv-empty"), core.DefaultToolPolicy())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no model-visible messages")
	})

	t.Run("invalid request", func(t *testing.T) {
		_, _, err := mgr.StartSession(ctx, core.NewID(), core.RunRequest{}, core.DefaultToolPolicy())
		require.Error(t, err)
	})
}

func TestSession_StreamsTextAndRecords(t *testing.T) {
	scripted := &scriptedModel{
		responses: []model.Response{
			{Partial: true, Text: "Hel"},
			{Partial: true, Text: "lo"},
			{Text: "Hello", FinishReason: "stop", Usage: &model.Usage{InputTokens: 3, OutputTokens: 2}},
		},
	}
	mgr, store := newTestManager(t, scripted)
	ctx := context.Background()

	req := testRequest("conv-stream")
	require.NoError(t, mgr.Prepare(ctx, req))

	runID := core.NewID()
	frags, errs, err := mgr.StartSession(ctx, runID, req, core.DefaultToolPolicy())
	require.NoError(t, err)

	got, err := drainSession(t, frags, errs)
	require.NoError(t, err)

	require.Len(t, got, 5)
	assert.Equal(t, []core.Kind{
		core.KindStatus, core.KindAssistant, core.KindAssistant, core.KindAssistant, core.KindStatus,
	}, fragmentKinds(got))

	assert.Equal(t, core.StatusStarted, got[0].Status)
	assert.Equal(t, "Hel", got[1].Content.Decoded["content"])
	assert.Equal(t, "chunk", got[1].Content.Decoded["stream_status"])
	assert.Equal(t, "lo", got[2].Content.Decoded["content"])

	final := got[3]
	assert.Equal(t, runID, final.RunID)
	assert.Equal(t, "Hello", final.Content.Decoded["content"])
	assert.Equal(t, "complete", final.Content.Decoded["stream_status"])
	assert.Equal(t, "stop", final.Content.Decoded["finish_reason"])
	assert.NotNil(t, final.Content.Decoded["usage"])

	assert.Equal(t, core.StatusCompleted, got[4].Status)

	msgs, err := store.Messages(ctx, "conv-stream")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, core.MessageTypeAssistant, msgs[1].Type)
	assert.Equal(t, "Hello", msgs[1].Content)
}

func TestSession_MarkupCallOnStream(t *testing.T) {
	var executions atomic.Int32

	registry := capability.NewRegistry()
	echo := capability.NewFunc("echo", "Echo text back.", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{"type": "string"},
		},
		"required": []string{"text"},
	}, func(ctx *capability.Context, args map[string]any) capability.Result {
		executions.Add(1)
		return capability.Success(args["text"])
	}).WithMarkup(&capability.MarkupSpec{
		Tag:      "echo-text",
		Mappings: []capability.Mapping{{Param: "text", Source: capability.SourceContent}},
	})
	require.NoError(t, registry.Register(echo))

	fullText := "working\n<echo-text>hi there</echo-text>\ndone"
	scripted := &scriptedModel{
		responses: []model.Response{
			{Partial: true, Text: "working\n<echo-"},
			{Partial: true, Text: "text>hi there</echo-text>\n"},
			{Partial: true, Text: "done"},
			{Text: fullText, FinishReason: "stop"},
		},
	}
	mgr, store := newTestManager(t, scripted, func(o *ManagerOptions) {
		o.Registry = registry
	})
	ctx := context.Background()

	req := testRequest("conv-markup")
	require.NoError(t, mgr.Prepare(ctx, req))

	frags, errs, err := mgr.StartSession(ctx, core.NewID(), req, core.DefaultToolPolicy())
	require.NoError(t, err)

	got, err := drainSession(t, frags, errs)
	require.NoError(t, err)

	assert.Equal(t, int32(1), executions.Load(), "the call runs exactly once despite re-scans")

	tool, ok := findToolFragment(got, "echo")
	require.True(t, ok, "tool fragment carries the capability name, not the tag")
	assert.Equal(t, "hi there", tool.Payload["output"])

	msgs, err := store.Messages(ctx, "conv-markup")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, fullText, msgs[1].Content)

	record := msgs[2]
	assert.Equal(t, core.MessageTypeTool, record.Type)
	assert.Equal(t, "user", record.Role)
	assert.True(t, record.ModelVisible)
	assert.Contains(t, record.Content, `<tool_result name="echo">`)
	assert.Contains(t, record.Content, "hi there")
}

func TestSession_NativeToolCalls(t *testing.T) {
	registry := capability.NewRegistry()
	adder := capability.NewFunc("adder", "Add two numbers.", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}, func(ctx *capability.Context, args map[string]any) capability.Result {
		return capability.Success(args["a"].(float64) + args["b"].(float64))
	})
	require.NoError(t, registry.Register(adder))

	scripted := &scriptedModel{
		responses: []model.Response{
			{
				FinishReason: "tool_use",
				ToolCalls: []model.ToolCall{
					{ID: "call-1", Name: "adder", Arguments: `{"a": 2, "b": 3}`},
				},
			},
		},
	}
	mgr, store := newTestManager(t, scripted, func(o *ManagerOptions) {
		o.Registry = registry
	})
	ctx := context.Background()

	req := testRequest("conv-native")
	require.NoError(t, mgr.Prepare(ctx, req))

	frags, errs, err := mgr.StartSession(ctx, core.NewID(), req, core.DefaultToolPolicy())
	require.NoError(t, err)

	got, err := drainSession(t, frags, errs)
	require.NoError(t, err)

	tool, ok := findToolFragment(got, "adder")
	require.True(t, ok)
	assert.Equal(t, "5", tool.Payload["output"])
	assert.Equal(t, "call-1", tool.Payload["call_id"])

	// No text means no assistant record; the outcome is still recorded.
	msgs, err := store.Messages(ctx, "conv-native")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, core.MessageTypeTool, msgs[1].Type)
	assert.Contains(t, msgs[1].Content, `<tool_result name="adder">`)
}

func TestSession_AssistantInjectionRole(t *testing.T) {
	registry := capability.NewRegistry()
	noop := capability.NewFunc("noop", "Do nothing.", map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}, func(ctx *capability.Context, args map[string]any) capability.Result {
		return capability.Success("ok")
	})
	require.NoError(t, registry.Register(noop))

	scripted := &scriptedModel{
		responses: []model.Response{
			{FinishReason: "tool_use", ToolCalls: []model.ToolCall{{ID: "c1", Name: "noop", Arguments: "{}"}}},
		},
	}
	mgr, store := newTestManager(t, scripted, func(o *ManagerOptions) {
		o.Registry = registry
	})
	ctx := context.Background()

	req := testRequest("conv-injection")
	require.NoError(t, mgr.Prepare(ctx, req))

	policy := core.DefaultToolPolicy()
	policy.Injection = core.InjectAssistantMessage

	frags, errs, err := mgr.StartSession(ctx, core.NewID(), req, policy)
	require.NoError(t, err)
	_, err = drainSession(t, frags, errs)
	require.NoError(t, err)

	msgs, err := store.Messages(ctx, "conv-injection")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "assistant", msgs[1].Role)
}

func TestSession_TransportError(t *testing.T) {
	scripted := &scriptedModel{
		responses: []model.Response{
			{Partial: true, Text: "partial out"},
		},
		err: errors.New("connection reset"),
	}
	mgr, store := newTestManager(t, scripted)
	ctx := context.Background()

	req := testRequest("conv-transport")
	require.NoError(t, mgr.Prepare(ctx, req))

	frags, errs, err := mgr.StartSession(ctx, core.NewID(), req, core.DefaultToolPolicy())
	require.NoError(t, err)

	got, err := drainSession(t, frags, errs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	// Chunks streamed before the failure were forwarded; nothing terminal
	// was emitted and nothing was recorded.
	_, ok := finalAssistant(got)
	assert.False(t, ok)
	for _, f := range got {
		assert.NotEqual(t, core.StatusCompleted, f.Status)
	}

	msgs, storeErr := store.Messages(ctx, "conv-transport")
	require.NoError(t, storeErr)
	assert.Len(t, msgs, 1, "only the prepared user message remains")
}

func TestSession_PromptAssembly(t *testing.T) {
	registry := capability.NewRegistry()
	echo := capability.NewFunc("echo", "Echo text back.", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{"type": "string"},
		},
	}, func(ctx *capability.Context, args map[string]any) capability.Result {
		return capability.Success(args["text"])
	}).WithMarkup(&capability.MarkupSpec{
		Tag:      "echo-text",
		Mappings: []capability.Mapping{{Param: "text", Source: capability.SourceContent}},
	})
	require.NoError(t, registry.Register(echo))

	scripted := &scriptedModel{responses: []model.Response{{Text: "ok", FinishReason: "stop"}}}
	mgr, _ := newTestManager(t, scripted, func(o *ManagerOptions) {
		o.Registry = registry
	})
	ctx := context.Background()

	req := testRequest("conv-prompt")
	require.NoError(t, mgr.Prepare(ctx, req))

	frags, errs, err := mgr.StartSession(ctx, core.NewID(), req, core.DefaultToolPolicy())
	require.NoError(t, err)
	_, err = drainSession(t, frags, errs)
	require.NoError(t, err)

	built := scripted.lastRequest()
	assert.Contains(t, built.System, "echo-text", "markup forms are declared")
	assert.Contains(t, built.System, "Sample response", "non-anthropic models get the worked example")
	require.Len(t, built.Tools, 1)
	assert.Equal(t, "echo", built.Tools[0].Name)
	assert.True(t, built.Stream)

	// History carries the prepared user message.
	require.NotEmpty(t, built.Messages)
	assert.Equal(t, "do the thing", built.Messages[len(built.Messages)-1].Content)
}

func TestSession_SystemPromptOverride(t *testing.T) {
	scripted := &scriptedModel{responses: []model.Response{{Text: "ok", FinishReason: "stop"}}}
	mgr, _ := newTestManager(t, scripted)
	ctx := context.Background()

	req := testRequest("conv-override")
	req.SystemPrompt = "You are a terse reviewer."
	require.NoError(t, mgr.Prepare(ctx, req))

	frags, errs, err := mgr.StartSession(ctx, core.NewID(), req, core.DefaultToolPolicy())
	require.NoError(t, err)
	_, err = drainSession(t, frags, errs)
	require.NoError(t, err)

	built := scripted.lastRequest()
	assert.True(t, strings.HasPrefix(built.System, "You are a terse reviewer."))
}

func TestSession_CompactionShapesHistory(t *testing.T) {
	scripted := &scriptedModel{responses: []model.Response{{Text: "ok", FinishReason: "stop"}}}

	compactor := compaction.NewCompactor(func(o *compaction.Options) {
		o.ContextWindow = 1000
	})
	mgr, store := newTestManager(t, scripted, func(o *ManagerOptions) {
		o.Compactor = compactor
	})
	ctx := context.Background()

	conv := "conv-compaction"
	require.NoError(t, store.CreateConversation(ctx, core.NewConversation(conv, "")))

	bigResult := strings.Repeat("0123456789", 6000)
	seed := []core.Message{
		core.NewUserMessage(conv, "start"),
		core.NewAssistantMessage(conv, "a1"),
		core.NewMessage(conv, core.MessageTypeTool, "user", bigResult, true),
		core.NewAssistantMessage(conv, "a2"),
		core.NewMessage(conv, core.MessageTypeTool, "user", bigResult, true),
		core.NewAssistantMessage(conv, "a3"),
		core.NewAssistantMessage(conv, "a4"),
	}
	for _, msg := range seed {
		require.NoError(t, store.AppendMessage(ctx, msg))
	}

	req := testRequest(conv)
	req.EnableContextCompaction = true
	require.NoError(t, mgr.Prepare(ctx, req))

	frags, errs, err := mgr.StartSession(ctx, core.NewID(), req, core.DefaultToolPolicy())
	require.NoError(t, err)
	_, err = drainSession(t, frags, errs)
	require.NoError(t, err)

	built := scripted.lastRequest()
	// The early result is trimmed for the model call only; the result inside
	// the protected recent window is untouched.
	assert.Contains(t, built.Messages[2].Content, "[Tool result trimmed")
	assert.Equal(t, bigResult, built.Messages[4].Content)

	stored, err := store.Messages(ctx, conv)
	require.NoError(t, err)
	assert.Equal(t, bigResult, stored[2].Content, "the persisted log is untouched")
}
