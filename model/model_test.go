package model

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navvy-ai/navvy/core"
)

func collect(t *testing.T, respCh <-chan Response, errCh <-chan error) ([]Response, error) {
	t.Helper()

	var responses []Response
	for resp := range respCh {
		responses = append(responses, resp)
	}
	return responses, <-errCh
}

func userTurn(content string) core.Message {
	return core.Message{Role: "user", Content: content}
}

func TestMockModel_NonStreaming(t *testing.T) {
	m := NewMockModel("mock-1", "mock")
	m.AddResponse("hello", "hi there")

	respCh, errCh := m.Generate(context.Background(), Request{
		Messages: []core.Message{userTurn("hello")},
	})

	responses, err := collect(t, respCh, errCh)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.False(t, responses[0].Partial)
	assert.Equal(t, "hi there", responses[0].Text)
	assert.Equal(t, "stop", responses[0].FinishReason)
}

func TestMockModel_StreamingDeltasSumToFinal(t *testing.T) {
	m := NewMockModel("mock-1", "mock")
	m.AddResponse("hello", "hi there")

	respCh, errCh := m.Generate(context.Background(), Request{
		Messages: []core.Message{userTurn("hello")},
		Stream:   true,
	})

	responses, err := collect(t, respCh, errCh)
	require.NoError(t, err)
	require.NotEmpty(t, responses)

	final := responses[len(responses)-1]
	assert.False(t, final.Partial)

	var joined strings.Builder
	for _, resp := range responses[:len(responses)-1] {
		assert.True(t, resp.Partial)
		joined.WriteString(resp.Text)
	}
	assert.Equal(t, final.Text, joined.String())
}

func TestMockModel_DefaultResponse(t *testing.T) {
	m := NewMockModel("mock-1", "mock")

	respCh, errCh := m.Generate(context.Background(), Request{
		Messages: []core.Message{userTurn("unscripted")},
	})

	responses, err := collect(t, respCh, errCh)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Contains(t, responses[0].Text, "unscripted")
}

func TestMockModel_NoMessages(t *testing.T) {
	m := NewMockModel("mock-1", "mock")

	respCh, errCh := m.Generate(context.Background(), Request{})
	responses, err := collect(t, respCh, errCh)
	assert.Empty(t, responses)
	assert.Error(t, err)
}

func TestStaticResolver(t *testing.T) {
	claude := NewMockModel("claude-proxy", "anthropic")
	gpt := NewMockModel("gpt-proxy", "openai")
	exact := NewMockModel("special", "mock")
	fallback := NewMockModel("fallback", "mock")

	r := NewStaticResolver()
	r.RegisterPrefix("claude-", claude)
	r.RegisterPrefix("gpt-", gpt)
	r.Register("claude-special", exact)

	got, err := r.Resolve("claude-special")
	require.NoError(t, err)
	assert.Same(t, exact, got, "exact match beats prefix")

	got, err = r.Resolve("claude-sonnet-4")
	require.NoError(t, err)
	assert.Same(t, claude, got)

	got, err = r.Resolve("gpt-4o")
	require.NoError(t, err)
	assert.Same(t, gpt, got)

	_, err = r.Resolve("other-provider/model")
	assert.Error(t, err)

	r.SetFallback(fallback)
	got, err = r.Resolve("other-provider/model")
	require.NoError(t, err)
	assert.Same(t, fallback, got)
}
