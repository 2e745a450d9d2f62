package capabilities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navvy-ai/navvy/model"
)

func TestCreateChatCompletion(t *testing.T) {
	mock := model.NewMockModel("mock", "test")
	mock.AddResponse("Summarize: the sky is blue.", "The sky is blue.")

	env := newTestEnv(t)
	comp := CreateChatCompletion(mock)

	res := comp.Execute(env.context(), map[string]any{
		"prompt":      "Summarize: the sky is blue.",
		"temperature": 0.2,
	})
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, "The sky is blue.", res.Output)
}

func TestCreateChatCompletionInDefaultSet(t *testing.T) {
	mock := model.NewMockModel("mock", "test")
	caps := Default(func(o *Options) {
		o.Completions = mock
	})

	found := false
	for _, c := range caps {
		if c.Name() == "create_chat_completion" {
			found = true
		}
	}
	assert.True(t, found)
}
