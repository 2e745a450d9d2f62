package thread

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navvy-ai/navvy/core"
)

func TestInstructionFromText(t *testing.T) {
	inst := NewInstructionFromText("You are helpful.")
	assert.True(t, inst.IsStatic())
	assert.False(t, inst.IsZero())

	text, err := inst.Resolve(core.RunRequest{})
	require.NoError(t, err)
	assert.Equal(t, "You are helpful.", text)
}

func TestInstructionFromFunc(t *testing.T) {
	inst := NewInstructionFromFunc(func(req core.RunRequest) (string, error) {
		return "for " + req.ConversationID, nil
	})
	assert.False(t, inst.IsStatic())

	text, err := inst.Resolve(core.RunRequest{ConversationID: "conv-9"})
	require.NoError(t, err)
	assert.Equal(t, "for conv-9", text)
}

func TestInstructionFromFuncError(t *testing.T) {
	inst := NewInstructionFromFunc(func(req core.RunRequest) (string, error) {
		return "", errors.New("unavailable")
	})
	_, err := inst.Resolve(core.RunRequest{})
	assert.Error(t, err)
}

func TestInstructionFromTemplate(t *testing.T) {
	inst := NewInstructionFromTemplate("Model {{.ModelName}} on {{.Date}}.")

	text, err := inst.Resolve(core.RunRequest{ModelName: "scripted"})
	require.NoError(t, err)
	assert.Contains(t, text, "Model scripted on ")
	assert.Contains(t, text, time.Now().UTC().Format("2006-01-02"))
}

func TestInstructionZero(t *testing.T) {
	var inst Instruction
	assert.True(t, inst.IsZero())

	text, err := inst.Resolve(core.RunRequest{})
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestBuildSystemPrompt(t *testing.T) {
	base := "You are Navvy."

	t.Run("no markup no sample", func(t *testing.T) {
		out := buildSystemPrompt(base, nil, false)
		assert.Equal(t, base, out)
	})

	t.Run("sample appended for other providers", func(t *testing.T) {
		out := buildSystemPrompt(base, nil, true)
		assert.Contains(t, out, "## Sample response")
	})

	t.Run("anthropic models skip the sample", func(t *testing.T) {
		assert.False(t, includeSampleResponse("anthropic/claude-sonnet-4"))
		assert.False(t, includeSampleResponse("Anthropic-Claude"))
		assert.True(t, includeSampleResponse("gpt-5-mini"))
	})
}
