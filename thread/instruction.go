package thread

import (
	"time"

	"github.com/navvy-ai/navvy/core"
	"github.com/navvy-ai/navvy/internal/util"
)

// Provider supplies dynamic instruction text at runtime. Implementations can
// derive instructions from the request, the environment, the current date
// and so on.
type Provider interface {
	Instruction(req core.RunRequest) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as
// Providers.
type Func func(req core.RunRequest) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(req core.RunRequest) (string, error) { return f(req) }

// Instruction represents either a static instruction string or a dynamic
// provider. This mirrors a union of string | provider in a Go-idiomatic way.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(req core.RunRequest) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// NewInstructionFromTemplate creates an Instruction whose text is expanded
// per request. The template sees Message, ConversationID, ModelName and the
// current Date (UTC, 2006-01-02).
func NewInstructionFromTemplate(text string) Instruction {
	return Instruction{provider: Func(func(req core.RunRequest) (string, error) {
		return util.RenderTemplate(text, map[string]any{
			"Message":        req.Message,
			"ConversationID": req.ConversationID,
			"ModelName":      req.ModelName,
			"Date":           time.Now().UTC().Format("2006-01-02"),
		})
	})}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// IsZero reports whether the instruction carries neither text nor provider.
func (i Instruction) IsZero() bool { return i.text == "" && i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(req core.RunRequest) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(req)
	}
	return i.text, nil
}
