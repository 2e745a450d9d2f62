package core

import "errors"

// RunRequest is the immutable input to one agent run. It is created once per
// invocation and never mutated; the run loop and model session read from it
// but write nothing back. Ambient configuration (API keys, feature flags)
// does not belong here as process state: anything a run needs arrives either
// on this struct or as an injected collaborator.
type RunRequest struct {
	// ProjectID groups conversations; informational for stores and logs.
	ProjectID string
	// ConversationID selects the append-only message log the run reads and
	// extends. Required.
	ConversationID string
	// UserID identifies the caller for the authorization gate.
	UserID string
	// Message is the user input that starts the run. Required.
	Message string
	// ModelName selects the model. Resolution happens in the model session;
	// an unknown name is a session start failure, not a validation error.
	ModelName string
	// SystemPrompt overrides the runtime's default instruction when set.
	SystemPrompt string
	// Temperature and MaxTokens are generation parameters, nil meaning
	// provider default.
	Temperature *float64
	MaxTokens   *int64
	// EnableThinking requests extended reasoning from models that support it.
	EnableThinking bool
	// ReasoningEffort tunes reasoning depth (low, medium, high) where the
	// provider accepts it.
	ReasoningEffort string
	// EnableContextCompaction turns on the context compactor for history
	// assembly.
	EnableContextCompaction bool
	// SandboxID names the execution environment capabilities run against.
	SandboxID string
	// Metadata is opaque key/value data carried through to stores and logs.
	Metadata map[string]string
}

// Validate checks the request carries the fields every run needs.
func (r RunRequest) Validate() error {
	if r.ConversationID == "" {
		return errors.New("run request: conversation id is required")
	}
	if r.Message == "" {
		return errors.New("run request: message is required")
	}
	return nil
}

// MetadataValue returns the metadata value for key, and whether it was set.
func (r RunRequest) MetadataValue(key string) (string, bool) {
	if r.Metadata == nil {
		return "", false
	}
	v, ok := r.Metadata[key]
	return v, ok
}
