package core

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the fragment variants emitted while a model session is
// being driven. Kinds outside the declared set are legal and pass through the
// run loop untouched.
type Kind string

const (
	// KindStatus marks lifecycle and error notifications.
	KindStatus Kind = "status"
	// KindAssistant marks partial or complete assistant-authored content.
	KindAssistant Kind = "assistant"
	// KindTool marks capability execution outcomes.
	KindTool Kind = "tool"
)

// Status codes carried by status fragments. Only StatusError influences the
// run loop; the rest are informational.
type Status string

const (
	// StatusStarted signals a model session attempt has begun.
	StatusStarted Status = "started"
	// StatusCompleted signals a model session attempt finished normally.
	StatusCompleted Status = "completed"
	// StatusStopped signals the run loop decided to stop.
	StatusStopped Status = "stopped"
	// StatusError signals an upstream failure; observing one stops the run
	// after the current attempt finishes draining.
	StatusError Status = "error"
)

// Fragment is one incremental unit of output from a run. After emission it
// should be treated as immutable. Fragments are produced in strict order by
// the model session and forwarded to the caller in that same order, each
// exactly once.
type Fragment struct {
	ID        string         `json:"id"`
	RunID     string         `json:"run_id,omitempty"`
	Kind      Kind           `json:"type"`
	Status    Status         `json:"status,omitempty"`  // set when Kind == KindStatus
	Message   string         `json:"message,omitempty"` // human-readable detail for status fragments
	Content   Envelope       `json:"content,omitempty"` // assistant payload when Kind == KindAssistant
	Name      string         `json:"name,omitempty"`    // capability name when Kind == KindTool
	Payload   map[string]any `json:"payload,omitempty"` // tool outcome or pass-through body
	Timestamp time.Time      `json:"timestamp"`
}

// NewFragment creates a bare fragment of the given kind bound to a run.
// Prefer the helper constructors for the common variants.
func NewFragment(runID string, kind Kind) Fragment {
	return Fragment{
		ID:        NewID(),
		RunID:     runID,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
}

// NewStatusFragment constructs a lifecycle notification.
func NewStatusFragment(runID string, status Status, message string) Fragment {
	f := NewFragment(runID, KindStatus)
	f.Status = status
	f.Message = message
	return f
}

// NewErrorFragment constructs a status fragment carrying an error.
func NewErrorFragment(runID, message string) Fragment {
	return NewStatusFragment(runID, StatusError, message)
}

// NewAssistantFragment constructs an assistant fragment from an envelope.
func NewAssistantFragment(runID string, content Envelope) Fragment {
	f := NewFragment(runID, KindAssistant)
	f.Content = content
	return f
}

// NewAssistantTextFragment constructs an assistant fragment whose envelope
// wraps plain text in the decoded form.
func NewAssistantTextFragment(runID, text string) Fragment {
	return NewAssistantFragment(runID, TextEnvelope("assistant", text))
}

// NewToolFragment constructs a capability outcome fragment.
func NewToolFragment(runID, name string, payload map[string]any) Fragment {
	f := NewFragment(runID, KindTool)
	f.Name = name
	f.Payload = payload
	return f
}

// NewID generates a new unique identifier for fragments, messages, runs and
// conversations.
func NewID() string { return uuid.NewString() }

// IsError reports whether the fragment is a status fragment carrying an
// error code.
func (f Fragment) IsError() bool {
	return f.Kind == KindStatus && f.Status == StatusError
}

// IsAssistant reports whether the fragment carries assistant-authored content.
func (f Fragment) IsAssistant() bool { return f.Kind == KindAssistant }

// UnixSeconds returns the timestamp as fractional seconds since the Unix
// epoch, for metrics and numeric serialization paths.
func (f Fragment) UnixSeconds() float64 { return float64(f.Timestamp.UnixNano()) / 1e9 }
