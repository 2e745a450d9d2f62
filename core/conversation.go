package core

import (
	"context"
	"errors"
	"time"
)

// ErrConversationNotFound is returned by stores when the conversation
// identifier does not exist.
var ErrConversationNotFound = errors.New("conversation not found")

// Conversation is the container a run appends to. The message log itself
// lives in the Store; this struct carries identity and bookkeeping only.
type Conversation struct {
	ID        string            `json:"id"`
	ProjectID string            `json:"project_id,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Created   time.Time         `json:"created"`
	Updated   time.Time         `json:"updated"`
}

// NewConversation creates a conversation with the given ID.
func NewConversation(id, projectID string) Conversation {
	now := time.Now().UTC()
	return Conversation{ID: id, ProjectID: projectID, Metadata: map[string]string{}, Created: now, Updated: now}
}

// Store persists conversations and their ordered message logs.
//
// Contract:
//   - AppendMessage is atomic per record and preserves a total order of
//     messages per conversation; historical records are never mutated in
//     place by the runtime (capabilities that revise prior state, such as a
//     plan update, do so by appending).
//   - Messages returns the full log in append order.
//   - ModelHistory returns only model-visible records, in append order.
//   - Appending to an unknown conversation returns ErrConversationNotFound;
//     callers create conversations explicitly.
type Store interface {
	CreateConversation(ctx context.Context, conv Conversation) error
	GetConversation(ctx context.Context, id string) (Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	AppendMessage(ctx context.Context, msg Message) error
	Messages(ctx context.Context, conversationID string) ([]Message, error)
	ModelHistory(ctx context.Context, conversationID string) ([]Message, error)
}
