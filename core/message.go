package core

import "time"

// Message types classify records in a conversation log. Capabilities may
// append records with their own types; the declared set covers what the
// runtime itself writes.
const (
	MessageTypeUser         = "user"
	MessageTypeAssistant    = "assistant"
	MessageTypeTool         = "tool"
	MessageTypeStatus       = "status"
	MessageTypePlan         = "plan"
	MessageTypeBrowserState = "browser_state"
)

// Message is one record in a conversation's append-only log. Role is the
// model-facing conversation role, which may differ from Type: a capability
// result recorded as Type tool is re-injected with Role user under the
// user-message injection policy. ModelVisible separates records the model
// sees from out-of-band records kept for the caller only.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Type           string    `json:"type"`
	Role           string    `json:"role,omitempty"`
	Content        string    `json:"content"`
	ModelVisible   bool      `json:"model_visible"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewMessage creates a message record bound to a conversation.
func NewMessage(conversationID, msgType, role, content string, modelVisible bool) Message {
	return Message{
		ID:             NewID(),
		ConversationID: conversationID,
		Type:           msgType,
		Role:           role,
		Content:        content,
		ModelVisible:   modelVisible,
		CreatedAt:      time.Now().UTC(),
	}
}

// NewUserMessage creates a model-visible user record.
func NewUserMessage(conversationID, content string) Message {
	return NewMessage(conversationID, MessageTypeUser, "user", content, true)
}

// NewAssistantMessage creates a model-visible assistant record.
func NewAssistantMessage(conversationID, content string) Message {
	return NewMessage(conversationID, MessageTypeAssistant, "assistant", content, true)
}
