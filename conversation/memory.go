package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/navvy-ai/navvy/core"
)

// InMemoryStore is a volatile core.Store implementation keeping
// conversations and their message logs in process-local maps. It is safe
// for concurrent access and best suited for tests or ephemeral demo
// servers. Returned values are copies, so callers cannot mutate internal
// state.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]core.Conversation
	messages      map[string][]core.Message
}

// NewInMemoryStore constructs an empty in-memory conversation store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		conversations: make(map[string]core.Conversation),
		messages:      make(map[string][]core.Message),
	}
}

// CreateConversation registers a new conversation. Creating an existing ID
// is an error.
func (s *InMemoryStore) CreateConversation(_ context.Context, conv core.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[conv.ID]; ok {
		return fmt.Errorf("conversation already exists: %s", conv.ID)
	}
	s.conversations[conv.ID] = cloneConversation(conv)
	s.messages[conv.ID] = nil
	return nil
}

// GetConversation returns a copy of the conversation, or
// core.ErrConversationNotFound.
func (s *InMemoryStore) GetConversation(_ context.Context, id string) (core.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return core.Conversation{}, core.ErrConversationNotFound
	}
	return cloneConversation(conv), nil
}

// DeleteConversation removes the conversation and its message log.
func (s *InMemoryStore) DeleteConversation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return core.ErrConversationNotFound
	}
	delete(s.conversations, id)
	delete(s.messages, id)
	return nil
}

// AppendMessage appends one record to the conversation's log, preserving
// append order. The conversation must already exist.
func (s *InMemoryStore) AppendMessage(_ context.Context, msg core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[msg.ConversationID]
	if !ok {
		return core.ErrConversationNotFound
	}
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], msg)
	conv.Updated = time.Now().UTC()
	s.conversations[msg.ConversationID] = conv
	return nil
}

// Messages returns the full log in append order.
func (s *InMemoryStore) Messages(_ context.Context, conversationID string) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return nil, core.ErrConversationNotFound
	}
	return append([]core.Message(nil), s.messages[conversationID]...), nil
}

// ModelHistory returns only model-visible records, in append order.
func (s *InMemoryStore) ModelHistory(_ context.Context, conversationID string) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return nil, core.ErrConversationNotFound
	}

	var visible []core.Message
	for _, msg := range s.messages[conversationID] {
		if msg.ModelVisible {
			visible = append(visible, msg)
		}
	}
	return visible, nil
}

func cloneConversation(conv core.Conversation) core.Conversation {
	out := conv
	if conv.Metadata != nil {
		out.Metadata = make(map[string]string, len(conv.Metadata))
		for k, v := range conv.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
