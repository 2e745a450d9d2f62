package core

import "time"

// Artifact is a named, versioned byte blob scoped to a conversation. Plans,
// rendered charts and other capability outputs are stored as artifacts so
// they survive across run attempts without living in the message log.
type Artifact struct {
	ConversationID string    `json:"conversation_id"`
	Name           string    `json:"name"`
	Version        int       `json:"version"`
	MimeType       string    `json:"mime_type,omitempty"`
	Data           []byte    `json:"data"`
	Created        time.Time `json:"created"`
}

// ArtifactStore defines the interface for artifact persistence.
// Implementations must be safe for concurrent use and scope artifacts by
// conversation identifier. Save appends a new version and returns it; Load
// with version 0 returns the latest.
type ArtifactStore interface {
	Save(conversationID, name string, data []byte) (int, error)
	Load(conversationID, name string, version int) (Artifact, error)
	List(conversationID string) ([]string, error)
	Delete(conversationID, name string) error
}
