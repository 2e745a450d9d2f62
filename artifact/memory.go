package artifact

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/navvy-ai/navvy/core"
)

// InMemoryStore is an in-process core.ArtifactStore useful for tests,
// examples and single-process deployments. Artifacts are kept in a nested
// map guarded by an RWMutex; each Save appends a new version rather than
// overwriting, so capabilities can revise a plan or chart while earlier
// versions stay readable. Data is copied on save and load to avoid
// external mutation of internal buffers.
//
// Layout: conversationID -> name -> versions (version N at index N-1)
type InMemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string]map[string][]core.Artifact
}

// NewInMemoryStore returns an empty in-memory artifact store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{artifacts: make(map[string]map[string][]core.Artifact)}
}

// Save appends a new version of the named artifact and returns the version
// number, starting at 1. The content type is sniffed from the data.
func (s *InMemoryStore) Save(conversationID, name string, data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.artifacts[conversationID]; !ok {
		s.artifacts[conversationID] = make(map[string][]core.Artifact)
	}

	cp := make([]byte, len(data))
	copy(cp, data)

	versions := s.artifacts[conversationID][name]
	version := len(versions) + 1
	s.artifacts[conversationID][name] = append(versions, core.Artifact{
		ConversationID: conversationID,
		Name:           name,
		Version:        version,
		MimeType:       http.DetectContentType(cp),
		Data:           cp,
		Created:        time.Now().UTC(),
	})
	return version, nil
}

// Load returns a copy of the requested artifact version. Version 0 selects
// the latest. Missing artifacts or versions yield ErrNotFound.
func (s *InMemoryStore) Load(conversationID, name string, version int) (core.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.artifacts[conversationID][name]
	if len(versions) == 0 {
		return core.Artifact{}, ErrNotFound
	}
	if version == 0 {
		version = len(versions)
	}
	if version < 1 || version > len(versions) {
		return core.Artifact{}, ErrNotFound
	}

	art := versions[version-1]
	cp := make([]byte, len(art.Data))
	copy(cp, art.Data)
	art.Data = cp
	return art, nil
}

// List returns the artifact names stored for the conversation, sorted.
func (s *InMemoryStore) List(conversationID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := s.artifacts[conversationID]
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes every version of the named artifact, or returns
// ErrNotFound when none exist.
func (s *InMemoryStore) Delete(conversationID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.artifacts[conversationID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m[name]; !ok {
		return ErrNotFound
	}
	delete(m, name)
	return nil
}
