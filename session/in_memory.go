package session

import (
	"sync"

	"github.com/Naoya-Yasuda/hera-ai-family-simulator/core"
)

// InMemoryStore is a volatile Store keeping sessions in a process-local map.
// Best suited for tests and ephemeral demo servers. Loads return clones so
// callers cannot mutate internal state; appends for one session serialize on
// a per-session lock while other sessions proceed independently.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memSession
}

type memSession struct {
	mu   sync.Mutex // single-writer discipline for appends and close
	sess *core.Session
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*memSession)}
}

// Create implements Store.
func (s *InMemoryStore) Create(profile core.UserProfile, roster []core.Persona) (string, error) {
	id := core.NewID()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &memSession{sess: core.NewSession(id, profile, roster)}
	return id, nil
}

// Append implements Store.
func (s *InMemoryStore) Append(sessionID string, batch []core.ConversationTurn, emotions map[string]core.EmotionState) (core.SeqRange, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return core.SeqRange{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.sess.Closed() {
		return core.SeqRange{}, core.ErrSessionClosed
	}
	return entry.sess.AppendTurns(batch, emotions), nil
}

// Load implements Store.
func (s *InMemoryStore) Load(sessionID string) (*core.Session, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return nil, err
	}
	return entry.sess.Clone(), nil
}

// Close implements Store.
func (s *InMemoryStore) Close(sessionID string) error {
	entry, err := s.entry(sessionID)
	if err != nil {
		return err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.sess.MarkClosed()
	return nil
}

func (s *InMemoryStore) entry(sessionID string) (*memSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	return entry, nil
}
