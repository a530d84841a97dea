package core

import (
	"sync"
	"time"
)

// SessionState is the lifecycle state of a session.
type SessionState string

const (
	SessionOpen   SessionState = "open"
	SessionClosed SessionState = "closed"
)

// Session is the isolated unit of conversation state for one user. The
// roster is fixed at creation; membership never changes, only each persona's
// CurrentEmotion. Turn history is append-only. It is safe for concurrent
// access.
//
// Contract:
//   - Turns and Roster accessors return defensive copies
//   - AppendTurns assigns gap-free, strictly increasing sequence numbers
//   - Clone performs deep copies for safe divergence.
type Session struct {
	ID      string             `json:"id"`
	Profile UserProfile        `json:"profile"`
	Roster  []Persona          `json:"roster"`
	Turns   []ConversationTurn `json:"turns"`
	State   SessionState       `json:"state"`
	Created time.Time          `json:"created"`
	Updated time.Time          `json:"updated"`

	mu sync.RWMutex
}

// NewSession creates an open session with a fixed roster snapshot.
func NewSession(id string, profile UserProfile, roster []Persona) *Session {
	now := time.Now().UTC()
	r := make([]Persona, len(roster))
	copy(r, roster)
	return &Session{
		ID:      id,
		Profile: profile,
		Roster:  r,
		Turns:   []ConversationTurn{},
		State:   SessionOpen,
		Created: now,
		Updated: now,
	}
}

// Closed reports whether the session has been marked terminal.
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.State == SessionClosed
}

// MarkClosed transitions the session to its terminal state.
func (s *Session) MarkClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State = SessionClosed
	s.Updated = time.Now().UTC()
}

// AppendTurns appends a batch, assigning the next sequence numbers, and
// applies the given per-persona emotion updates in the same step. Returns
// the inclusive sequence range the batch occupies. Callers serialize appends
// per session (the store's single-writer discipline).
func (s *Session) AppendTurns(batch []ConversationTurn, emotions map[string]EmotionState) SeqRange {
	s.mu.Lock()
	defer s.mu.Unlock()
	first := len(s.Turns) + 1
	for i, t := range batch {
		t.Seq = first + i
		s.Turns = append(s.Turns, t)
	}
	for i := range s.Roster {
		if e, ok := emotions[s.Roster[i].ID]; ok {
			s.Roster[i].CurrentEmotion = e
		}
	}
	s.Updated = time.Now().UTC()
	return SeqRange{First: first, Last: first + len(batch) - 1}
}

// History returns a copy of the full turn history.
func (s *Session) History() []ConversationTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := make([]ConversationTurn, len(s.Turns))
	copy(turns, s.Turns)
	return turns
}

// Window returns a copy of the most recent n turns, oldest first.
func (s *Session) Window(n int) []ConversationTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := len(s.Turns) - n
	if n <= 0 || start < 0 {
		start = 0
	}
	turns := make([]ConversationTurn, len(s.Turns)-start)
	copy(turns, s.Turns[start:])
	return turns
}

// Personas returns a copy of the roster snapshot.
func (s *Session) Personas() []Persona {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roster := make([]Persona, len(s.Roster))
	copy(roster, s.Roster)
	return roster
}

// PersonaByID looks up a roster member.
func (s *Session) PersonaByID(id string) (Persona, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.Roster {
		if p.ID == id {
			return p, true
		}
	}
	return Persona{}, false
}

// Emotions returns the current emotion snapshot of every roster member.
func (s *Session) Emotions() map[string]EmotionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]EmotionState, len(s.Roster))
	for _, p := range s.Roster {
		out[p.ID] = p.CurrentEmotion
	}
	return out
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{
		ID:      s.ID,
		Profile: s.Profile,
		Roster:  make([]Persona, len(s.Roster)),
		Turns:   make([]ConversationTurn, len(s.Turns)),
		State:   s.State,
		Created: s.Created,
		Updated: s.Updated,
	}
	copy(clone.Roster, s.Roster)
	copy(clone.Turns, s.Turns)
	return clone
}
