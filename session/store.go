// Package session persists conversation sessions. Every implementation
// honors the same contract: the roster is written once at creation, the turn
// history is append-only with gap-free strictly increasing sequence numbers,
// appends for one session are serialized (single writer), and sessions are
// fully independent of each other.
package session

import (
	"github.com/Naoya-Yasuda/hera-ai-family-simulator/core"
)

// Store is the session persistence contract.
type Store interface {
	// Create opens a new session for a profile and its fixed persona roster,
	// returning the opaque session id.
	Create(profile core.UserProfile, roster []core.Persona) (string, error)

	// Append atomically appends a turn batch and applies the given
	// per-persona emotion updates, returning the sequence range assigned.
	// Returns core.ErrSessionNotFound or core.ErrSessionClosed as
	// appropriate; transient failures wrap core.ErrStoreWriteConflict.
	Append(sessionID string, batch []core.ConversationTurn, emotions map[string]core.EmotionState) (core.SeqRange, error)

	// Load returns a deep copy of the session.
	Load(sessionID string) (*core.Session, error)

	// Close flushes pending writes and marks the session terminal. Further
	// appends fail with core.ErrSessionClosed.
	Close(sessionID string) error
}

// replayEmotions restores each roster member's current emotion from its most
// recent turn snapshot. Used when rebuilding a session from durable storage,
// where the roster record intentionally does not carry runtime emotion.
func replayEmotions(roster []core.Persona, turns []core.ConversationTurn) {
	for i := range roster {
		for j := len(turns) - 1; j >= 0; j-- {
			if turns[j].SpeakerID == roster[i].ID {
				roster[i].CurrentEmotion = turns[j].Emotion
				break
			}
		}
	}
}
