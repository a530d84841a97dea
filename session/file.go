package session

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Naoya-Yasuda/hera-ai-family-simulator/core"
)

// FileStore persists each session as its own directory under a base dir:
//
//	<dir>/<session-id>/session.json  profile + roster snapshot (pretty JSON)
//	<dir>/<session-id>/turns.jsonl   append-only turn log, one JSON per line
//
// The layout keeps the artifact inspectable and diffable as text, and turn
// appends never rewrite prior records. The roster snapshot carries
// generation-time state only; runtime emotion lives on each turn and is
// replayed when a session is reopened from disk.
type FileStore struct {
	dir string

	mu       sync.Mutex
	sessions map[string]*fileSession
}

type fileSession struct {
	mu   sync.Mutex
	sess *core.Session
}

type fileMeta struct {
	ID      string            `json:"id"`
	Profile core.UserProfile  `json:"profile"`
	Roster  []core.Persona    `json:"roster"`
	State   core.SessionState `json:"state"`
	Created time.Time         `json:"created"`
}

// NewFileStore opens (creating if needed) a file-backed store rooted at dir.
// Existing session directories are picked up lazily on Load/Append.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{dir: dir, sessions: make(map[string]*fileSession)}, nil
}

// Create implements Store.
func (s *FileStore) Create(profile core.UserProfile, roster []core.Persona) (string, error) {
	id := core.NewID()
	sessDir := filepath.Join(s.dir, id)
	if err := os.MkdirAll(sessDir, 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}

	sess := core.NewSession(id, profile, roster)
	meta := fileMeta{ID: id, Profile: profile, Roster: sess.Personas(), State: core.SessionOpen, Created: sess.Created}
	if err := writeMeta(sessDir, meta); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &fileSession{sess: sess}
	return id, nil
}

// Append implements Store. The turn batch is written to the log before the
// in-memory view advances, so a failed write leaves the session unchanged
// and retryable.
func (s *FileStore) Append(sessionID string, batch []core.ConversationTurn, emotions map[string]core.EmotionState) (core.SeqRange, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return core.SeqRange{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.sess.Closed() {
		return core.SeqRange{}, core.ErrSessionClosed
	}

	// Stamp the sequence numbers the in-memory append will assign.
	next := len(entry.sess.History()) + 1
	lines := make([]core.ConversationTurn, len(batch))
	for i, t := range batch {
		t.Seq = next + i
		lines[i] = t
	}
	if err := s.appendLines(sessionID, lines); err != nil {
		return core.SeqRange{}, fmt.Errorf("%w: %v", core.ErrStoreWriteConflict, err)
	}
	return entry.sess.AppendTurns(batch, emotions), nil
}

// Load implements Store.
func (s *FileStore) Load(sessionID string) (*core.Session, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return nil, err
	}
	return entry.sess.Clone(), nil
}

// Close implements Store. The closed state is recorded in the session
// metadata; the turn log itself is never rewritten.
func (s *FileStore) Close(sessionID string) error {
	entry, err := s.entry(sessionID)
	if err != nil {
		return err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.sess.MarkClosed()
	sess := entry.sess
	meta := fileMeta{ID: sess.ID, Profile: sess.Profile, Roster: sess.Personas(), State: core.SessionClosed, Created: sess.Created}
	return writeMeta(filepath.Join(s.dir, sessionID), meta)
}

func (s *FileStore) entry(sessionID string) (*fileSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.sessions[sessionID]; ok {
		return entry, nil
	}
	sess, err := s.readSession(sessionID)
	if err != nil {
		return nil, err
	}
	entry := &fileSession{sess: sess}
	s.sessions[sessionID] = entry
	return entry, nil
}

// readSession rebuilds a session from its directory.
func (s *FileStore) readSession(sessionID string) (*core.Session, error) {
	sessDir := filepath.Join(s.dir, sessionID)
	raw, err := os.ReadFile(filepath.Join(sessDir, "session.json"))
	if os.IsNotExist(err) {
		return nil, core.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read session meta: %w", err)
	}
	var meta fileMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode session meta: %w", err)
	}

	turns, err := readTurns(filepath.Join(sessDir, "turns.jsonl"))
	if err != nil {
		return nil, err
	}
	replayEmotions(meta.Roster, turns)

	sess := core.NewSession(meta.ID, meta.Profile, meta.Roster)
	sess.Created = meta.Created
	if len(turns) > 0 {
		sess.AppendTurns(turns, nil)
	}
	if meta.State == core.SessionClosed {
		sess.MarkClosed()
	}
	return sess, nil
}

func (s *FileStore) appendLines(sessionID string, turns []core.ConversationTurn) error {
	// The batch is marshaled up front and written in one call so a failed
	// append cannot leave partial lines behind for a retry to duplicate.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, t := range turns {
		if err := enc.Encode(t); err != nil {
			return err
		}
	}

	path := filepath.Join(s.dir, sessionID, "turns.jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(buf.Bytes()); err != nil {
		return err
	}
	return f.Sync()
}

func writeMeta(sessDir string, meta fileMeta) error {
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session meta: %w", err)
	}
	if err := os.WriteFile(filepath.Join(sessDir, "session.json"), raw, 0o644); err != nil {
		return fmt.Errorf("write session meta: %w", err)
	}
	return nil
}

func readTurns(path string) ([]core.ConversationTurn, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open turn log: %w", err)
	}
	defer f.Close()

	var turns []core.ConversationTurn
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var t core.ConversationTurn
		if err := json.Unmarshal(line, &t); err != nil {
			return nil, fmt.Errorf("decode turn log: %w", err)
		}
		turns = append(turns, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan turn log: %w", err)
	}
	return turns, nil
}
