package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naoya-Yasuda/hera-ai-family-simulator/core"
)

func TestFileStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	id, err := s.Create(core.UserProfile{Residence: "Tokyo"}, storeRoster())
	require.NoError(t, err)

	_, err = s.Append(id, []core.ConversationTurn{
		{SpeakerID: core.UserSpeakerID, Text: "hello"},
		{SpeakerID: "partner", Text: "hi", Emotion: core.EmotionState{Label: core.EmotionHappy, Intensity: 0.7}},
	}, map[string]core.EmotionState{"partner": {Label: core.EmotionHappy, Intensity: 0.7}})
	require.NoError(t, err)

	// A fresh store over the same directory must rebuild the session from
	// disk, including the partner's emotion replayed from its last turn.
	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	sess, err := reopened.Load(id)
	require.NoError(t, err)

	assert.Equal(t, "Tokyo", sess.Profile.Residence)
	require.Len(t, sess.History(), 2)
	assert.Equal(t, 1, sess.History()[0].Seq)
	p, ok := sess.PersonaByID("partner")
	require.True(t, ok)
	assert.Equal(t, core.EmotionHappy, p.CurrentEmotion.Label)
	assert.Equal(t, 0.7, p.CurrentEmotion.Intensity)
}

func TestFileStore_ArtifactLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	id, err := s.Create(core.UserProfile{}, storeRoster())
	require.NoError(t, err)
	_, err = s.Append(id, []core.ConversationTurn{
		{SpeakerID: core.UserSpeakerID, Text: "one"},
	}, nil)
	require.NoError(t, err)
	_, err = s.Append(id, []core.ConversationTurn{
		{SpeakerID: "partner", Text: "two"},
	}, nil)
	require.NoError(t, err)

	meta, err := os.ReadFile(filepath.Join(dir, id, "session.json"))
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(meta, &decoded))
	assert.Equal(t, id, decoded["id"])

	raw, err := os.ReadFile(filepath.Join(dir, id, "turns.jsonl"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2, "one JSON record per line")
	var first core.ConversationTurn
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, 1, first.Seq)
	assert.Equal(t, "one", first.Text)
}

func TestFileStore_LargeBatchAppendsWholeLines(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	id, err := s.Create(core.UserProfile{}, storeRoster())
	require.NoError(t, err)

	// A batch well past any writer buffer size must still land as exactly
	// one well-formed JSON line per turn.
	batch := make([]core.ConversationTurn, 64)
	for i := range batch {
		batch[i] = core.ConversationTurn{SpeakerID: "partner", Text: strings.Repeat("a", 200)}
	}
	_, err = s.Append(id, batch, nil)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, id, "turns.jsonl"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, len(batch))
	for i, line := range lines {
		var turn core.ConversationTurn
		require.NoError(t, json.Unmarshal([]byte(line), &turn))
		assert.Equal(t, i+1, turn.Seq)
	}
}

func TestFileStore_AppendIsIncremental(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	id, err := s.Create(core.UserProfile{}, storeRoster())
	require.NoError(t, err)

	_, err = s.Append(id, []core.ConversationTurn{{SpeakerID: core.UserSpeakerID, Text: "one"}}, nil)
	require.NoError(t, err)
	before, err := os.ReadFile(filepath.Join(dir, id, "turns.jsonl"))
	require.NoError(t, err)

	_, err = s.Append(id, []core.ConversationTurn{{SpeakerID: "partner", Text: "two"}}, nil)
	require.NoError(t, err)
	after, err := os.ReadFile(filepath.Join(dir, id, "turns.jsonl"))
	require.NoError(t, err)

	// Earlier log content is never rewritten, only extended.
	assert.True(t, strings.HasPrefix(string(after), string(before)))
}

func TestFileStore_CloseSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	id, err := s.Create(core.UserProfile{}, storeRoster())
	require.NoError(t, err)
	require.NoError(t, s.Close(id))

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	sess, err := reopened.Load(id)
	require.NoError(t, err)
	assert.True(t, sess.Closed())

	_, err = reopened.Append(id, []core.ConversationTurn{{SpeakerID: core.UserSpeakerID, Text: "?"}}, nil)
	assert.True(t, errors.Is(err, core.ErrSessionClosed))
}

func TestFileStore_NotFound(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	_, err = s.Load("missing")
	assert.True(t, errors.Is(err, core.ErrSessionNotFound))
}
