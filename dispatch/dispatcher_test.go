package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naoya-Yasuda/hera-ai-family-simulator/core"
	"github.com/Naoya-Yasuda/hera-ai-family-simulator/generation"
	"github.com/Naoya-Yasuda/hera-ai-family-simulator/session"
)

func newTestDispatcher(t *testing.T, optFns ...func(o *Options)) (*Dispatcher, *generation.Mock, string) {
	t.Helper()
	store := session.NewInMemoryStore()
	id, err := store.Create(core.UserProfile{}, tripRoster())
	require.NoError(t, err)
	mock := generation.NewMock()
	return New(store, mock, optFns...), mock, id
}

func TestDispatchTurn_TripScenarioOrdering(t *testing.T) {
	d, mock, id := newTestDispatcher(t)
	// Arrival order is deliberately inverted: the youngest responder is the
	// slowest. Final order must still be ascending age.
	mock.SetLatency("child-1", 80*time.Millisecond)
	mock.SetLatency("child-2", 40*time.Millisecond)

	res, err := d.DispatchTurn(context.Background(), id, "let's plan a trip")
	require.NoError(t, err)

	require.Len(t, res.Turns, 4)
	assert.Equal(t, core.UserSpeakerID, res.Turns[0].SpeakerID)
	assert.Equal(t, "let's plan a trip", res.Turns[0].Text)
	assert.Equal(t, "child-1", res.Turns[1].SpeakerID)
	assert.Equal(t, "child-2", res.Turns[2].SpeakerID)
	assert.Equal(t, "partner", res.Turns[3].SpeakerID)
	assert.Empty(t, res.Skipped)
	assert.False(t, res.Partial)

	for i, turn := range res.Turns {
		assert.Equal(t, res.Seq.First+i, turn.Seq)
	}
	assert.Equal(t, 1, res.Seq.First)
	assert.Equal(t, 4, res.Seq.Last)
}

func TestDispatchTurn_TimeoutSkipsPersona(t *testing.T) {
	d, mock, id := newTestDispatcher(t, func(o *Options) {
		o.PerPersonaTimeout = 30 * time.Millisecond
	})
	mock.SetLatency("child-2", 200*time.Millisecond)

	res, err := d.DispatchTurn(context.Background(), id, "let's plan a trip")
	require.NoError(t, err)

	require.Len(t, res.Turns, 3) // user + child-1 + partner
	assert.Equal(t, "child-1", res.Turns[1].SpeakerID)
	assert.Equal(t, "partner", res.Turns[2].SpeakerID)

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "child-2", res.Skipped[0].PersonaID)
	assert.Equal(t, SkipTimeout, res.Skipped[0].Reason)
	assert.True(t, res.Partial)

	// Remaining turns carry contiguous sequence numbers.
	for i, turn := range res.Turns {
		assert.Equal(t, i+1, turn.Seq)
	}
}

func TestDispatchTurn_FailureSkipsPersona(t *testing.T) {
	d, mock, id := newTestDispatcher(t)
	mock.SetFailure("partner", errors.New("upstream 500"))

	res, err := d.DispatchTurn(context.Background(), id, "let's plan a trip")
	require.NoError(t, err)

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "partner", res.Skipped[0].PersonaID)
	assert.Equal(t, SkipFailure, res.Skipped[0].Reason)
	require.Len(t, res.Turns, 3)
}

func TestDispatchTurn_MaxRespondersTruncates(t *testing.T) {
	d, _, id := newTestDispatcher(t, func(o *Options) {
		o.MaxRespondersPerTurn = 1
	})

	res, err := d.DispatchTurn(context.Background(), id, "let's plan a trip")
	require.NoError(t, err)
	require.Len(t, res.Turns, 2)
	assert.Equal(t, "child-1", res.Turns[1].SpeakerID, "the youngest relevant voice is kept")
}

func TestDispatchTurn_DirectAddressFirst(t *testing.T) {
	d, _, id := newTestDispatcher(t)

	res, err := d.DispatchTurn(context.Background(), id, "Misaki, should we plan a trip?")
	require.NoError(t, err)
	require.Greater(t, len(res.Turns), 1)
	assert.Equal(t, "partner", res.Turns[1].SpeakerID)
}

func TestDispatchTurn_EmotionSnapshotsOnTurns(t *testing.T) {
	d, _, id := newTestDispatcher(t)

	res, err := d.DispatchTurn(context.Background(), id, "wow, let's plan an amazing trip!")
	require.NoError(t, err)
	for _, turn := range res.Turns[1:] {
		assert.NotEmpty(t, turn.Emotion.Label, turn.SpeakerID)
		assert.Greater(t, turn.Emotion.Intensity, 0.0, turn.SpeakerID)
	}
}

func TestDispatchTurn_ClosedSession(t *testing.T) {
	store := session.NewInMemoryStore()
	id, err := store.Create(core.UserProfile{}, tripRoster())
	require.NoError(t, err)
	require.NoError(t, store.Close(id))

	d := New(store, generation.NewMock())
	_, err = d.DispatchTurn(context.Background(), id, "hello")
	assert.True(t, errors.Is(err, core.ErrSessionClosed))
}

func TestDispatchTurn_UnknownSession(t *testing.T) {
	d := New(session.NewInMemoryStore(), generation.NewMock())
	_, err := d.DispatchTurn(context.Background(), "missing", "hello")
	assert.True(t, errors.Is(err, core.ErrSessionNotFound))
}

func TestDispatchTurn_CancelDiscardsBatch(t *testing.T) {
	store := session.NewInMemoryStore()
	id, err := store.Create(core.UserProfile{}, tripRoster())
	require.NoError(t, err)
	mock := generation.NewMock()
	for _, pid := range []string{"partner", "child-1", "child-2"} {
		mock.SetLatency(pid, 500*time.Millisecond)
	}
	d := New(store, mock)

	done := make(chan error, 1)
	go func() {
		_, err := d.DispatchTurn(context.Background(), id, "let's plan a trip")
		done <- err
	}()

	// Let the cycle reach collection before cancelling.
	time.Sleep(50 * time.Millisecond)
	d.Cancel(id)

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch did not return after cancel")
	}

	sess, err := store.Load(id)
	require.NoError(t, err)
	assert.Empty(t, sess.History(), "no partial turn may be appended")
	assert.Equal(t, StateIdle, d.State(id))
}

func TestDispatchTurn_SequentialCyclesPerSession(t *testing.T) {
	d, _, id := newTestDispatcher(t)

	first, err := d.DispatchTurn(context.Background(), id, "let's plan a trip")
	require.NoError(t, err)
	second, err := d.DispatchTurn(context.Background(), id, "a trip sounds fun")
	require.NoError(t, err)

	assert.Equal(t, first.Seq.Last+1, second.Seq.First, "batches must be contiguous")
}

// conflictStore wraps a Store and fails Append with a write conflict:
// the next `remaining` calls when positive, every call when negative.
type conflictStore struct {
	session.Store
	mu        sync.Mutex
	remaining int
	attempts  int
}

func (s *conflictStore) Append(sessionID string, batch []core.ConversationTurn, emotions map[string]core.EmotionState) (core.SeqRange, error) {
	s.mu.Lock()
	s.attempts++
	fail := s.remaining != 0
	if s.remaining > 0 {
		s.remaining--
	}
	s.mu.Unlock()
	if fail {
		return core.SeqRange{}, core.ErrStoreWriteConflict
	}
	return s.Store.Append(sessionID, batch, emotions)
}

func TestDispatchTurn_RetriesConflictedAppend(t *testing.T) {
	store := &conflictStore{Store: session.NewInMemoryStore(), remaining: 2}
	id, err := store.Create(core.UserProfile{}, tripRoster())
	require.NoError(t, err)
	d := New(store, generation.NewMock())

	res, err := d.DispatchTurn(context.Background(), id, "let's plan a trip")
	require.NoError(t, err)
	assert.Equal(t, 3, store.attempts, "two conflicts then success")
	require.Len(t, res.Turns, 4)

	sess, err := store.Load(id)
	require.NoError(t, err)
	assert.Len(t, sess.History(), 4)
}

func TestDispatchTurn_AppendRetriesExhausted(t *testing.T) {
	store := &conflictStore{Store: session.NewInMemoryStore(), remaining: -1}
	id, err := store.Create(core.UserProfile{}, tripRoster())
	require.NoError(t, err)
	d := New(store, generation.NewMock(), func(o *Options) {
		o.AppendRetries = 1
	})

	_, err = d.DispatchTurn(context.Background(), id, "let's plan a trip")
	assert.True(t, errors.Is(err, core.ErrStoreWriteConflict))
	assert.Equal(t, 2, store.attempts)

	sess, err := store.Load(id)
	require.NoError(t, err)
	assert.Empty(t, sess.History())
}

func TestGreet_OrderedRosterBatch(t *testing.T) {
	store := session.NewInMemoryStore()
	roster := []core.Persona{
		{ID: "grandfather", Name: "Jiji", Role: core.RoleGrandparent, Age: 65,
			CurrentEmotion: core.EmotionState{Label: core.EmotionCalm, Intensity: core.BaselineIntensity}},
		{ID: "child-1", Name: "Taro", Role: core.RoleChild, Age: 5,
			CurrentEmotion: core.EmotionState{Label: core.EmotionHappy, Intensity: core.BaselineIntensity}},
		{ID: "partner", Name: "Misaki", Role: core.RolePartner, Age: 34,
			CurrentEmotion: core.EmotionState{Label: core.EmotionLoving, Intensity: core.BaselineIntensity}},
	}
	id, err := store.Create(core.UserProfile{}, roster)
	require.NoError(t, err)

	d := New(store, generation.NewMock())
	res, err := d.Greet(context.Background(), id)
	require.NoError(t, err)

	require.Len(t, res.Turns, 3)
	assert.Equal(t, "child-1", res.Turns[0].SpeakerID)
	assert.Equal(t, "partner", res.Turns[1].SpeakerID)
	assert.Equal(t, "grandfather", res.Turns[2].SpeakerID)
	assert.Equal(t, 1, res.Turns[0].Seq)
	assert.Equal(t, core.EmotionCalm, res.Turns[2].Emotion.Label)
}
