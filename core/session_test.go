package core

import "testing"

func testRoster() []Persona {
	return []Persona{
		{ID: "partner", Name: "Misaki", CurrentEmotion: EmotionState{Label: EmotionLoving, Intensity: BaselineIntensity}},
		{ID: "child-1", Name: "Taro", CurrentEmotion: EmotionState{Label: EmotionHappy, Intensity: BaselineIntensity}},
	}
}

func TestSession_AppendTurnsAssignsSequence(t *testing.T) {
	s := NewSession("s1", UserProfile{}, testRoster())

	rng := s.AppendTurns([]ConversationTurn{
		{SpeakerID: UserSpeakerID, Text: "hello"},
		{SpeakerID: "partner", Text: "hi"},
	}, nil)
	if rng.First != 1 || rng.Last != 2 {
		t.Fatalf("expected range 1-2, got %+v", rng)
	}

	rng = s.AppendTurns([]ConversationTurn{{SpeakerID: "child-1", Text: "hey"}}, nil)
	if rng.First != 3 || rng.Last != 3 {
		t.Fatalf("expected range 3-3, got %+v", rng)
	}

	turns := s.History()
	for i, turn := range turns {
		if turn.Seq != i+1 {
			t.Errorf("turn %d has seq %d", i, turn.Seq)
		}
	}
}

func TestSession_AppendTurnsAppliesEmotions(t *testing.T) {
	s := NewSession("s1", UserProfile{}, testRoster())

	s.AppendTurns(
		[]ConversationTurn{{SpeakerID: "partner", Text: "wow!"}},
		map[string]EmotionState{"partner": {Label: EmotionExcited, Intensity: 0.8}},
	)

	p, ok := s.PersonaByID("partner")
	if !ok {
		t.Fatal("partner missing from roster")
	}
	if p.CurrentEmotion.Label != EmotionExcited || p.CurrentEmotion.Intensity != 0.8 {
		t.Errorf("emotion not applied: %+v", p.CurrentEmotion)
	}
	if other, _ := s.PersonaByID("child-1"); other.CurrentEmotion.Label != EmotionHappy {
		t.Errorf("unrelated persona mutated: %+v", other.CurrentEmotion)
	}
}

func TestSession_Window(t *testing.T) {
	s := NewSession("s1", UserProfile{}, testRoster())
	for i := 0; i < 5; i++ {
		s.AppendTurns([]ConversationTurn{{SpeakerID: UserSpeakerID, Text: "m"}}, nil)
	}

	if got := len(s.Window(3)); got != 3 {
		t.Fatalf("expected window of 3, got %d", got)
	}
	if got := s.Window(3)[0].Seq; got != 3 {
		t.Errorf("window should start at seq 3, got %d", got)
	}
	if got := len(s.Window(10)); got != 5 {
		t.Errorf("oversized window should return all 5 turns, got %d", got)
	}
}

func TestSession_DefensiveCopies(t *testing.T) {
	s := NewSession("s1", UserProfile{}, testRoster())
	s.AppendTurns([]ConversationTurn{{SpeakerID: UserSpeakerID, Text: "hello"}}, nil)

	turns := s.History()
	turns[0].Text = "mutated"
	if s.History()[0].Text != "hello" {
		t.Error("history should be copied on read")
	}

	roster := s.Personas()
	roster[0].Name = "mutated"
	if p, _ := s.PersonaByID("partner"); p.Name != "Misaki" {
		t.Error("roster should be copied on read")
	}
}

func TestSession_Clone(t *testing.T) {
	s := NewSession("s1", UserProfile{}, testRoster())
	s.AppendTurns([]ConversationTurn{{SpeakerID: UserSpeakerID, Text: "hello"}}, nil)

	clone := s.Clone()
	if clone == s {
		t.Fatal("clone should be a different pointer")
	}
	clone.AppendTurns([]ConversationTurn{{SpeakerID: "partner", Text: "hi"}}, nil)
	if len(s.History()) != 1 {
		t.Error("original should not see clone's appended turn")
	}
}

func TestSession_MarkClosed(t *testing.T) {
	s := NewSession("s1", UserProfile{}, nil)
	if s.Closed() {
		t.Fatal("new session should be open")
	}
	s.MarkClosed()
	if !s.Closed() {
		t.Fatal("session should report closed")
	}
}
