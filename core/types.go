package core

import "time"

// Role identifies a persona's position in the family.
type Role string

const (
	// RolePartner is the user's spouse or partner persona.
	RolePartner Role = "partner"
	// RoleChild is a child persona, further qualified by an AgeBracket.
	RoleChild Role = "child"
	// RoleGrandparent covers the grandfather and grandmother personas.
	RoleGrandparent Role = "grandparent"
)

// AgeBracket selects the archetype used for a persona. Child personas map by
// age (Toddler 3-6, Child 7-12, Teen 13-15); other roles carry a fixed bracket.
type AgeBracket string

const (
	BracketToddler AgeBracket = "toddler"
	BracketChild   AgeBracket = "child"
	BracketTeen    AgeBracket = "teen"
	BracketAdult   AgeBracket = "adult"
	BracketSenior  AgeBracket = "senior"
)

// EmotionLabel is the bounded emotion vocabulary personas may carry.
type EmotionLabel string

const (
	EmotionNeutral   EmotionLabel = "neutral"
	EmotionHappy     EmotionLabel = "happy"
	EmotionExcited   EmotionLabel = "excited"
	EmotionCalm      EmotionLabel = "calm"
	EmotionLoving    EmotionLabel = "loving"
	EmotionCurious   EmotionLabel = "curious"
	EmotionWorried   EmotionLabel = "worried"
	EmotionProud     EmotionLabel = "proud"
	EmotionNostalgic EmotionLabel = "nostalgic"
)

// EmotionLabels lists every label in a fixed order. Code that scores or
// compares labels must iterate this slice, never a map, so results are
// deterministic.
var EmotionLabels = []EmotionLabel{
	EmotionNeutral,
	EmotionHappy,
	EmotionExcited,
	EmotionCalm,
	EmotionLoving,
	EmotionCurious,
	EmotionWorried,
	EmotionProud,
	EmotionNostalgic,
}

// EmotionState is a persona's current emotion: a label from the bounded
// vocabulary plus an intensity in [0,1]. Every active persona carries a
// defined EmotionState at all times.
type EmotionState struct {
	Label     EmotionLabel `json:"label"`
	Intensity float64      `json:"intensity"`
}

// BaselineIntensity is the resting emotion intensity personas start at and
// decay toward between matching signals.
const BaselineIntensity = 0.3

// PartnerInfo describes the user's real partner, when provided.
type PartnerInfo struct {
	Name string `json:"name,omitempty"`
	Age  int    `json:"age,omitempty"`
}

// ChildInfo describes one of the user's children.
type ChildInfo struct {
	Age    int    `json:"age"`
	Gender string `json:"gender,omitempty"`
}

// UserProfile is the structured record produced by onboarding. Optional
// fields may be absent; absence is a valid value, not an error.
type UserProfile struct {
	Age               *int              `json:"age,omitempty"`
	IncomeRange       string            `json:"income_range,omitempty"`
	Lifestyle         map[string]string `json:"lifestyle,omitempty"`
	FamilyComposition []string          `json:"family_composition,omitempty"`
	PartnerInfo       *PartnerInfo      `json:"partner_info,omitempty"`
	ChildrenInfo      []ChildInfo       `json:"children_info,omitempty"`
	Hobbies           []string          `json:"hobbies,omitempty"`
	WorkStyle         string            `json:"work_style,omitempty"`
	Residence         string            `json:"residence,omitempty"`
}

// ChildSlot is one child persona slot in a family structure.
type ChildSlot struct {
	Age     int        `json:"age"`
	Bracket AgeBracket `json:"bracket"`
}

// FamilyStructure is the set of persona slots derived from a profile. It is
// a pure function of the UserProfile (see the profile package).
type FamilyStructure struct {
	Partner     bool        `json:"partner"`
	Children    []ChildSlot `json:"children"`
	Grandfather bool        `json:"grandfather"`
	Grandmother bool        `json:"grandmother"`
}

// Empty reports whether the structure yields no persona slots at all.
func (f FamilyStructure) Empty() bool {
	return !f.Partner && len(f.Children) == 0 && !f.Grandfather && !f.Grandmother
}

// SpeakingStyle is a persona's fixed voice: tone, vocabulary register and the
// emotion range its archetype naturally moves in. The first label of
// EmotionRange is the persona's baseline emotion.
type SpeakingStyle struct {
	Tone         string         `json:"tone"`
	Vocabulary   string         `json:"vocabulary"`
	EmotionRange []EmotionLabel `json:"emotion_range"`
}

// Baseline returns the persona's resting emotion label.
func (s SpeakingStyle) Baseline() EmotionLabel {
	if len(s.EmotionRange) == 0 {
		return EmotionNeutral
	}
	return s.EmotionRange[0]
}

// Persona is a generated family member. Identity fields (ID, Role,
// AgeBracket, Name, SpeakingStyle and the trait/interest/value sets) are
// immutable after generation; CurrentEmotion is the only mutable field and is
// owned by the emotion engine via the session writer path.
type Persona struct {
	ID             string        `json:"id"`
	Role           Role          `json:"role"`
	AgeBracket     AgeBracket    `json:"age_bracket"`
	Age            int           `json:"age"`
	Name           string        `json:"name"`
	Traits         []string      `json:"traits"`
	Interests      []string      `json:"interests"`
	Values         []string      `json:"values"`
	SpeakingStyle  SpeakingStyle `json:"speaking_style"`
	CurrentEmotion EmotionState  `json:"current_emotion"`
}

// UserSpeakerID is the reserved speaker id for the human user's own turns.
const UserSpeakerID = "user"

// ConversationTurn is one immutable entry of a session's history. Seq is
// assigned by the session store and is strictly increasing per session with
// no gaps or duplicates.
type ConversationTurn struct {
	Seq       int          `json:"seq"`
	SpeakerID string       `json:"speaker_id"`
	Speaker   string       `json:"speaker"`
	Role      string       `json:"role"`
	Text      string       `json:"text"`
	Emotion   EmotionState `json:"emotion"`
	Timestamp time.Time    `json:"timestamp"`
}

// SeqRange is the inclusive sequence number range a batched append produced.
type SeqRange struct {
	First int `json:"first"`
	Last  int `json:"last"`
}
