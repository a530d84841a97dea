package persona

import "github.com/Naoya-Yasuda/hera-ai-family-simulator/core"

// Archetype is a role-specific template: a default trait/interest/value set,
// the candidate names seeded selection draws from, and the speaking-style
// alternatives. Selection never leaves the table.
type Archetype struct {
	Role      core.Role
	Bracket   core.AgeBracket
	FixedAge  int // 0 means the slot supplies the age
	Names     []string
	Traits    []string
	Interests []string
	Values    []string
	Styles    []core.SpeakingStyle
}

// Archetype keys. Child personas resolve by bracket; the two grandparent
// slots carry distinct tables.
const (
	KeyPartner     = "partner"
	KeyToddler     = "toddler"
	KeyChild       = "child"
	KeyTeen        = "teen"
	KeyGrandfather = "grandfather"
	KeyGrandmother = "grandmother"
)

var archetypes = map[string]Archetype{
	KeyPartner: {
		Role:    core.RolePartner,
		Bracket: core.BracketAdult,
		Names:   []string{"Misaki", "Aoi", "Haruka", "Ren", "Yuki"},
		Traits:  []string{"affectionate", "supportive", "understanding", "cooperative"},
		Interests: []string{
			"family time", "travel", "trips", "cooking", "reading",
		},
		Values: []string{"family bonds", "health", "growth", "love"},
		Styles: []core.SpeakingStyle{
			{Tone: "warm", Vocabulary: "friendly", EmotionRange: []core.EmotionLabel{core.EmotionLoving, core.EmotionCalm, core.EmotionHappy, core.EmotionProud}},
			{Tone: "cheerful", Vocabulary: "casual", EmotionRange: []core.EmotionLabel{core.EmotionHappy, core.EmotionLoving, core.EmotionExcited}},
		},
	},
	KeyToddler: {
		Role:    core.RoleChild,
		Bracket: core.BracketToddler,
		Names:   []string{"Taro", "Sakura", "Hana", "Kota"},
		Traits:  []string{"curious", "innocent", "energetic", "honest"},
		Interests: []string{
			"toys", "picture books", "park trips", "cartoons", "play",
		},
		Values: []string{"fun", "family", "play"},
		Styles: []core.SpeakingStyle{
			{Tone: "sweet", Vocabulary: "simple words", EmotionRange: []core.EmotionLabel{core.EmotionHappy, core.EmotionCurious, core.EmotionExcited}},
			{Tone: "bubbly", Vocabulary: "simple words", EmotionRange: []core.EmotionLabel{core.EmotionExcited, core.EmotionHappy, core.EmotionCurious}},
		},
	},
	KeyChild: {
		Role:    core.RoleChild,
		Bracket: core.BracketChild,
		Names:   []string{"Yuto", "Mio", "Riko", "Sora"},
		Traits:  []string{"active", "studious", "loyal to friends"},
		Interests: []string{
			"sports", "games", "school trips", "reading", "friends",
		},
		Values: []string{"friends", "learning", "sports", "family"},
		Styles: []core.SpeakingStyle{
			{Tone: "lively", Vocabulary: "age-appropriate", EmotionRange: []core.EmotionLabel{core.EmotionExcited, core.EmotionCurious, core.EmotionProud}},
			{Tone: "eager", Vocabulary: "age-appropriate", EmotionRange: []core.EmotionLabel{core.EmotionCurious, core.EmotionExcited, core.EmotionHappy}},
		},
	},
	KeyTeen: {
		Role:    core.RoleChild,
		Bracket: core.BracketTeen,
		Names:   []string{"Sota", "Ai", "Rin", "Kaito"},
		Traits:  []string{"independent", "a little cheeky", "growing up fast"},
		Interests: []string{
			"music", "sports", "social media", "friends",
		},
		Values: []string{"friends", "freedom", "growth", "family"},
		Styles: []core.SpeakingStyle{
			{Tone: "offhand", Vocabulary: "slangy", EmotionRange: []core.EmotionLabel{core.EmotionCalm, core.EmotionCurious, core.EmotionExcited}},
			{Tone: "dry", Vocabulary: "slangy", EmotionRange: []core.EmotionLabel{core.EmotionCalm, core.EmotionProud, core.EmotionHappy}},
		},
	},
	KeyGrandfather: {
		Role:     core.RoleGrandparent,
		Bracket:  core.BracketSenior,
		FixedAge: 65,
		Names:    []string{"Jiji", "Isamu", "Goro"},
		Traits:   []string{"calm", "experienced", "wise", "devoted to family"},
		Interests: []string{
			"gardening", "shogi", "walks", "reading",
		},
		Values: []string{"tradition", "family bonds", "wisdom", "health"},
		Styles: []core.SpeakingStyle{
			{Tone: "measured", Vocabulary: "polite", EmotionRange: []core.EmotionLabel{core.EmotionCalm, core.EmotionProud, core.EmotionNostalgic}},
		},
	},
	KeyGrandmother: {
		Role:     core.RoleGrandparent,
		Bracket:  core.BracketSenior,
		FixedAge: 62,
		Names:    []string{"Baba", "Kimiko", "Sumire"},
		Traits:   []string{"gentle", "loves cooking", "dotes on the grandchildren"},
		Interests: []string{
			"cooking", "sewing", "flowers", "time with grandchildren",
		},
		Values: []string{"family health", "tradition", "love", "togetherness"},
		Styles: []core.SpeakingStyle{
			{Tone: "warm", Vocabulary: "gentle words", EmotionRange: []core.EmotionLabel{core.EmotionLoving, core.EmotionWorried, core.EmotionHappy}},
		},
	},
}

// keyForBracket resolves the archetype key for a child slot.
func keyForBracket(b core.AgeBracket) (string, bool) {
	switch b {
	case core.BracketToddler:
		return KeyToddler, true
	case core.BracketChild:
		return KeyChild, true
	case core.BracketTeen:
		return KeyTeen, true
	default:
		return "", false
	}
}
