// Package profile derives a family structure from a user profile. Analysis
// is pure and deterministic: no I/O, no clock, no randomness. Ages outside
// the supported child brackets are dropped rather than erred so generation
// always succeeds for any non-empty profile.
package profile

import (
	"strings"

	"github.com/Naoya-Yasuda/hera-ai-family-simulator/core"
)

// BracketForAge maps a child's age to its archetype bracket by value only:
// 3-6 Toddler, 7-12 Child, 13-15 Teen. Ages outside these ranges produce no
// child persona.
func BracketForAge(age int) (core.AgeBracket, bool) {
	switch {
	case age >= 3 && age <= 6:
		return core.BracketToddler, true
	case age >= 7 && age <= 12:
		return core.BracketChild, true
	case age >= 13 && age <= 15:
		return core.BracketTeen, true
	default:
		return "", false
	}
}

// Analyze derives the persona slots for a profile.
//
// Slot rules:
//   - Partner: present when partner info is given, when the family
//     composition names a partner, or when at least one child slot exists
//     (a child implies a co-parent).
//   - Children: one slot per child whose age falls in a supported bracket,
//     in the order given; unsupported ages are dropped.
//   - Grandparents: present per the family composition tokens
//     ("grandparents" yields both, "grandfather"/"grandmother" individually).
//
// Returns core.ErrProfileIncomplete only for a wholly empty profile: no age
// and no composition data of any kind.
func Analyze(p core.UserProfile) (core.FamilyStructure, error) {
	if p.Age == nil && len(p.FamilyComposition) == 0 && p.PartnerInfo == nil && len(p.ChildrenInfo) == 0 {
		return core.FamilyStructure{}, core.ErrProfileIncomplete
	}

	var fs core.FamilyStructure
	for _, child := range p.ChildrenInfo {
		bracket, ok := BracketForAge(child.Age)
		if !ok {
			continue
		}
		fs.Children = append(fs.Children, core.ChildSlot{Age: child.Age, Bracket: bracket})
	}

	fs.Partner = p.PartnerInfo != nil || hasToken(p.FamilyComposition, "partner") || len(fs.Children) > 0
	fs.Grandfather = hasToken(p.FamilyComposition, "grandparents") || hasToken(p.FamilyComposition, "grandfather")
	fs.Grandmother = hasToken(p.FamilyComposition, "grandparents") || hasToken(p.FamilyComposition, "grandmother")

	return fs, nil
}

func hasToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if strings.EqualFold(strings.TrimSpace(t), want) {
			return true
		}
	}
	return false
}
