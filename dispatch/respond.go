package dispatch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/Naoya-Yasuda/hera-ai-family-simulator/core"
	"github.com/Naoya-Yasuda/hera-ai-family-simulator/emotion"
)

// candidate is one roster member that opted in to respond to a message.
type candidate struct {
	persona   core.Persona
	addressed bool
}

// Need-category keyword sets. A message expressing a need pulls in the
// family member whose role answers it: life advice goes to a grandparent,
// health worries to the grandmother, work and money talk to the partner,
// play to the children.
var needKeywords = map[string][]string{
	"wisdom":  {"advice", "should i", "opinion", "experience", "wisdom", "guidance"},
	"care":    {"tired", "sick", "health", "eat", "sleep", "cold"},
	"support": {"work", "busy", "stress", "help", "decision", "money"},
	"joy":     {"play", "fun", "game", "trip", "holiday", "birthday"},
}

func needMatch(message string, p core.Persona) bool {
	lower := strings.ToLower(message)
	contains := func(category string) bool {
		for _, w := range needKeywords[category] {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}
	switch p.Role {
	case core.RoleGrandparent:
		if contains("wisdom") {
			return true
		}
		return p.ID == "grandmother" && contains("care")
	case core.RolePartner:
		return contains("support")
	case core.RoleChild:
		return contains("joy")
	}
	return false
}

// addressedPersona returns the roster member the message names directly, if
// any. Matching is case-insensitive on the persona's name; the first roster
// member named wins (roster order is itself deterministic).
func addressedPersona(message string, roster []core.Persona) (string, bool) {
	lower := strings.ToLower(message)
	for _, p := range roster {
		if p.Name != "" && strings.Contains(lower, strings.ToLower(p.Name)) {
			return p.ID, true
		}
	}
	return "", false
}

// allowance is the seeded spontaneous-participation gate: a persona with no
// relevance match still chimes in for roughly one message in three. The hash
// keys on session, turn and persona, so replaying the same conversation
// reproduces the same participants, while different turns vary who speaks.
func allowance(sessionID string, seq int, personaID string) bool {
	return xxhash.Sum64String(fmt.Sprintf("%s:%d:%s", sessionID, seq, personaID))%3 == 0
}

// selectResponders evaluates every roster member against the message and
// returns the opted-in set in final turn order: the directly addressed
// persona first, remaining responders by ascending age, ties by persona id.
// Overflow beyond max is dropped from the tail of that same order, keeping
// the most relevant voices.
func selectResponders(sessionID string, seq int, message string, roster []core.Persona, max int) []candidate {
	addressedID, _ := addressedPersona(message, roster)

	var out []candidate
	for _, p := range roster {
		addressed := p.ID == addressedID
		optIn := addressed ||
			emotion.InterestMatch(message, p) ||
			needMatch(message, p) ||
			allowance(sessionID, seq, p.ID)
		if optIn {
			out = append(out, candidate{persona: p, addressed: addressed})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.addressed != b.addressed {
			return a.addressed
		}
		if a.persona.Age != b.persona.Age {
			return a.persona.Age < b.persona.Age
		}
		return a.persona.ID < b.persona.ID
	})

	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// orderRoster returns the roster in the same deterministic order used for
// responder turns, with no addressed member. Greetings use it.
func orderRoster(roster []core.Persona) []core.Persona {
	out := make([]core.Persona, len(roster))
	copy(out, roster)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Age != out[j].Age {
			return out[i].Age < out[j].Age
		}
		return out[i].ID < out[j].ID
	})
	return out
}
