// Package persona materializes concrete persona records from family
// structure slots. Generation is seeded and idempotent: the same profile
// always yields a byte-identical roster, which makes rosters reproducible in
// tests and re-derivable when a session resumes.
package persona

import (
	"fmt"

	"github.com/Naoya-Yasuda/hera-ai-family-simulator/core"
)

// Slot is one persona to generate: the archetype key plus the identity the
// roster will carry for it.
type Slot struct {
	Key           string
	ID            string
	Age           int
	Discriminator string
}

// SlotsFor expands a family structure into ordered generation slots.
// Persona ids are deterministic slot names (partner, child-1, child-2,
// grandfather, grandmother), unique within the session by construction.
func SlotsFor(fs core.FamilyStructure, p core.UserProfile) []Slot {
	var slots []Slot
	if fs.Partner {
		slots = append(slots, Slot{
			Key:           KeyPartner,
			ID:            "partner",
			Age:           partnerAge(p),
			Discriminator: "partner",
		})
	}
	for i, child := range fs.Children {
		key, ok := keyForBracket(child.Bracket)
		if !ok {
			key = string(child.Bracket) // resolves to no table; Generate reports ErrInvalidSeed
		}
		slots = append(slots, Slot{
			Key:           key,
			ID:            fmt.Sprintf("child-%d", i+1),
			Age:           child.Age,
			Discriminator: fmt.Sprintf("child:%d:%s", i+1, child.Bracket),
		})
	}
	if fs.Grandfather {
		slots = append(slots, Slot{Key: KeyGrandfather, ID: "grandfather", Discriminator: "grandfather"})
	}
	if fs.Grandmother {
		slots = append(slots, Slot{Key: KeyGrandmother, ID: "grandmother", Discriminator: "grandmother"})
	}
	return slots
}

func partnerAge(p core.UserProfile) int {
	if p.PartnerInfo != nil && p.PartnerInfo.Age > 0 {
		return p.PartnerInfo.Age
	}
	if p.Age != nil {
		return *p.Age
	}
	return 28
}

// Generate materializes a single persona from a slot and seed. Name and
// speaking style are picked from the archetype's documented alternatives by
// seeded index; traits, interests and values are the archetype defaults.
// Returns core.ErrInvalidSeed when the slot's key has no archetype table.
func Generate(slot Slot, seed uint64) (core.Persona, error) {
	table, ok := archetypes[slot.Key]
	if !ok {
		return core.Persona{}, fmt.Errorf("slot %q: %w", slot.Key, core.ErrInvalidSeed)
	}

	age := slot.Age
	if table.FixedAge > 0 {
		age = table.FixedAge
	}

	name := table.Names[int(seed%uint64(len(table.Names)))]
	// A different stride keeps style choice independent from name choice.
	style := table.Styles[int((seed/7)%uint64(len(table.Styles)))]

	p := core.Persona{
		ID:            slot.ID,
		Role:          table.Role,
		AgeBracket:    table.Bracket,
		Age:           age,
		Name:          name,
		Traits:        append([]string(nil), table.Traits...),
		Interests:     append([]string(nil), table.Interests...),
		Values:        append([]string(nil), table.Values...),
		SpeakingStyle: style,
		CurrentEmotion: core.EmotionState{
			Label:     style.Baseline(),
			Intensity: core.BaselineIntensity,
		},
	}
	return p, nil
}

// GenerateRoster generates every slot of a family structure. A slot whose
// generation fails is dropped without aborting the rest. Name collisions are
// resolved by deterministically advancing to the next candidate in the
// seeded ordering (never a random retry); exhausted tables fall back to a
// numbered variant so the roster stays distinct.
func GenerateRoster(p core.UserProfile, fs core.FamilyStructure) []core.Persona {
	profileSeed := ProfileSeed(p)
	taken := map[string]bool{}
	var roster []core.Persona

	for _, slot := range SlotsFor(fs, p) {
		seed := SlotSeed(profileSeed, slot.Discriminator)
		member, err := Generate(slot, seed)
		if err != nil {
			continue
		}
		member.Name = distinctName(member.Name, archetypes[slot.Key].Names, seed, taken)
		taken[member.Name] = true
		roster = append(roster, member)
	}
	return roster
}

func distinctName(name string, candidates []string, seed uint64, taken map[string]bool) string {
	if !taken[name] {
		return name
	}
	start := int(seed % uint64(len(candidates)))
	for i := 1; i < len(candidates); i++ {
		next := candidates[(start+i)%len(candidates)]
		if !taken[next] {
			return next
		}
	}
	for n := 2; ; n++ {
		numbered := fmt.Sprintf("%s %d", name, n)
		if !taken[numbered] {
			return numbered
		}
	}
}
