package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naoya-Yasuda/hera-ai-family-simulator/core"
)

func tripRoster() []core.Persona {
	return []core.Persona{
		{ID: "partner", Name: "Misaki", Role: core.RolePartner, Age: 34, Interests: []string{"travel", "trips"}},
		{ID: "child-1", Name: "Taro", Role: core.RoleChild, Age: 5, Interests: []string{"park trips", "toys"}},
		{ID: "child-2", Name: "Yuto", Role: core.RoleChild, Age: 9, Interests: []string{"school trips", "games"}},
	}
}

func TestSelectResponders_TripScenario(t *testing.T) {
	out := selectResponders("sess", 1, "let's plan a trip", tripRoster(), 3)
	require.Len(t, out, 3)
	assert.Equal(t, "child-1", out[0].persona.ID)
	assert.Equal(t, "child-2", out[1].persona.ID)
	assert.Equal(t, "partner", out[2].persona.ID)
}

func TestSelectResponders_DirectAddressFirst(t *testing.T) {
	out := selectResponders("sess", 1, "Misaki, let's plan a trip", tripRoster(), 3)
	require.NotEmpty(t, out)
	assert.Equal(t, "partner", out[0].persona.ID)
	assert.True(t, out[0].addressed)
}

func TestSelectResponders_TruncatesFromTail(t *testing.T) {
	out := selectResponders("sess", 1, "let's plan a trip", tripRoster(), 2)
	require.Len(t, out, 2)
	assert.Equal(t, "child-1", out[0].persona.ID)
	assert.Equal(t, "child-2", out[1].persona.ID)
}

func TestSelectResponders_AgeTieBreaksOnID(t *testing.T) {
	roster := []core.Persona{
		{ID: "child-2", Name: "Yuto", Role: core.RoleChild, Age: 9, Interests: []string{"games"}},
		{ID: "child-1", Name: "Mio", Role: core.RoleChild, Age: 9, Interests: []string{"games"}},
	}
	out := selectResponders("sess", 1, "who wants to play a game", roster, 3)
	require.Len(t, out, 2)
	assert.Equal(t, "child-1", out[0].persona.ID)
	assert.Equal(t, "child-2", out[1].persona.ID)
}

func TestSelectResponders_Deterministic(t *testing.T) {
	first := selectResponders("sess", 7, "hello everyone", tripRoster(), 3)
	for i := 0; i < 20; i++ {
		again := selectResponders("sess", 7, "hello everyone", tripRoster(), 3)
		require.Len(t, again, len(first))
		for j := range first {
			assert.Equal(t, first[j].persona.ID, again[j].persona.ID)
		}
	}
}

func TestNeedMatch_RoutesByRole(t *testing.T) {
	partner := core.Persona{ID: "partner", Role: core.RolePartner}
	grandfather := core.Persona{ID: "grandfather", Role: core.RoleGrandparent}
	grandmother := core.Persona{ID: "grandmother", Role: core.RoleGrandparent}
	child := core.Persona{ID: "child-1", Role: core.RoleChild}

	assert.True(t, needMatch("I need some advice about this", grandfather))
	assert.True(t, needMatch("I need some advice about this", grandmother))
	assert.True(t, needMatch("I'm so tired lately", grandmother))
	assert.False(t, needMatch("I'm so tired lately", grandfather))
	assert.True(t, needMatch("work has been stressful", partner))
	assert.True(t, needMatch("let's play a game", child))
	assert.False(t, needMatch("let's play a game", partner))
}

func TestOrderRoster_AscendingAge(t *testing.T) {
	ordered := orderRoster([]core.Persona{
		{ID: "grandfather", Age: 65},
		{ID: "child-1", Age: 5},
		{ID: "partner", Age: 34},
	})
	require.Len(t, ordered, 3)
	assert.Equal(t, "child-1", ordered[0].ID)
	assert.Equal(t, "partner", ordered[1].ID)
	assert.Equal(t, "grandfather", ordered[2].ID)
}
