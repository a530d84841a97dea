package emotion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Naoya-Yasuda/hera-ai-family-simulator/core"
)

func TestKeywordSignal_EmptyMessage(t *testing.T) {
	sig := KeywordSignal("", core.Persona{})
	assert.Equal(t, core.EmotionNeutral, sig.Label)
	assert.Zero(t, sig.Strength)
}

func TestKeywordSignal_Buckets(t *testing.T) {
	tests := []struct {
		message string
		label   core.EmotionLabel
	}{
		{"that was so much fun", core.EmotionHappy},
		{"wow, amazing", core.EmotionExcited},
		{"I love you all", core.EmotionLoving},
		{"I wonder why that happens", core.EmotionCurious},
		{"grandpa is sick and I'm worried", core.EmotionWorried},
		{"let's just rest and relax today", core.EmotionCalm},
		{"she passed the exam, so proud", core.EmotionProud},
		{"remember the old days", core.EmotionNostalgic},
	}
	for _, tt := range tests {
		sig := KeywordSignal(tt.message, core.Persona{})
		assert.Equal(t, tt.label, sig.Label, "message %q", tt.message)
		assert.Greater(t, sig.Strength, 0.0, "message %q", tt.message)
	}
}

func TestKeywordSignal_StrengthCapped(t *testing.T) {
	sig := KeywordSignal("worried sick, trouble at the hospital, he's hurt and scared", core.Persona{})
	assert.Equal(t, core.EmotionWorried, sig.Label)
	assert.Equal(t, 1.0, sig.Strength)
}

func TestKeywordSignal_InterestAnimatesBaseline(t *testing.T) {
	p := core.Persona{
		Interests: []string{"gardening"},
		SpeakingStyle: core.SpeakingStyle{
			EmotionRange: []core.EmotionLabel{core.EmotionCalm},
		},
	}
	sig := KeywordSignal("the gardening looks lovely today", p)
	assert.Equal(t, core.EmotionCalm, sig.Label)
	assert.Greater(t, sig.Strength, 0.0)
}

func TestKeywordSignal_PluralFold(t *testing.T) {
	p := core.Persona{Interests: []string{"park trips"}}
	assert.True(t, InterestMatch("let's plan a trip", p))
	assert.True(t, InterestMatch("two trips in one summer", core.Persona{Interests: []string{"trip"}}))
}

func TestKeywordSignal_Deterministic(t *testing.T) {
	p := core.Persona{Interests: []string{"travel"}}
	first := KeywordSignal("a happy family trip together!", p)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, KeywordSignal("a happy family trip together!", p))
	}
}
