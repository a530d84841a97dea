package emotion

import (
	"strings"

	"github.com/Naoya-Yasuda/hera-ai-family-simulator/core"
)

// Signal is the emotional cue extracted from an incoming message for one
// persona: a label from the bounded vocabulary and a strength in [0,1].
type Signal struct {
	Label    core.EmotionLabel
	Strength float64
}

// SignalFunc extracts a Signal from a message for a persona. It must be a
// pure function; implementations are injected so an external sentiment
// source can replace the built-in keyword matcher in tests or production.
type SignalFunc func(message string, p core.Persona) Signal

var keywordBuckets = map[core.EmotionLabel][]string{
	core.EmotionHappy: {
		"fun", "happy", "great", "nice", "yay", "laugh", "smile", "thanks", "dinner together",
	},
	core.EmotionExcited: {
		"trip", "wow", "amazing", "awesome", "party", "surprise", "adventure", "can't wait",
	},
	core.EmotionLoving: {
		"love", "miss you", "hug", "together", "family",
	},
	core.EmotionCurious: {
		"why", "how", "what if", "wonder", "curious", "question",
	},
	core.EmotionWorried: {
		"worried", "sick", "tired", "problem", "trouble", "scared", "hospital", "hurt",
	},
	core.EmotionCalm: {
		"relax", "quiet", "rest", "slow down", "peaceful",
	},
	core.EmotionProud: {
		"proud", "won", "passed", "did it", "achievement",
	},
	core.EmotionNostalgic: {
		"remember", "back then", "old days", "used to", "childhood",
	},
}

const (
	keywordScore  = 3
	interestScore = 3
	maxScore      = 9
)

// KeywordSignal is the default signal extractor. It scores the message
// against per-label keyword buckets and against the persona's own interests;
// a topic the persona cares about animates it in its archetype's baseline
// register. Label selection iterates the fixed label order, so identical
// inputs always yield the identical signal.
func KeywordSignal(message string, p core.Persona) Signal {
	normalized := strings.ToLower(strings.TrimSpace(message))
	if normalized == "" {
		return Signal{Label: core.EmotionNeutral}
	}
	msgTokens := tokenize(normalized)

	scores := map[core.EmotionLabel]int{}
	for label, words := range keywordBuckets {
		for _, w := range words {
			if matches(normalized, msgTokens, w) {
				scores[label] += keywordScore
			}
		}
	}
	for _, interest := range p.Interests {
		if matches(normalized, msgTokens, strings.ToLower(interest)) {
			scores[p.SpeakingStyle.Baseline()] += interestScore
			break
		}
	}
	if strings.Contains(message, "!") {
		scores[core.EmotionExcited] += 2
	}

	best := core.EmotionNeutral
	bestScore := 0
	for _, label := range core.EmotionLabels {
		if scores[label] > bestScore {
			best = label
			bestScore = scores[label]
		}
	}
	if bestScore == 0 {
		return Signal{Label: core.EmotionNeutral}
	}
	if bestScore > maxScore {
		bestScore = maxScore
	}
	return Signal{Label: best, Strength: float64(bestScore) / maxScore}
}

// InterestMatch reports whether a message touches any of the persona's
// interests. The dispatcher shares this check for its relevance heuristic.
func InterestMatch(message string, p core.Persona) bool {
	normalized := strings.ToLower(strings.TrimSpace(message))
	msgTokens := tokenize(normalized)
	for _, interest := range p.Interests {
		if matches(normalized, msgTokens, strings.ToLower(interest)) {
			return true
		}
	}
	return false
}

// matches checks a keyword or phrase against the message. Multi-word
// phrases match by substring; single words match token-wise with a naive
// plural fold so "trip" finds "trips" and vice versa.
func matches(normalized string, msgTokens map[string]bool, phrase string) bool {
	if strings.ContainsRune(phrase, ' ') {
		if strings.Contains(normalized, phrase) {
			return true
		}
		for t := range tokenize(phrase) {
			if msgTokens[t] {
				return true
			}
		}
		return false
	}
	return msgTokens[fold(phrase)]
}

func tokenize(s string) map[string]bool {
	tokens := map[string]bool{}
	for _, raw := range strings.FieldsFunc(s, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9' || r == '\'')
	}) {
		tokens[fold(raw)] = true
	}
	return tokens
}

func fold(w string) string {
	if len(w) > 3 {
		w = strings.TrimSuffix(w, "s")
	}
	return w
}
