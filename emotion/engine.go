// Package emotion implements the persona emotion model as a pure state
// transition: the next emotion state is a deterministic function of the
// persona, its session history and the incoming message. No clock, no
// randomness, no call-order dependence, so the model stays testable even
// though the feelings it simulates are open-ended.
package emotion

import (
	"math"

	"github.com/Naoya-Yasuda/hera-ai-family-simulator/core"
)

// Options tune the transition model.
type Options struct {
	// SignalWeight scales how far a matching message signal lifts intensity.
	SignalWeight float64
	// HalfLifeTurns is the number of turns over which the previous
	// intensity's excess over baseline halves when no signal matches.
	HalfLifeTurns int
	// Signal extracts the per-persona message cue. Defaults to KeywordSignal.
	Signal SignalFunc
}

// Engine computes emotion transitions. The zero-cost construction mirrors
// the rest of the module: New with functional option overrides.
type Engine struct {
	opts Options
}

// New constructs an Engine with default weights.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		SignalWeight:  0.5,
		HalfLifeTurns: 3,
		Signal:        KeywordSignal,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{opts: opts}
}

// Update returns the persona's next emotion state for an incoming message.
//
// The intensity blends three terms: the archetype baseline, the message
// signal (weighted), and the previous intensity decayed toward baseline
// with a half-life of HalfLifeTurns, counted as turns since the persona
// last spoke. The result is clamped to [0,1].
//
// The label is picked by scoring the baseline label, the signal label and
// the decayed previous label, iterating the fixed label order. The previous
// label is the incumbent: displacing it requires a strictly greater score,
// which keeps near-tied signals from flapping the label between turns.
func (e *Engine) Update(p core.Persona, history []core.ConversationTurn, message string) core.EmotionState {
	sig := e.opts.Signal(message, p)

	excess := p.CurrentEmotion.Intensity - core.BaselineIntensity
	retained := excess * math.Exp2(-float64(turnsSinceSpoke(p.ID, history))/float64(e.opts.HalfLifeTurns))
	intensity := clamp01(core.BaselineIntensity + retained + e.opts.SignalWeight*sig.Strength)

	scores := map[core.EmotionLabel]float64{}
	scores[p.SpeakingStyle.Baseline()] += core.BaselineIntensity
	if sig.Strength > 0 {
		scores[sig.Label] += e.opts.SignalWeight * sig.Strength
	}
	scores[p.CurrentEmotion.Label] += retained

	label := p.CurrentEmotion.Label
	best := scores[label]
	for _, l := range core.EmotionLabels {
		if scores[l] > best {
			label = l
			best = scores[l]
		}
	}

	return core.EmotionState{Label: label, Intensity: intensity}
}

// turnsSinceSpoke counts history turns since the persona's own last turn,
// i.e. how many turns its previous state has been decaying for. A persona
// that never spoke decays from its initial state over the whole history.
func turnsSinceSpoke(personaID string, history []core.ConversationTurn) int {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].SpeakerID == personaID {
			return len(history) - 1 - i + 1
		}
	}
	return len(history) + 1
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
