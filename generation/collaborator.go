// Package generation defines the external text-generation collaborator that
// produces persona utterances, plus provider adapters. The core never decides
// what a persona says; it hands the collaborator a persona profile, the
// freshly computed emotion state and a bounded conversation window, and
// enforces its own deadlines around the call.
package generation

import (
	"context"

	"github.com/Naoya-Yasuda/hera-ai-family-simulator/core"
)

// Request is one persona-utterance request.
type Request struct {
	Persona core.Persona            `json:"persona"`
	Emotion core.EmotionState       `json:"emotion"`
	Window  []core.ConversationTurn `json:"window"`
	Message string                  `json:"message"`
	// Greeting asks for the persona's opening line to a brand-new session
	// instead of a reply to Message.
	Greeting bool `json:"greeting,omitempty"`
}

// Response carries the generated utterance text.
type Response struct {
	Text string `json:"text"`
}

// Info describes a collaborator implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock"
}

// Collaborator is the minimal interface the dispatcher drives. Latency is
// unbounded from the collaborator's perspective; implementations must honor
// ctx cancellation since the dispatcher applies per-persona and turn-level
// deadlines.
type Collaborator interface {
	Generate(ctx context.Context, req Request) (Response, error)
	Info() Info
}
