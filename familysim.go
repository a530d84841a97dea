// Package familysim provides a high-level façade over the family persona
// simulator: profile analysis, seeded persona generation, the emotion model,
// turn dispatch and session persistence. Most applications interact with
// this package by:
//  1. Creating a Simulator via New() with a generation collaborator
//  2. Starting a session from a user profile (StartSession)
//  3. Sending user messages (SendMessage) and reading back turn batches
//
// All defaults are safe for local development and testing: an in-memory
// session store and a NoOp logger. Production deployments supply a durable
// store and a structured logger.
package familysim

import (
	"context"
	"fmt"

	"github.com/Naoya-Yasuda/hera-ai-family-simulator/core"
	"github.com/Naoya-Yasuda/hera-ai-family-simulator/dispatch"
	"github.com/Naoya-Yasuda/hera-ai-family-simulator/emotion"
	"github.com/Naoya-Yasuda/hera-ai-family-simulator/generation"
	"github.com/Naoya-Yasuda/hera-ai-family-simulator/logging"
	"github.com/Naoya-Yasuda/hera-ai-family-simulator/persona"
	"github.com/Naoya-Yasuda/hera-ai-family-simulator/profile"
	"github.com/Naoya-Yasuda/hera-ai-family-simulator/session"
)

// Options configures the Simulator.
type Options struct {
	// Store holds sessions. Defaults to the in-memory store.
	Store session.Store
	// Dispatch tunes turn processing bounds.
	Dispatch func(o *dispatch.Options)
	// Engine overrides the emotion engine. Defaults to emotion.New().
	Engine *emotion.Engine
	// Logger defaults to NoOp.
	Logger logging.Logger
	// Greet controls whether StartSession appends the roster's opening
	// lines as the session's first batch. On by default.
	Greet bool
}

// Simulator is the high-level façade aggregating analysis, generation,
// dispatch and persistence.
type Simulator struct {
	opts       Options
	store      session.Store
	dispatcher *dispatch.Dispatcher
}

// New creates a Simulator driving the given generation collaborator.
func New(collab generation.Collaborator, optFns ...func(o *Options)) *Simulator {
	opts := Options{
		Store:  session.NewInMemoryStore(),
		Engine: emotion.New(),
		Logger: logging.NoOpLogger{},
		Greet:  true,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	d := dispatch.New(opts.Store, collab, func(o *dispatch.Options) {
		o.Engine = opts.Engine
		o.Logger = opts.Logger
		if opts.Dispatch != nil {
			opts.Dispatch(o)
		}
	})
	return &Simulator{opts: opts, store: opts.Store, dispatcher: d}
}

// StartResult is the outcome of creating a session. When greetings were
// collected, Skipped lists the personas whose opening line failed or timed
// out and Partial flags the incomplete batch.
type StartResult struct {
	SessionID string                    `json:"session_id"`
	Roster    []core.Persona            `json:"roster"`
	Greetings []core.ConversationTurn   `json:"greetings,omitempty"`
	Skipped   []dispatch.SkippedPersona `json:"skipped,omitempty"`
	Partial   bool                      `json:"partial,omitempty"`
}

// StartSession analyzes the profile, generates the persona roster, creates
// the session and (by default) collects each persona's opening line. A
// profile with no usable family data fails with ErrProfileIncomplete.
func (s *Simulator) StartSession(ctx context.Context, p core.UserProfile) (*StartResult, error) {
	structure, err := profile.Analyze(p)
	if err != nil {
		return nil, err
	}
	roster := persona.GenerateRoster(p, structure)

	id, err := s.store.Create(p, roster)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.opts.Logger.Info("session started", "session_id", id, "personas", len(roster))

	res := &StartResult{SessionID: id, Roster: roster}
	if s.opts.Greet {
		greet, err := s.dispatcher.Greet(ctx, id)
		if err != nil {
			return nil, err
		}
		res.Greetings = greet.Turns
		res.Skipped = greet.Skipped
		res.Partial = greet.Partial
	}
	return res, nil
}

// SendMessage runs one dispatch cycle for a user message and returns the
// appended turn batch, including any skipped personas.
func (s *Simulator) SendMessage(ctx context.Context, sessionID, message string) (*dispatch.TurnResult, error) {
	return s.dispatcher.DispatchTurn(ctx, sessionID, message)
}

// Session returns a snapshot of the session's roster, history and state.
func (s *Simulator) Session(sessionID string) (*core.Session, error) {
	return s.store.Load(sessionID)
}

// CloseSession marks the session terminal; its history stays readable.
func (s *Simulator) CloseSession(sessionID string) error {
	return s.store.Close(sessionID)
}

// Cancel aborts the session's in-flight turn, discarding its partial batch.
func (s *Simulator) Cancel(sessionID string) {
	s.dispatcher.Cancel(sessionID)
}
