// Package dispatch implements the turn-taking state machine that drives a
// conversation: it broadcasts an incoming user message to the session's
// roster, selects the opted-in responders, fans out to the generation
// collaborator under per-persona and turn-level deadlines, and aggregates
// the results into one deterministically ordered, atomically appended turn
// batch. Sessions are independent units of concurrency; within a session,
// turn cycles run one at a time.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/Naoya-Yasuda/hera-ai-family-simulator/core"
	"github.com/Naoya-Yasuda/hera-ai-family-simulator/emotion"
	"github.com/Naoya-Yasuda/hera-ai-family-simulator/generation"
	"github.com/Naoya-Yasuda/hera-ai-family-simulator/logging"
	"github.com/Naoya-Yasuda/hera-ai-family-simulator/session"
)

// State is the dispatcher's per-session cycle phase.
type State string

const (
	StateIdle        State = "idle"
	StateDispatching State = "dispatching"
	StateCollecting  State = "collecting"
	StateAggregating State = "aggregating"
)

// SkipReason classifies why a persona produced no turn.
type SkipReason string

const (
	SkipTimeout SkipReason = "timeout"
	SkipFailure SkipReason = "failure"
)

// SkippedPersona records a responder that opted in but produced no turn.
// Skips are always reported, never silently dropped.
type SkippedPersona struct {
	PersonaID string     `json:"persona_id"`
	Name      string     `json:"name"`
	Reason    SkipReason `json:"reason"`
	Err       string     `json:"error,omitempty"`
}

// TurnResult is the outcome of one dispatch cycle.
type TurnResult struct {
	SessionID string                  `json:"session_id"`
	Seq       core.SeqRange           `json:"seq"`
	Turns     []core.ConversationTurn `json:"turns"`
	Skipped   []SkippedPersona        `json:"skipped,omitempty"`
	// Partial is set when at least one opted-in persona was skipped; the
	// turn still succeeded with the remaining responders.
	Partial bool `json:"partial,omitempty"`
}

// Options configure a Dispatcher.
type Options struct {
	// MaxRespondersPerTurn bounds how many personas answer one message.
	MaxRespondersPerTurn int
	// PerPersonaTimeout bounds each individual collaborator call.
	PerPersonaTimeout time.Duration
	// TurnDeadline bounds the whole collection phase; personas still
	// pending when it elapses are skipped.
	TurnDeadline time.Duration
	// HistoryWindow is how many recent turns each collaborator request carries.
	HistoryWindow int
	// AppendRetries bounds retries of a conflicted session-store write.
	AppendRetries uint64
	// Engine computes per-persona emotion transitions. Defaults to emotion.New().
	Engine *emotion.Engine
	// Logger receives structured dispatch events. Defaults to NoOp.
	Logger logging.Logger
}

// Dispatcher runs dispatch cycles against a session store and a generation
// collaborator. It is safe for concurrent use across sessions; cycles for
// the same session are serialized.
type Dispatcher struct {
	store  session.Store
	collab generation.Collaborator
	opts   Options

	mu   sync.Mutex
	runs map[string]*run
}

type run struct {
	mu     sync.Mutex // serializes cycles for one session
	state  State
	cancel context.CancelFunc
}

// New creates a Dispatcher with default bounds.
func New(store session.Store, collab generation.Collaborator, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{
		MaxRespondersPerTurn: 3,
		PerPersonaTimeout:    20 * time.Second,
		TurnDeadline:         45 * time.Second,
		HistoryWindow:        12,
		AppendRetries:        3,
		Engine:               emotion.New(),
		Logger:               logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Dispatcher{
		store:  store,
		collab: collab,
		opts:   opts,
		runs:   make(map[string]*run),
	}
}

// State reports the current cycle phase for a session.
func (d *Dispatcher) State(sessionID string) State {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r, ok := d.runs[sessionID]; ok && r.state != "" {
		return r.state
	}
	return StateIdle
}

// Cancel aborts the session's in-flight cycle, if any. All pending
// collaborator calls are cancelled and the partial batch is discarded;
// already-committed turns are unaffected.
func (d *Dispatcher) Cancel(sessionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r, ok := d.runs[sessionID]; ok && r.cancel != nil {
		r.cancel()
	}
}

func (d *Dispatcher) sessionRun(sessionID string) *run {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.runs[sessionID]
	if !ok {
		r = &run{state: StateIdle}
		d.runs[sessionID] = r
	}
	return r
}

func (d *Dispatcher) setState(r *run, s State) {
	d.mu.Lock()
	r.state = s
	d.mu.Unlock()
}

// DispatchTurn runs one full cycle for an incoming user message: select
// responders, compute their next emotion states, collect utterances
// concurrently, and append the user turn plus the ordered responder turns
// as one batch. Per-persona failures and timeouts skip that persona only;
// a cancelled cycle appends nothing.
func (d *Dispatcher) DispatchTurn(ctx context.Context, sessionID, message string) (*TurnResult, error) {
	r := d.sessionRun(sessionID)
	r.mu.Lock()
	defer r.mu.Unlock()
	defer d.setState(r, StateIdle)

	sess, err := d.store.Load(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Closed() {
		return nil, core.ErrSessionClosed
	}
	log := logging.WithSession(d.opts.Logger, sessionID)

	d.setState(r, StateDispatching)
	history := sess.History()
	seq := len(history) + 1
	candidates := selectResponders(sessionID, seq, message, sess.Personas(), d.opts.MaxRespondersPerTurn)
	log.Debug("responders selected", "count", len(candidates), "seq", seq)

	// Emotion transitions are pure; compute them before any I/O so the fan
	// out only performs collaborator calls.
	emotions := make(map[string]core.EmotionState, len(candidates))
	for _, c := range candidates {
		emotions[c.persona.ID] = d.opts.Engine.Update(c.persona, history, message)
	}
	window := sess.Window(d.opts.HistoryWindow)

	turnCtx, cancel := context.WithTimeout(ctx, d.opts.TurnDeadline)
	defer cancel()
	d.registerCancel(r, cancel)
	defer d.registerCancel(r, nil)

	d.setState(r, StateCollecting)
	results := d.collect(turnCtx, candidates, emotions, window, message, false)

	// A turn-deadline expiry leaves completed responses usable (graceful
	// partial completion); an explicit cancel discards the whole batch.
	if err := ctx.Err(); err != nil {
		log.Info("dispatch cycle cancelled", "seq", seq)
		return nil, err
	}
	if errors.Is(turnCtx.Err(), context.Canceled) {
		log.Info("dispatch cycle cancelled", "seq", seq)
		return nil, context.Canceled
	}

	d.setState(r, StateAggregating)
	now := time.Now().UTC()
	batch := []core.ConversationTurn{{
		SpeakerID: core.UserSpeakerID,
		Speaker:   core.UserSpeakerID,
		Role:      core.UserSpeakerID,
		Text:      message,
		Emotion:   core.EmotionState{Label: core.EmotionNeutral},
		Timestamp: now,
	}}
	var skipped []SkippedPersona
	applied := make(map[string]core.EmotionState, len(candidates))
	for i, c := range candidates {
		res := results[i]
		if res.err != nil {
			skipped = append(skipped, skipOf(c.persona, res.err))
			log.Warn("persona skipped", "persona", c.persona.ID, "reason", string(skipped[len(skipped)-1].Reason))
			continue
		}
		applied[c.persona.ID] = emotions[c.persona.ID]
		batch = append(batch, core.ConversationTurn{
			SpeakerID: c.persona.ID,
			Speaker:   c.persona.Name,
			Role:      string(c.persona.Role),
			Text:      res.text,
			Emotion:   emotions[c.persona.ID],
			Timestamp: now,
		})
	}

	rng, err := d.append(ctx, sessionID, batch, applied)
	if err != nil {
		return nil, err
	}
	for i := range batch {
		batch[i].Seq = rng.First + i
	}
	log.Info("turn dispatched", "first_seq", rng.First, "last_seq", rng.Last, "responders", len(batch)-1, "skipped", len(skipped))

	return &TurnResult{
		SessionID: sessionID,
		Seq:       rng,
		Turns:     batch,
		Skipped:   skipped,
		Partial:   len(skipped) > 0,
	}, nil
}

// Greet produces the roster's opening lines for a brand-new session and
// appends them as the session's first batch, ordered by the standard
// persona order. Personas whose greeting fails are reported in the result's
// Skipped list; a greeting batch carries no user turn.
func (d *Dispatcher) Greet(ctx context.Context, sessionID string) (*TurnResult, error) {
	r := d.sessionRun(sessionID)
	r.mu.Lock()
	defer r.mu.Unlock()
	defer d.setState(r, StateIdle)

	sess, err := d.store.Load(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Closed() {
		return nil, core.ErrSessionClosed
	}

	roster := orderRoster(sess.Personas())
	candidates := make([]candidate, len(roster))
	emotions := make(map[string]core.EmotionState, len(roster))
	for i, p := range roster {
		candidates[i] = candidate{persona: p}
		emotions[p.ID] = p.CurrentEmotion
	}

	turnCtx, cancel := context.WithTimeout(ctx, d.opts.TurnDeadline)
	defer cancel()
	d.registerCancel(r, cancel)
	defer d.registerCancel(r, nil)

	d.setState(r, StateCollecting)
	results := d.collect(turnCtx, candidates, emotions, nil, "", true)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if errors.Is(turnCtx.Err(), context.Canceled) {
		return nil, context.Canceled
	}

	d.setState(r, StateAggregating)
	now := time.Now().UTC()
	var batch []core.ConversationTurn
	var skipped []SkippedPersona
	for i, c := range candidates {
		if results[i].err != nil {
			skipped = append(skipped, skipOf(c.persona, results[i].err))
			continue
		}
		batch = append(batch, core.ConversationTurn{
			SpeakerID: c.persona.ID,
			Speaker:   c.persona.Name,
			Role:      string(c.persona.Role),
			Text:      results[i].text,
			Emotion:   c.persona.CurrentEmotion,
			Timestamp: now,
		})
	}
	if len(batch) == 0 {
		return &TurnResult{SessionID: sessionID, Skipped: skipped, Partial: len(skipped) > 0}, nil
	}

	rng, err := d.append(ctx, sessionID, batch, nil)
	if err != nil {
		return nil, err
	}
	for i := range batch {
		batch[i].Seq = rng.First + i
	}
	return &TurnResult{SessionID: sessionID, Seq: rng, Turns: batch, Skipped: skipped, Partial: len(skipped) > 0}, nil
}

type result struct {
	text string
	err  error
}

// collect fans out one collaborator call per candidate and joins them under
// ctx. Results are indexed by candidate position, never by arrival order,
// so aggregation order stays a pure function of persona attributes.
func (d *Dispatcher) collect(ctx context.Context, candidates []candidate, emotions map[string]core.EmotionState, window []core.ConversationTurn, message string, greeting bool) []result {
	results := make([]result, len(candidates))
	var wg sync.WaitGroup
	for i, c := range candidates {
		wg.Add(1)
		go func(i int, c candidate) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, d.opts.PerPersonaTimeout)
			defer cancel()

			started := time.Now()
			resp, err := d.collab.Generate(callCtx, generation.Request{
				Persona:  c.persona,
				Emotion:  emotions[c.persona.ID],
				Window:   window,
				Message:  message,
				Greeting: greeting,
			})
			logging.LogCollaboratorCall(d.opts.Logger, c.persona.ID, time.Since(started), err)
			if err != nil {
				results[i] = result{err: classify(err)}
				return
			}
			results[i] = result{text: resp.Text}
		}(i, c)
	}
	wg.Wait()
	return results
}

// append writes the batch, retrying conflicted writes with exponential
// backoff under the store's single-writer discipline.
func (d *Dispatcher) append(ctx context.Context, sessionID string, batch []core.ConversationTurn, emotions map[string]core.EmotionState) (core.SeqRange, error) {
	var rng core.SeqRange
	backoff := retry.WithMaxRetries(d.opts.AppendRetries, retry.NewExponential(50*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		rng, err = d.store.Append(sessionID, batch, emotions)
		if core.IsRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return core.SeqRange{}, fmt.Errorf("append turn batch: %w", err)
	}
	return rng, nil
}

func (d *Dispatcher) registerCancel(r *run, cancel context.CancelFunc) {
	d.mu.Lock()
	r.cancel = cancel
	d.mu.Unlock()
}

// classify maps a collaborator error onto the module's error taxonomy.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", core.ErrCollaboratorTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	return fmt.Errorf("%w: %v", core.ErrCollaboratorFailure, err)
}

func skipOf(p core.Persona, err error) SkippedPersona {
	reason := SkipFailure
	if errors.Is(err, core.ErrCollaboratorTimeout) {
		reason = SkipTimeout
	}
	return SkippedPersona{PersonaID: p.ID, Name: p.Name, Reason: reason, Err: err.Error()}
}
