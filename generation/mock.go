package generation

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Mock is a deterministic in-memory Collaborator for tests and examples.
// Replies, per-persona latency and per-persona failures are injectable, and
// calls honor ctx cancellation so deadline behavior can be exercised.
type Mock struct {
	mu        sync.RWMutex
	replies   map[string]string
	latencies map[string]time.Duration
	failures  map[string]error
}

// NewMock constructs an empty Mock; unknown personas get a templated reply.
func NewMock() *Mock {
	return &Mock{
		replies:   map[string]string{},
		latencies: map[string]time.Duration{},
		failures:  map[string]error{},
	}
}

// SetReply registers a canned utterance for a persona id.
func (m *Mock) SetReply(personaID, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[personaID] = text
}

// SetLatency makes calls for a persona id take the given duration.
func (m *Mock) SetLatency(personaID string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies[personaID] = d
}

// SetFailure makes calls for a persona id return err.
func (m *Mock) SetFailure(personaID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[personaID] = err
}

// Generate implements Collaborator.
func (m *Mock) Generate(ctx context.Context, req Request) (Response, error) {
	m.mu.RLock()
	d := m.latencies[req.Persona.ID]
	failure := m.failures[req.Persona.ID]
	reply, ok := m.replies[req.Persona.ID]
	m.mu.RUnlock()

	if d > 0 {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case <-time.After(d):
		}
	}
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if failure != nil {
		return Response{}, failure
	}
	if !ok {
		if req.Greeting {
			reply = fmt.Sprintf("Hi, I'm %s!", req.Persona.Name)
		} else {
			reply = fmt.Sprintf("%s replies to: %s", req.Persona.Name, req.Message)
		}
	}
	return Response{Text: reply}, nil
}

// Info implements Collaborator.
func (m *Mock) Info() Info { return Info{Name: "mock", Provider: "mock"} }
