package core

import "github.com/google/uuid"

// NewID returns an opaque unique identifier for sessions. Persona ids are
// deliberately not uuid-based: they are deterministic slot names so repeated
// generation from the same profile is byte-identical.
func NewID() string {
	return uuid.NewString()
}
