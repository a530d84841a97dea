package core

import "errors"

var (
	// ErrProfileIncomplete is returned by profile analysis only when the
	// profile is wholly empty (no age and no composition data). Partial
	// profiles degrade by omitting slots instead.
	ErrProfileIncomplete = errors.New("profile incomplete: no age or family composition data")

	// ErrInvalidSeed is returned when a persona slot has no matching
	// archetype table. It aborts that persona only, never the roster.
	ErrInvalidSeed = errors.New("no archetype table for persona slot")

	// ErrCollaboratorTimeout marks a generation call that exceeded its
	// per-persona deadline. The persona is skipped for the turn.
	ErrCollaboratorTimeout = errors.New("generation collaborator timed out")

	// ErrCollaboratorFailure marks a generation call that failed outright.
	// The persona is skipped for the turn.
	ErrCollaboratorFailure = errors.New("generation collaborator failed")

	// ErrStoreWriteConflict signals a transient persistence conflict; callers
	// retry with backoff under the single-writer discipline.
	ErrStoreWriteConflict = errors.New("session store write conflict")

	// ErrSessionNotFound is returned for an unknown session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionClosed is returned when appending to a closed session.
	ErrSessionClosed = errors.New("session is closed")
)

// IsRetryable reports whether an error is a transient store condition worth
// retrying. Session-level failures surfaced to callers carry this tag.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreWriteConflict)
}
