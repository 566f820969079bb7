// Package session holds the process-wide auth-status cell. The cell is
// written only on discrete auth events (sign-in, sign-out, the guard's
// defensive reset) and read concurrently by any number of guards.
package session

import (
	"context"
	"time"
)

// Status is the resolution of a session lookup.
type Status int

const (
	// StatusUnknown means the lookup did not resolve yet; guards deny
	// rendering but must not redirect while in this state.
	StatusUnknown Status = iota
	StatusAnonymous
	StatusAuthenticated
)

// Session is an active operator session.
type Session struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Event kinds emitted on session-state changes.
const (
	EventActivated = "activated"
	EventCleared   = "cleared"
)

// Event describes a session-state change.
type Event struct {
	Kind    string
	Subject string
}

// Cell is the injectable auth-status cell.
type Cell interface {
	// Status resolves the session behind a token. A nil error with
	// StatusUnknown signals an unresolved lookup; a non-nil error means
	// the cell itself is unreachable and callers must fail closed.
	Status(ctx context.Context, token string) (Status, *Session, error)
	Activate(ctx context.Context, s Session) error
	Clear(ctx context.Context, token string) error
	// Subscribe registers a listener for session-state changes and
	// returns an unsubscribe function.
	Subscribe(fn func(Event)) func()
}
