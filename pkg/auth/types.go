package auth

import (
	"context"
	"time"
)

// Identity is the stable unique reference to an authenticated principal,
// independent of any particular session or token.
type Identity string

// Session is a live, time-bounded proof of authentication for an Identity.
// Its expiry and refresh lifecycle is owned entirely by the credential store;
// consumers only observe it.
type Session struct {
	Token       string    `json:"-"` // Never expose the raw token
	TokenPrefix string    `json:"token_prefix"`
	Identity    Identity  `json:"identity"`
	Email       string    `json:"email,omitempty"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	RefreshedAt time.Time `json:"refreshed_at,omitempty"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// EventType classifies credential store events
type EventType string

const (
	EventSignedOut      EventType = "SIGNED_OUT"
	EventSignedIn       EventType = "SIGNED_IN"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

// Event is emitted by the credential store on every session lifecycle change.
// Session is nil for EventSignedOut.
type Event struct {
	Type    EventType
	Session *Session
}

// CredentialStore is the boundary to the hosted authentication service. It
// holds credentials, issues and validates session tokens, and exposes a
// session-change event stream.
type CredentialStore interface {
	// CachedSession returns the locally cached session, or nil when no
	// session is present. Expected to be fast and non-blocking in practice.
	CachedSession(ctx context.Context) (*Session, error)

	// Subscribe returns a channel of session lifecycle events and an
	// unsubscribe function. Events are delivered in order.
	Subscribe() (<-chan Event, func())

	// SignOut revokes the current session. The local cache is always
	// cleared and EventSignedOut emitted, even when the remote revocation
	// fails.
	SignOut(ctx context.Context) error
}
