package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/observability"
)

// ErrNoSession is returned by operations that require a current session.
var ErrNoSession = errors.New("no current session")

// LocalCredentialStore implements CredentialStore over a SessionStore with a
// locally cached current session. Sign-in entry points (login handlers, OIDC
// callback) feed it; the resolver consumes its event stream.
type LocalCredentialStore struct {
	store  SessionStore
	logger *observability.Logger
	bcast  *broadcaster

	mu      sync.Mutex
	current *Session
}

// NewLocalCredentialStore creates a new LocalCredentialStore
func NewLocalCredentialStore(store SessionStore, logger *observability.Logger) *LocalCredentialStore {
	return &LocalCredentialStore{
		store:  store,
		logger: logger,
		bcast:  newBroadcaster(),
	}
}

// CachedSession returns the locally cached session without touching the
// backend. Fast and non-blocking.
func (c *LocalCredentialStore) CachedSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, nil
}

// Subscribe returns the credential event stream
func (c *LocalCredentialStore) Subscribe() (<-chan Event, func()) {
	return c.bcast.subscribe()
}

// SignIn issues a fresh session for the identity, caches it and emits
// EventSignedIn.
func (c *LocalCredentialStore) SignIn(ctx context.Context, identity Identity, email string) (*Session, error) {
	session, err := c.store.Issue(ctx, identity, email)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.current = session
	c.mu.Unlock()

	c.logger.WithField("identity", string(identity)).Info("signed in")
	c.bcast.publish(Event{Type: EventSignedIn, Session: session})
	return session, nil
}

// AdoptToken validates an existing raw token (e.g. presented by a returning
// browser) and adopts its session as current, emitting EventSignedIn.
func (c *LocalCredentialStore) AdoptToken(ctx context.Context, token string) (*Session, error) {
	session, err := c.store.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.current = session
	c.mu.Unlock()

	c.bcast.publish(Event{Type: EventSignedIn, Session: session})
	return session, nil
}

// Refresh extends the current session and emits EventTokenRefreshed.
func (c *LocalCredentialStore) Refresh(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	current := c.current
	c.mu.Unlock()
	if current == nil {
		return nil, ErrNoSession
	}

	session, err := c.store.Refresh(ctx, current.Token)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.current = session
	c.mu.Unlock()

	c.bcast.publish(Event{Type: EventTokenRefreshed, Session: session})
	return session, nil
}

// SignOut revokes the current session remotely. The local cache is cleared
// and EventSignedOut emitted unconditionally, so a failed remote revocation
// never leaves the caller stuck authenticated.
func (c *LocalCredentialStore) SignOut(ctx context.Context) error {
	c.mu.Lock()
	current := c.current
	c.current = nil
	c.mu.Unlock()

	var remoteErr error
	if current != nil {
		if remoteErr = c.store.Revoke(ctx, current.Token); remoteErr != nil {
			c.logger.WithError(remoteErr).Warn("remote session revocation failed; local sign-out proceeds")
		}
	}

	c.bcast.publish(Event{Type: EventSignedOut})
	return remoteErr
}

// Close terminates all subscriber channels
func (c *LocalCredentialStore) Close() {
	c.bcast.close()
}
