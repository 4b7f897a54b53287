// Package auth provides session management for the console: opaque session
// tokens, a PostgreSQL-backed session store, and the CredentialStore
// boundary consumed by the session resolver.
//
// # Sessions
//
// A Session is a live, time-bounded proof of authentication for an Identity.
// Tokens have the form atendi_[base64url(32 random bytes)] and are stored as
// SHA256 hashes only:
//
//	store := auth.NewPostgresSessionStore(db, 24*time.Hour)
//	session, err := store.Issue(ctx, identity, email)
//	// session.Token is shown once; the store keeps its hash
//
// # Credential store
//
// LocalCredentialStore implements the CredentialStore boundary: it caches the
// current session locally and broadcasts typed lifecycle events
// (SIGNED_IN, TOKEN_REFRESHED, SIGNED_OUT) to subscribers:
//
//	creds := auth.NewLocalCredentialStore(store, logger)
//	events, unsubscribe := creds.Subscribe()
//	defer unsubscribe()
//
// Sign-out always succeeds locally: the cache is cleared and SIGNED_OUT
// emitted even when the remote revocation fails.
//
// # Operator sign-in
//
// OIDCAuthenticator verifies platform-operator logins against an external
// identity provider and maps the token subject to an Identity. Tenant admins
// present session tokens directly (AdoptToken) after provisioning.
//
// Schema:
//
//	CREATE TABLE sessions (
//	    token_hash   TEXT PRIMARY KEY,
//	    token_prefix TEXT NOT NULL,
//	    identity     TEXT NOT NULL,
//	    email        TEXT NOT NULL DEFAULT '',
//	    issued_at    TIMESTAMPTZ NOT NULL,
//	    expires_at   TIMESTAMPTZ NOT NULL,
//	    refreshed_at TIMESTAMPTZ
//	);
//	CREATE INDEX idx_sessions_expires_at ON sessions (expires_at);
package auth
