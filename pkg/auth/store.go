package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSession is returned when a token does not match a live session.
var ErrInvalidSession = errors.New("invalid or expired session")

// SessionStore persists sessions in the hosted credential backend.
type SessionStore interface {
	// Issue creates a new session for the identity and returns it with the
	// raw token. The raw token is never stored, only its hash.
	Issue(ctx context.Context, identity Identity, email string) (*Session, error)

	// Validate looks up a live session by raw token. Returns
	// ErrInvalidSession when the token is unknown or expired.
	Validate(ctx context.Context, token string) (*Session, error)

	// Refresh extends the expiry of the session identified by the token.
	Refresh(ctx context.Context, token string) (*Session, error)

	// Revoke deletes the session identified by the token.
	Revoke(ctx context.Context, token string) error

	// PurgeExpired removes expired sessions and returns the number deleted.
	PurgeExpired(ctx context.Context) (int64, error)

	// CountActive returns the number of unexpired sessions.
	CountActive(ctx context.Context) (int64, error)
}

// PostgresSessionStore implements SessionStore using PostgreSQL
type PostgresSessionStore struct {
	db  *sql.DB
	gen *TokenGenerator
	ttl time.Duration
}

// NewPostgresSessionStore creates a new PostgresSessionStore. Sessions live
// for ttl from issue or last refresh.
func NewPostgresSessionStore(db *sql.DB, ttl time.Duration) *PostgresSessionStore {
	return &PostgresSessionStore{
		db:  db,
		gen: NewTokenGenerator(),
		ttl: ttl,
	}
}

// Issue creates a new session for the identity
func (s *PostgresSessionStore) Issue(ctx context.Context, identity Identity, email string) (*Session, error) {
	token, tokenHash, tokenPrefix, err := s.gen.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := time.Now().UTC()
	expiresAt := now.Add(s.ttl)

	query := `
		INSERT INTO sessions (token_hash, token_prefix, identity, email, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.db.ExecContext(ctx, query, tokenHash, tokenPrefix, string(identity), email, now, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &Session{
		Token:       token,
		TokenPrefix: tokenPrefix,
		Identity:    identity,
		Email:       email,
		IssuedAt:    now,
		ExpiresAt:   expiresAt,
	}, nil
}

// Validate looks up a live session by raw token
func (s *PostgresSessionStore) Validate(ctx context.Context, token string) (*Session, error) {
	if err := s.gen.ValidateTokenFormat(token); err != nil {
		return nil, ErrInvalidSession
	}

	query := `
		SELECT token_prefix, identity, email, issued_at, expires_at, refreshed_at
		FROM sessions
		WHERE token_hash = $1 AND expires_at > NOW()
	`
	session := &Session{Token: token}
	var identity string
	var refreshedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, s.gen.HashToken(token)).Scan(
		&session.TokenPrefix, &identity, &session.Email,
		&session.IssuedAt, &session.ExpiresAt, &refreshedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to validate session: %w", err)
	}

	session.Identity = Identity(identity)
	if refreshedAt.Valid {
		session.RefreshedAt = refreshedAt.Time
	}
	return session, nil
}

// Refresh extends the expiry of the session identified by the token
func (s *PostgresSessionStore) Refresh(ctx context.Context, token string) (*Session, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.ttl)

	query := `
		UPDATE sessions
		SET expires_at = $2, refreshed_at = $3
		WHERE token_hash = $1 AND expires_at > NOW()
		RETURNING token_prefix, identity, email, issued_at
	`
	session := &Session{
		Token:       token,
		ExpiresAt:   expiresAt,
		RefreshedAt: now,
	}
	var identity string
	err := s.db.QueryRowContext(ctx, query, s.gen.HashToken(token), expiresAt, now).Scan(
		&session.TokenPrefix, &identity, &session.Email, &session.IssuedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}

	session.Identity = Identity(identity)
	return session, nil
}

// Revoke deletes the session identified by the token
func (s *PostgresSessionStore) Revoke(ctx context.Context, token string) error {
	query := `DELETE FROM sessions WHERE token_hash = $1`
	if _, err := s.db.ExecContext(ctx, query, s.gen.HashToken(token)); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// PurgeExpired removes expired sessions and returns the number deleted
func (s *PostgresSessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired sessions: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged sessions: %w", err)
	}
	return deleted, nil
}

// CountActive returns the number of unexpired sessions
func (s *PostgresSessionStore) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE expires_at > NOW()`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}
