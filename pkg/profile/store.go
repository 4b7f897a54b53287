package profile

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/auth"
)

// Store reads authorization records. It may legitimately return ErrNotFound
// for an identity whose provisioning has not finished, and may be slow under
// load; callers own their own patience.
type Store interface {
	FindByIdentity(ctx context.Context, identity auth.Identity) (*Profile, error)
}

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// FindByIdentity retrieves the profile for exactly one identity
func (s *PostgresStore) FindByIdentity(ctx context.Context, identity auth.Identity) (*Profile, error) {
	query := `
		SELECT identity, role, tenant, created_at, updated_at
		FROM profiles
		WHERE identity = $1
	`
	p := &Profile{}
	var id string
	var tenant sql.NullString
	err := s.db.QueryRowContext(ctx, query, string(identity)).Scan(
		&id, &p.Role, &tenant, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}

	p.Identity = auth.Identity(id)
	if tenant.Valid {
		p.Tenant = &tenant.String
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("corrupt profile row: %w", err)
	}
	return p, nil
}
