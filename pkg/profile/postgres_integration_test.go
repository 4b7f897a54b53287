//go:build integration

package profile

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/auth"
)

const profilesSchema = `
CREATE TABLE profiles (
    identity   UUID PRIMARY KEY,
    role       TEXT NOT NULL CHECK (role IN ('platform_operator', 'tenant_admin')),
    tenant     TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CHECK ((role = 'tenant_admin') = (tenant IS NOT NULL))
)`

func setupPostgres(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	if _, err := testcontainers.ProviderDocker.GetProvider(); err != nil {
		t.Skip("Docker not available, skipping integration test")
	}

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("atendi_test"),
		postgres.WithUsername("atendi"),
		postgres.WithPassword("atendi_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Ping())

	_, err = db.Exec(profilesSchema)
	require.NoError(t, err)
	return db
}

func TestPostgresStoreIntegration(t *testing.T) {
	db := setupPostgres(t)
	store := NewPostgresStore(db)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO profiles (identity, role, tenant)
		VALUES ('5a2e66ac-2d62-4f9a-a2c6-19a84c2e64f1', 'tenant_admin', 'acme')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO profiles (identity, role)
		VALUES ('d2fa9457-f212-4f9e-8e40-6281f8a0ac01', 'platform_operator')`)
	require.NoError(t, err)

	t.Run("tenant admin", func(t *testing.T) {
		p, err := store.FindByIdentity(ctx, auth.Identity("5a2e66ac-2d62-4f9a-a2c6-19a84c2e64f1"))
		require.NoError(t, err)
		assert.Equal(t, RoleTenantAdmin, p.Role)
		require.NotNil(t, p.Tenant)
		assert.Equal(t, "acme", *p.Tenant)
	})

	t.Run("platform operator", func(t *testing.T) {
		p, err := store.FindByIdentity(ctx, auth.Identity("d2fa9457-f212-4f9e-8e40-6281f8a0ac01"))
		require.NoError(t, err)
		assert.Equal(t, RolePlatformOperator, p.Role)
		assert.Nil(t, p.Tenant)
	})

	t.Run("missing profile", func(t *testing.T) {
		_, err := store.FindByIdentity(ctx, auth.Identity("00000000-0000-0000-0000-000000000000"))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("schema rejects tenant admin without tenant", func(t *testing.T) {
		_, err := db.Exec(`INSERT INTO profiles (identity, role)
			VALUES ('7b8e0f9e-24cb-4d92-9a5e-3ea71ab9a111', 'tenant_admin')`)
		assert.Error(t, err)
	})
}
