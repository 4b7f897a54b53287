package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/auth"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/guard"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/observability"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/profile"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/session"
)

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*auth.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]*auth.Session)}
}

func (m *memSessionStore) Issue(ctx context.Context, identity auth.Identity, email string) (*auth.Session, error) {
	token, _, prefix, err := auth.NewTokenGenerator().GenerateToken()
	if err != nil {
		return nil, err
	}
	s := &auth.Session{
		Token:       token,
		TokenPrefix: prefix,
		Identity:    identity,
		Email:       email,
		IssuedAt:    time.Now(),
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	m.mu.Lock()
	m.sessions[token] = s
	m.mu.Unlock()
	return s, nil
}

func (m *memSessionStore) Validate(ctx context.Context, token string) (*auth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, auth.ErrInvalidSession
	}
	return s, nil
}

func (m *memSessionStore) Refresh(ctx context.Context, token string) (*auth.Session, error) {
	return m.Validate(ctx, token)
}

func (m *memSessionStore) Revoke(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *memSessionStore) PurgeExpired(ctx context.Context) (int64, error) { return 0, nil }
func (m *memSessionStore) CountActive(ctx context.Context) (int64, error) { return 0, nil }

type memProfileStore struct {
	mu       sync.Mutex
	profiles map[auth.Identity]*profile.Profile
}

func (m *memProfileStore) FindByIdentity(ctx context.Context, id auth.Identity) (*profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, profile.ErrNotFound
	}
	return p, nil
}

func (m *memProfileStore) add(p *profile.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.Identity] = p
}

type consoleFixture struct {
	server   *Server
	creds    *auth.LocalCredentialStore
	store    *memSessionStore
	profiles *memProfileStore
	resolver *session.Resolver
}

func newConsoleFixture(t *testing.T, profiles map[auth.Identity]*profile.Profile) *consoleFixture {
	t.Helper()

	logger := observability.NewLogger(observability.ErrorLevel, nil)
	store := newMemSessionStore()
	creds := auth.NewLocalCredentialStore(store, logger)
	t.Cleanup(creds.Close)

	if profiles == nil {
		profiles = make(map[auth.Identity]*profile.Profile)
	}
	profileStore := &memProfileStore{profiles: profiles}
	resolver := session.NewResolver(creds, profileStore, session.Config{Logger: logger})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go resolver.Run(ctx)

	policy := guard.DefaultPolicy()
	require.NoError(t, policy.Validate())
	guardMiddleware := guard.NewMiddleware(resolver, policy, logger, nil)

	server := NewServer(Deps{
		Credentials: creds,
		Resolver:    resolver,
		Guard:       guardMiddleware,
		Logger:      logger,
	})

	return &consoleFixture{server: server, creds: creds, store: store, profiles: profileStore, resolver: resolver}
}

func (f *consoleFixture) waitForKind(t *testing.T, kind session.Kind) {
	t.Helper()
	require.Eventually(t, func() bool {
		s := f.resolver.State()
		return s.Settled && s.Kind == kind
	}, 2*time.Second, 5*time.Millisecond)
}

func (f *consoleFixture) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	return rec
}

func (f *consoleFixture) post(path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func tenantAdmin(id auth.Identity) *profile.Profile {
	tenant := "acme"
	return &profile.Profile{Identity: id, Role: profile.RoleTenantAdmin, Tenant: &tenant}
}

func TestUnauthenticatedScreenRedirectsToLogin(t *testing.T) {
	f := newConsoleFixture(t, nil)
	f.waitForKind(t, session.KindUnauthenticated)

	rec := f.get("/settings")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = f.get("/admin/companies")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/super-login", rec.Header().Get("Location"))
}

func TestLoginPageRendersWhileUnauthenticated(t *testing.T) {
	f := newConsoleFixture(t, nil)
	f.waitForKind(t, session.KindUnauthenticated)

	rec := f.get("/login")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "login", body["screen"])
}

func TestAdoptSessionResolvesAndAllows(t *testing.T) {
	f := newConsoleFixture(t, map[auth.Identity]*profile.Profile{
		"user-1": tenantAdmin("user-1"),
	})
	f.waitForKind(t, session.KindUnauthenticated)

	issued, err := f.store.Issue(context.Background(), "user-1", "user@example.com")
	require.NoError(t, err)

	rec := f.post("/auth/session", map[string]string{"token": issued.Token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	f.waitForKind(t, session.KindReady)

	rec = f.get("/settings")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "settings", body["screen"])
	assert.Equal(t, "user-1", body["identity"])
}

func TestAdoptSessionRejectsUnknownToken(t *testing.T) {
	f := newConsoleFixture(t, nil)
	f.waitForKind(t, session.KindUnauthenticated)

	rec := f.post("/auth/session", map[string]string{"token": "atendi_bogus"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestResolvedTenantAdminCrossRedirectsFromAdmin(t *testing.T) {
	f := newConsoleFixture(t, map[auth.Identity]*profile.Profile{
		"user-1": tenantAdmin("user-1"),
	})
	f.waitForKind(t, session.KindUnauthenticated)

	issued, err := f.store.Issue(context.Background(), "user-1", "user@example.com")
	require.NoError(t, err)
	f.post("/auth/session", map[string]string{"token": issued.Token})
	f.waitForKind(t, session.KindReady)

	rec := f.get("/admin")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestDegradedScreenAndRetryRecovery(t *testing.T) {
	f := newConsoleFixture(t, nil)
	f.waitForKind(t, session.KindUnauthenticated)

	issued, err := f.store.Issue(context.Background(), "user-1", "user@example.com")
	require.NoError(t, err)
	f.post("/auth/session", map[string]string{"token": issued.Token})
	f.waitForKind(t, session.KindDegraded)

	rec := f.get("/")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// Provisioning finishes, the user clicks retry.
	f.profiles.add(tenantAdmin("user-1"))

	rec = f.post("/auth/retry", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	f.waitForKind(t, session.KindReady)

	rec = f.get("/")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSignOutClearsSession(t *testing.T) {
	f := newConsoleFixture(t, map[auth.Identity]*profile.Profile{
		"user-1": tenantAdmin("user-1"),
	})
	f.waitForKind(t, session.KindUnauthenticated)

	issued, err := f.store.Issue(context.Background(), "user-1", "user@example.com")
	require.NoError(t, err)
	f.post("/auth/session", map[string]string{"token": issued.Token})
	f.waitForKind(t, session.KindReady)

	rec := f.post("/auth/signout", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	f.waitForKind(t, session.KindUnauthenticated)

	rec = f.get("/settings")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestAuthStateSnapshot(t *testing.T) {
	f := newConsoleFixture(t, map[auth.Identity]*profile.Profile{
		"user-1": tenantAdmin("user-1"),
	})
	f.waitForKind(t, session.KindUnauthenticated)

	rec := f.get("/auth/state")
	require.Equal(t, http.StatusOK, rec.Code)

	var body stateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unauthenticated", body.State)

	issued, err := f.store.Issue(context.Background(), "user-1", "user@example.com")
	require.NoError(t, err)
	f.post("/auth/session", map[string]string{"token": issued.Token})
	f.waitForKind(t, session.KindReady)

	rec = f.get("/auth/state")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body.State)
	assert.Equal(t, "user-1", body.Identity)
	assert.Equal(t, "tenant_admin", body.Role)
}

func TestRefreshWithoutSession(t *testing.T) {
	f := newConsoleFixture(t, nil)
	f.waitForKind(t, session.KindUnauthenticated)

	rec := f.post("/auth/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
