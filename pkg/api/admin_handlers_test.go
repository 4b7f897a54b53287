package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/auth"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/guard"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/observability"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/profile"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/provisioning"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/session"
)

type fakeProvisioner struct {
	mu        sync.Mutex
	created   []provisioning.CreateTenantRequest
	updated   []provisioning.UpdateTenantRequest
	deleted   []string
	createErr error
}

func (f *fakeProvisioner) CreateTenant(ctx context.Context, req provisioning.CreateTenantRequest) (*provisioning.CreateTenantResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	return &provisioning.CreateTenantResponse{Success: true, TenantID: "company-1"}, nil
}

func (f *fakeProvisioner) UpdateTenant(ctx context.Context, req provisioning.UpdateTenantRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, req)
	return nil
}

func (f *fakeProvisioner) DeleteTenant(ctx context.Context, tenantID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, tenantID)
	return nil
}

func newAdminFixture(t *testing.T, svc provisioning.Service) *consoleFixture {
	t.Helper()

	logger := observability.NewLogger(observability.ErrorLevel, nil)
	store := newMemSessionStore()
	creds := auth.NewLocalCredentialStore(store, logger)
	t.Cleanup(creds.Close)

	profileStore := &memProfileStore{profiles: map[auth.Identity]*profile.Profile{
		"op-1": {Identity: "op-1", Role: profile.RolePlatformOperator},
	}}
	resolver := session.NewResolver(creds, profileStore, session.Config{Logger: logger})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go resolver.Run(ctx)

	policy := guard.DefaultPolicy()
	require.NoError(t, policy.Validate())

	server := NewServer(Deps{
		Credentials:  creds,
		Resolver:     resolver,
		Guard:        guard.NewMiddleware(resolver, policy, logger, nil),
		Provisioning: svc,
		Logger:       logger,
	})

	f := &consoleFixture{server: server, creds: creds, store: store, profiles: profileStore, resolver: resolver}
	f.waitForKind(t, session.KindUnauthenticated)

	// Sign the operator in
	issued, err := store.Issue(context.Background(), "op-1", "op@example.com")
	require.NoError(t, err)
	rec := f.post("/auth/session", map[string]string{"token": issued.Token})
	require.Equal(t, http.StatusOK, rec.Code)
	f.waitForKind(t, session.KindReady)

	return f
}

func httptestPut(f *consoleFixture, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest("PUT", path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func httptestDelete(f *consoleFixture, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest("DELETE", path, nil))
	return rec
}

func TestAdminCreateCompany(t *testing.T) {
	svc := &fakeProvisioner{}
	f := newAdminFixture(t, svc)

	rec := f.post("/admin/companies", map[string]interface{}{
		"name":    "Acme",
		"email":   "admin@acme.example",
		"plan_id": "plan-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.Len(t, svc.created, 1)
	assert.Equal(t, "Acme", svc.created[0].Name)
	assert.Equal(t, "admin@acme.example", svc.created[0].AdminEmail)
}

func TestAdminCreateCompanyValidation(t *testing.T) {
	svc := &fakeProvisioner{}
	f := newAdminFixture(t, svc)

	rec := f.post("/admin/companies", map[string]interface{}{"name": "Acme"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.created)
}

func TestAdminCreateCompanyServiceFailure(t *testing.T) {
	svc := &fakeProvisioner{createErr: errors.New("provisioning unavailable")}
	f := newAdminFixture(t, svc)

	rec := f.post("/admin/companies", map[string]interface{}{
		"name":  "Acme",
		"email": "admin@acme.example",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAdminUpdateCompany(t *testing.T) {
	svc := &fakeProvisioner{}
	f := newAdminFixture(t, svc)

	req := httptestPut(f, "/admin/companies/company-7", map[string]interface{}{
		"name": "Acme Renamed",
	})
	require.Equal(t, http.StatusOK, req.Code, req.Body.String())

	require.Len(t, svc.updated, 1)
	assert.Equal(t, "company-7", svc.updated[0].TenantID)
	assert.Equal(t, "Acme Renamed", svc.updated[0].Name)
}

func TestAdminDeleteCompany(t *testing.T) {
	svc := &fakeProvisioner{}
	f := newAdminFixture(t, svc)

	rec := httptestDelete(f, "/admin/companies/company-7")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"company-7"}, svc.deleted)
}

func TestAdminRoutesGuardedByRole(t *testing.T) {
	svc := &fakeProvisioner{}

	// A tenant admin reaching for the provisioning surface is redirected
	// home, and the service is never called.
	f := newConsoleFixture(t, map[auth.Identity]*profile.Profile{
		"user-1": tenantAdmin("user-1"),
	})
	server := NewServer(Deps{
		Credentials:  f.creds,
		Resolver:     f.resolver,
		Guard:        guard.NewMiddleware(f.resolver, guard.DefaultPolicy(), observability.NewLogger(observability.ErrorLevel, nil), nil),
		Provisioning: svc,
		Logger:       observability.NewLogger(observability.ErrorLevel, nil),
	})
	f.server = server
	f.waitForKind(t, session.KindUnauthenticated)

	issued, err := f.store.Issue(context.Background(), "user-1", "user@example.com")
	require.NoError(t, err)
	f.post("/auth/session", map[string]string{"token": issued.Token})
	f.waitForKind(t, session.KindReady)

	rec := f.post("/admin/companies", map[string]interface{}{
		"name":  "Acme",
		"email": "x@example.com",
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Empty(t, svc.created)
}
