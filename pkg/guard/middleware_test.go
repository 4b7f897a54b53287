package guard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/auth"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/contextkeys"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/observability"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/profile"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/session"
)

type staticSource struct {
	state   session.ResolutionState
	session *auth.Session
}

func (s *staticSource) State() session.ResolutionState { return s.state }
func (s *staticSource) Session() *auth.Session         { return s.session }

func newTestMiddleware(state session.ResolutionState, sess *auth.Session) *Middleware {
	policy := DefaultPolicy()
	logger := observability.NewLogger(observability.ErrorLevel, nil)
	return NewMiddleware(&staticSource{state: state, session: sess}, policy, logger, nil)
}

func TestMiddlewareAllowInjectsContext(t *testing.T) {
	state := readyState(profile.RoleTenantAdmin)
	sess := &auth.Session{Identity: "user-1", Email: "user-1@example.com"}

	var gotIdentity string
	handler := newTestMiddleware(state, sess).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdentity = contextkeys.Identity(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/settings", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", gotIdentity)
}

func TestMiddlewareRedirectsUnauthenticated(t *testing.T) {
	handler := newTestMiddleware(settled(session.KindUnauthenticated), nil).
		Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not run")
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/departments", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestMiddlewareCrossRedirects(t *testing.T) {
	state := readyState(profile.RolePlatformOperator)
	handler := newTestMiddleware(state, &auth.Session{Identity: "op-1"}).
		Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not run")
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/settings", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))
}

func TestMiddlewareRendersLoading(t *testing.T) {
	handler := newTestMiddleware(settled(session.KindResolving), nil).
		Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not run")
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "resolving", body["state"])
}

func TestMiddlewareRendersDegraded(t *testing.T) {
	handler := newTestMiddleware(settled(session.KindDegraded), &auth.Session{Identity: "user-1"}).
		Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not run")
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		State   string   `json:"state"`
		Actions []string `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.State)
	assert.Contains(t, body.Actions, "retry")
	assert.Contains(t, body.Actions, "sign_out")
}
