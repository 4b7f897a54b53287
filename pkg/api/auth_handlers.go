package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/auth"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/httputil"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/observability"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/session"
)

const oauthStateCookie = "atendi_oauth_state"

// AuthHandlers handles session lifecycle HTTP requests
type AuthHandlers struct {
	creds    *auth.LocalCredentialStore
	resolver *session.Resolver
	oidc     *auth.OIDCAuthenticator
	logger   *observability.Logger
}

// NewAuthHandlers creates a new auth handlers instance. oidc may be nil when
// no operator identity provider is configured.
func NewAuthHandlers(creds *auth.LocalCredentialStore, resolver *session.Resolver, oidc *auth.OIDCAuthenticator, logger *observability.Logger) *AuthHandlers {
	return &AuthHandlers{
		creds:    creds,
		resolver: resolver,
		oidc:     oidc,
		logger:   logger,
	}
}

// RegisterRoutes registers session lifecycle routes
func (h *AuthHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/state", h.getState).Methods("GET")
	router.HandleFunc("/auth/session", h.adoptSession).Methods("POST")
	router.HandleFunc("/auth/refresh", h.refreshSession).Methods("POST")
	router.HandleFunc("/auth/signout", h.signOut).Methods("POST")
	router.HandleFunc("/auth/retry", h.retryResolution).Methods("POST")

	if h.oidc != nil {
		router.HandleFunc("/auth/oidc/start", h.startOIDC).Methods("GET")
		router.HandleFunc("/auth/callback", h.oidcCallback).Methods("GET")
	}
}

type stateResponse struct {
	State    string        `json:"state"`
	Identity string        `json:"identity,omitempty"`
	Role     string        `json:"role,omitempty"`
	Tenant   *string       `json:"tenant,omitempty"`
	Session  *auth.Session `json:"session,omitempty"`
}

func snapshotResponse(state session.ResolutionState, s *auth.Session) stateResponse {
	resp := stateResponse{State: state.Kind.String(), Session: s}
	if state.Profile != nil {
		resp.Identity = string(state.Profile.Identity)
		resp.Role = string(state.Profile.Role)
		resp.Tenant = state.Profile.Tenant
	}
	return resp
}

// getState handles GET /auth/state
func (h *AuthHandlers) getState(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, snapshotResponse(h.resolver.State(), h.resolver.Session()))
}

// adoptSession handles POST /auth/session. A returning caller presents the
// raw token minted at sign-in; resolution starts once the token validates.
func (h *AuthHandlers) adoptSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Token == "" {
		req.Token = httputil.BearerToken(r)
	}
	if req.Token == "" {
		httputil.WriteBadRequest(w, "token is required")
		return
	}

	s, err := h.creds.AdoptToken(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidSession) {
			httputil.WriteUnauthorized(w, "invalid or expired session")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, s)
}

// refreshSession handles POST /auth/refresh
func (h *AuthHandlers) refreshSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.creds.Refresh(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrNoSession):
			httputil.WriteUnauthorized(w, "no current session")
		case errors.Is(err, auth.ErrInvalidSession):
			httputil.WriteUnauthorized(w, "session expired")
		default:
			httputil.WriteInternalError(w, err)
		}
		return
	}
	httputil.WriteSuccess(w, s)
}

// signOut handles POST /auth/signout. The local sign-out always takes
// effect; a failed remote revocation is reported but not fatal.
func (h *AuthHandlers) signOut(w http.ResponseWriter, r *http.Request) {
	err := h.resolver.SignOut(r.Context())

	resp := map[string]string{"status": "signed_out"}
	if err != nil {
		resp["warning"] = "remote revocation failed; session cleared locally"
	}
	httputil.WriteSuccess(w, resp)
}

// retryResolution handles POST /auth/retry
func (h *AuthHandlers) retryResolution(w http.ResponseWriter, r *http.Request) {
	if err := h.resolver.Retry(r.Context()); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{
		"state": h.resolver.State().Kind.String(),
	})
}

// startOIDC handles GET /auth/oidc/start: redirects to the operator
// identity provider with a fresh anti-forgery state.
func (h *AuthHandlers) startOIDC(w http.ResponseWriter, r *http.Request) {
	state := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.oidc.AuthCodeURL(state), http.StatusFound)
}

// oidcCallback handles GET /auth/callback
func (h *AuthHandlers) oidcCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		httputil.WriteBadRequest(w, "state mismatch")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		httputil.WriteBadRequest(w, "code is required")
		return
	}

	identity, email, err := h.oidc.HandleCallback(r.Context(), code)
	if err != nil {
		h.logger.WithError(err).Warn("OIDC callback failed")
		httputil.WriteUnauthorized(w, "authentication failed")
		return
	}

	s, err := h.creds.SignIn(r.Context(), identity, email)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	// The raw token is only ever serialized here, at mint time.
	httputil.WriteSuccess(w, map[string]interface{}{
		"session": s,
		"token":   s.Token,
	})
}
