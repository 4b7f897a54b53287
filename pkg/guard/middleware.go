package guard

import (
	"net/http"

	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/auth"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/contextkeys"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/httputil"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/observability"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/session"
)

// StateSource provides the resolution snapshot the guard evaluates. The
// guard only ever reads; it never mutates resolution state.
type StateSource interface {
	State() session.ResolutionState
	Session() *auth.Session
}

// Middleware applies guard decisions to HTTP requests
type Middleware struct {
	source  StateSource
	policy  *Policy
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewMiddleware creates a guard middleware. metrics may be nil.
func NewMiddleware(source StateSource, policy *Policy, logger *observability.Logger, metrics *observability.Metrics) *Middleware {
	return &Middleware{
		source:  source,
		policy:  policy,
		logger:  logger,
		metrics: metrics,
	}
}

// Handler wraps a screen handler with the guard evaluation
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := m.source.State()
		required := m.policy.RequiredRole(r.URL.Path)
		decision := m.policy.Decide(state, required, r.URL.Path)

		if m.metrics != nil {
			m.metrics.GuardDecisionsTotal.WithLabelValues(decision.Action.String()).Inc()
		}

		switch decision.Action {
		case ActionAllow:
			ctx := contextkeys.WithResolution(r.Context(), state)
			if s := m.source.Session(); s != nil {
				ctx = contextkeys.WithSession(ctx, s)
				ctx = contextkeys.WithIdentity(ctx, string(s.Identity))
			}
			next.ServeHTTP(w, r.WithContext(ctx))

		case ActionRedirect:
			http.Redirect(w, r, decision.Location, http.StatusSeeOther)

		case ActionShowLoading:
			w.Header().Set("Retry-After", "1")
			httputil.WriteJSON(w, http.StatusOK, map[string]string{
				"state":  "resolving",
				"detail": "session resolution in progress",
			})

		case ActionShowDegraded:
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"state":   "degraded",
				"detail":  "your account has no permissions record",
				"actions": []string{"retry", "sign_out"},
			})
		}
	})
}
