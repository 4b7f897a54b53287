package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/auth"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/guard"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/observability"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/provisioning"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/session"
)

// Server represents the console HTTP server
type Server struct {
	router  *mux.Router
	logger  *observability.Logger
	metrics *observability.Metrics
}

// Deps holds the collaborators the server wires into its handlers.
// OIDC and Provisioning are optional; their routes degrade gracefully
// when absent.
type Deps struct {
	Credentials  *auth.LocalCredentialStore
	Resolver     *session.Resolver
	Guard        *guard.Middleware
	OIDC         *auth.OIDCAuthenticator
	Provisioning provisioning.Service
	Logger       *observability.Logger
	Metrics      *observability.Metrics
}

// NewServer creates a new console server and sets up all routes
func NewServer(deps Deps) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		logger:  deps.Logger,
		metrics: deps.Metrics,
	}
	s.setupRoutes(deps)
	return s
}

// setupRoutes configures the route tree. Auth endpoints live outside the
// guard so a signed-out caller can still sign in, retry or inspect the
// resolution state. Every screen route, including the login pages, goes
// through the guard.
func (s *Server) setupRoutes(deps Deps) {
	authHandlers := NewAuthHandlers(deps.Credentials, deps.Resolver, deps.OIDC, deps.Logger)
	authHandlers.RegisterRoutes(s.router)

	screens := s.router.PathPrefix("/").Subrouter()
	screens.Use(deps.Guard.Handler)

	screenHandlers := NewScreenHandlers(deps.Logger)
	screenHandlers.RegisterRoutes(screens)

	if deps.Provisioning != nil {
		adminHandlers := NewAdminHandlers(deps.Provisioning, deps.Logger)
		adminHandlers.RegisterRoutes(screens)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RouteRegistrar is an interface for types that can register routes
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// RegisterRoutes registers routes from a RouteRegistrar
func (s *Server) RegisterRoutes(registrar RouteRegistrar) {
	registrar.RegisterRoutes(s.router)
}
