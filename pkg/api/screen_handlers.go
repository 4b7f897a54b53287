package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/contextkeys"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/httputil"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/observability"
)

// ScreenHandlers serves the console screens. Screens are JSON page
// descriptors: the rendering client owns layout, the server owns
// reachability. Every route here sits behind the guard middleware.
type ScreenHandlers struct {
	logger *observability.Logger
}

// NewScreenHandlers creates a new screen handlers instance
func NewScreenHandlers(logger *observability.Logger) *ScreenHandlers {
	return &ScreenHandlers{logger: logger}
}

// RegisterRoutes registers the console route table
func (h *ScreenHandlers) RegisterRoutes(router *mux.Router) {
	// Login entry points, one per role
	router.HandleFunc("/login", h.screen("login")).Methods("GET")
	router.HandleFunc("/super-login", h.screen("super-login")).Methods("GET")

	// Tenant admin screens
	router.HandleFunc("/", h.screen("dashboard")).Methods("GET")
	router.HandleFunc("/agents/new", h.screen("agent-new")).Methods("GET")
	router.HandleFunc("/agents/edit/{id}", h.screen("agent-edit")).Methods("GET")
	router.HandleFunc("/departments", h.screen("departments")).Methods("GET")
	router.HandleFunc("/settings", h.screen("settings")).Methods("GET")
	router.HandleFunc("/plans", h.screen("plans")).Methods("GET")

	// Platform operator screens
	router.HandleFunc("/admin", h.screen("admin-dashboard")).Methods("GET")
	router.HandleFunc("/admin/companies", h.screen("admin-companies")).Methods("GET")
}

func (h *ScreenHandlers) screen(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"screen": name,
		}
		if identity := contextkeys.Identity(r.Context()); identity != "" {
			resp["identity"] = identity
		}
		if vars := httputil.GetPathVars(r); len(vars) > 0 {
			resp["params"] = vars
		}
		httputil.WriteSuccess(w, resp)
	}
}
