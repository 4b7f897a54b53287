package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/httputil"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/observability"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/provisioning"
)

// AdminHandlers proxies tenant lifecycle operations to the provisioning
// service. Registered under /admin, so the guard admits platform operators
// only.
type AdminHandlers struct {
	provisioning provisioning.Service
	logger       *observability.Logger
}

// NewAdminHandlers creates a new admin handlers instance
func NewAdminHandlers(svc provisioning.Service, logger *observability.Logger) *AdminHandlers {
	return &AdminHandlers{provisioning: svc, logger: logger}
}

// RegisterRoutes registers tenant lifecycle routes
func (h *AdminHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/admin/companies", h.createCompany).Methods("POST")
	router.HandleFunc("/admin/companies/{id}", h.updateCompany).Methods("PUT")
	router.HandleFunc("/admin/companies/{id}", h.deleteCompany).Methods("DELETE")
}

// createCompany handles POST /admin/companies
func (h *AdminHandlers) createCompany(w http.ResponseWriter, r *http.Request) {
	var req provisioning.CreateTenantRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Name == "" || req.AdminEmail == "" {
		httputil.WriteBadRequest(w, "name and email are required")
		return
	}

	resp, err := h.provisioning.CreateTenant(r.Context(), req)
	if err != nil {
		h.logger.WithError(err).Error("tenant creation failed")
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

// updateCompany handles PUT /admin/companies/{id}
func (h *AdminHandlers) updateCompany(w http.ResponseWriter, r *http.Request) {
	vars := httputil.GetPathVars(r)

	var req provisioning.UpdateTenantRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	req.TenantID = vars["id"]

	if err := h.provisioning.UpdateTenant(r.Context(), req); err != nil {
		h.logger.WithError(err).Error("tenant update failed")
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]string{"status": "updated"})
}

// deleteCompany handles DELETE /admin/companies/{id}
func (h *AdminHandlers) deleteCompany(w http.ResponseWriter, r *http.Request) {
	vars := httputil.GetPathVars(r)

	if err := h.provisioning.DeleteTenant(r.Context(), vars["id"]); err != nil {
		h.logger.WithError(err).Error("tenant deletion failed")
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]string{"status": "deleted"})
}
