// Package provisioning provides a typed client for the external tenant provisioning service.
//
// # Overview
//
// Tenant companies and their admin accounts are created, updated, and deleted by an
// opaque upstream service. This package exposes that boundary as a small Service
// interface plus an HTTP client; the console itself never writes tenant records.
//
// # Endpoints
//
// The client calls three endpoints on the configured base URL, authenticated with a
// Bearer service key:
//
//	POST   /create-company-user
//	POST   /update-company-full
//	POST   /delete-company-full
//
// # Usage Example
//
// Create a tenant with its admin account:
//
//	client := provisioning.NewClient(cfg.Provisioning.BaseURL, cfg.Provisioning.ServiceKey)
//	resp, err := client.CreateTenant(ctx, provisioning.CreateTenantRequest{
//		Name:       "Acme Corp",
//		AdminEmail: "admin@acme.example",
//	})
//
// # Related Packages
//
//   - pkg/api: Exposes these operations on guarded /admin/companies routes
package provisioning
