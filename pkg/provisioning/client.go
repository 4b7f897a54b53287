package provisioning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Service is the provisioning boundary consumed by the console.
type Service interface {
	CreateTenant(ctx context.Context, req CreateTenantRequest) (*CreateTenantResponse, error)
	UpdateTenant(ctx context.Context, req UpdateTenantRequest) error
	DeleteTenant(ctx context.Context, tenantID string) error
}

// CreateTenantRequest provisions a company and its admin user
type CreateTenantRequest struct {
	Name        string `json:"name"`
	ExternalID  string `json:"atendi_id,omitempty"`
	AdminEmail  string `json:"email"`
	AdminSecret string `json:"password"`
	Phone       string `json:"phone,omitempty"`
	Description string `json:"description,omitempty"`
	PlanID      string `json:"plan_id,omitempty"`
	Status      string `json:"status,omitempty"`
	DueDay      int    `json:"due_day,omitempty"`
	Recurrence  string `json:"recurrence,omitempty"`
}

// CreateTenantResponse reports the provisioned tenant
type CreateTenantResponse struct {
	Success  bool   `json:"success"`
	TenantID string `json:"companyId"`
}

// UpdateTenantRequest updates company and admin credentials together
type UpdateTenantRequest struct {
	TenantID    string `json:"company_id"`
	Name        string `json:"name,omitempty"`
	ExternalID  string `json:"atendi_id,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Description string `json:"description,omitempty"`
	PlanID      string `json:"plan_id,omitempty"`
	Status      string `json:"status,omitempty"`
	DueDay      int    `json:"due_day,omitempty"`
	Recurrence  string `json:"recurrence,omitempty"`
	AdminEmail  string `json:"admin_email,omitempty"`
	AdminSecret string `json:"admin_password,omitempty"`
}

// Client calls the provisioning service over HTTP
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// NewClient creates a provisioning client. serviceKey authenticates the
// console against the service.
func NewClient(baseURL, serviceKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateTenant provisions a company and its admin user
func (c *Client) CreateTenant(ctx context.Context, req CreateTenantRequest) (*CreateTenantResponse, error) {
	var resp CreateTenantResponse
	if err := c.post(ctx, "/create-company-user", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateTenant updates a company and optionally its admin credentials
func (c *Client) UpdateTenant(ctx context.Context, req UpdateTenantRequest) error {
	return c.post(ctx, "/update-company-full", req, nil)
}

// DeleteTenant removes a company, its users and their sessions
func (c *Client) DeleteTenant(ctx context.Context, tenantID string) error {
	body := map[string]string{"company_id": tenantID}
	return c.post(ctx, "/delete-company-full", body, nil)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode provisioning request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build provisioning request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("provisioning request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil && errBody.Error != "" {
			return fmt.Errorf("provisioning service error (%d): %s", resp.StatusCode, errBody.Error)
		}
		return fmt.Errorf("provisioning service returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode provisioning response: %w", err)
		}
	}
	return nil
}
