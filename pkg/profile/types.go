package profile

import (
	"errors"
	"fmt"
	"time"

	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/auth"
)

// Role is the closed set of authorization roles
type Role string

const (
	// RolePlatformOperator has cross-tenant administrative capability
	RolePlatformOperator Role = "platform_operator"
	// RoleTenantAdmin is scoped to exactly one tenant
	RoleTenantAdmin Role = "tenant_admin"
)

// Valid reports whether the role is one of the two known values
func (r Role) Valid() bool {
	return r == RolePlatformOperator || r == RoleTenantAdmin
}

// ErrNotFound is returned when no profile row exists for an identity. This is
// a legitimate outcome while provisioning has not finished.
var ErrNotFound = errors.New("profile not found")

// Profile is the authorization record associated with an Identity. It is
// created by the external provisioning process; this package only reads it.
type Profile struct {
	Identity  auth.Identity `json:"identity"`
	Role      Role          `json:"role"`
	Tenant    *string       `json:"tenant,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Validate checks the role/tenant invariant: Tenant is non-nil if and only if
// the role is tenant_admin.
func (p *Profile) Validate() error {
	if !p.Role.Valid() {
		return fmt.Errorf("unknown role %q", p.Role)
	}
	switch p.Role {
	case RoleTenantAdmin:
		if p.Tenant == nil || *p.Tenant == "" {
			return fmt.Errorf("tenant_admin profile %s has no tenant", p.Identity)
		}
	case RolePlatformOperator:
		if p.Tenant != nil {
			return fmt.Errorf("platform_operator profile %s must not carry a tenant", p.Identity)
		}
	}
	return nil
}
