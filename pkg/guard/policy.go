package guard

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/profile"
)

// RoleNone marks screens reachable without a specific role requirement.
const RoleNone = profile.Role("")

// Route maps a path prefix to the role its screens require. Longest matching
// prefix wins.
type Route struct {
	Prefix string       `yaml:"prefix"`
	Role   profile.Role `yaml:"role"`
}

// Policy is the route table: per-role login and home paths plus the role
// each path prefix requires.
type Policy struct {
	LoginPaths map[profile.Role]string `yaml:"login_paths"`
	HomePaths  map[profile.Role]string `yaml:"home_paths"`
	Routes     []Route                 `yaml:"routes"`
}

// DefaultPolicy returns the built-in console route table.
func DefaultPolicy() *Policy {
	return &Policy{
		LoginPaths: map[profile.Role]string{
			profile.RoleTenantAdmin:      "/login",
			profile.RolePlatformOperator: "/super-login",
		},
		HomePaths: map[profile.Role]string{
			profile.RoleTenantAdmin:      "/",
			profile.RolePlatformOperator: "/admin",
		},
		Routes: []Route{
			{Prefix: "/admin", Role: profile.RolePlatformOperator},
			{Prefix: "/", Role: profile.RoleTenantAdmin},
		},
	}
}

// LoadPolicy reads a policy from a YAML file and validates it.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read guard policy: %w", err)
	}

	p := &Policy{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse guard policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid guard policy %s: %w", path, err)
	}
	return p, nil
}

// LoginPath returns the login entry point matching the required role,
// defaulting to the tenant login for public or tenant screens.
func (p *Policy) LoginPath(required profile.Role) string {
	if path, ok := p.LoginPaths[required]; ok {
		return path
	}
	return p.LoginPaths[profile.RoleTenantAdmin]
}

// HomePath returns the home screen of a role
func (p *Policy) HomePath(role profile.Role) string {
	return p.HomePaths[role]
}

// RequiredRole returns the role the screen at path requires, or RoleNone for
// login entry points.
func (p *Policy) RequiredRole(path string) profile.Role {
	if p.isLoginPath(path) {
		return RoleNone
	}

	best := ""
	role := RoleNone
	for _, route := range p.Routes {
		if matchesPrefix(path, route.Prefix) && len(route.Prefix) > len(best) {
			best = route.Prefix
			role = route.Role
		}
	}
	return role
}

func (p *Policy) isLoginPath(path string) bool {
	for _, login := range p.LoginPaths {
		if path == login {
			return true
		}
	}
	return false
}

func matchesPrefix(path, prefix string) bool {
	if prefix == "/" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// Validate checks structural soundness and redirect-loop freedom: the home
// path of each role must require exactly that role, so one cross-redirect
// always lands on an allowed screen.
func (p *Policy) Validate() error {
	roles := []profile.Role{profile.RoleTenantAdmin, profile.RolePlatformOperator}

	for _, role := range roles {
		if p.LoginPaths[role] == "" {
			return fmt.Errorf("missing login path for role %s", role)
		}
		if p.HomePaths[role] == "" {
			return fmt.Errorf("missing home path for role %s", role)
		}
	}

	for _, route := range p.Routes {
		if !strings.HasPrefix(route.Prefix, "/") {
			return fmt.Errorf("route prefix %q must start with /", route.Prefix)
		}
		if route.Role != RoleNone && !route.Role.Valid() {
			return fmt.Errorf("route %q has unknown role %q", route.Prefix, route.Role)
		}
	}

	// Sorting is not required for correctness (RequiredRole picks the
	// longest match) but keeps serialized policies deterministic.
	sort.SliceStable(p.Routes, func(i, j int) bool {
		return len(p.Routes[i].Prefix) > len(p.Routes[j].Prefix)
	})

	for _, role := range roles {
		home := p.HomePaths[role]
		if got := p.RequiredRole(home); got != role {
			return fmt.Errorf("home path %s of role %s requires role %q; cross-redirects would loop", home, role, got)
		}
	}
	return nil
}
