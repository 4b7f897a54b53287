package guard

import (
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/profile"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/session"
)

// Action enumerates route guard outcomes
type Action int

const (
	// ActionAllow renders the requested screen
	ActionAllow Action = iota
	// ActionRedirect sends the caller to Decision.Location
	ActionRedirect
	// ActionShowLoading renders the loading fallback
	ActionShowLoading
	// ActionShowDegraded renders the degraded screen offering retry and
	// sign-out. Never treated as authorized nor as unauthenticated.
	ActionShowDegraded
)

func (a Action) String() string {
	switch a {
	case ActionAllow:
		return "allow"
	case ActionRedirect:
		return "redirect"
	case ActionShowLoading:
		return "show_loading"
	case ActionShowDegraded:
		return "show_degraded"
	default:
		return "unknown"
	}
}

// Decision is the outcome of a guard evaluation
type Decision struct {
	Action   Action
	Location string // set iff Action == ActionRedirect
}

// Allow is the decision that renders the requested screen
func Allow() Decision { return Decision{Action: ActionAllow} }

// RedirectTo sends the caller to the given path
func RedirectTo(path string) Decision {
	return Decision{Action: ActionRedirect, Location: path}
}

// ShowLoading renders the loading fallback
func ShowLoading() Decision { return Decision{Action: ActionShowLoading} }

// ShowDegraded renders the actionable degraded screen
func ShowDegraded() Decision { return Decision{Action: ActionShowDegraded} }

// Decide maps a resolution state, the role a screen requires (RoleNone for
// public screens) and the current path to a UI outcome. Pure: no I/O, no
// mutation, evaluated in order with first match winning.
func (p *Policy) Decide(state session.ResolutionState, required profile.Role, path string) Decision {
	// 1. Still resolving, or the very first check has not settled yet.
	if !state.Settled || state.Kind == session.KindResolving {
		return ShowLoading()
	}

	// 2. Settled unauthenticated: each role has its own login entry point,
	// so an operator screen sends visitors to the operator login. The
	// login pages themselves render.
	if state.Kind == session.KindUnauthenticated {
		if p.isLoginPath(path) {
			return Allow()
		}
		return RedirectTo(p.LoginPath(required))
	}

	// 3. Session without profile: actionable, never silently authorized
	// or bounced to login.
	if state.Kind == session.KindDegraded {
		return ShowDegraded()
	}

	// 4. Authenticated with the wrong role: cross-redirect into the home
	// of the role the profile actually has, keeping a misrouted user
	// inside their own working area.
	if required != RoleNone && state.Profile != nil && state.Profile.Role != required {
		return RedirectTo(p.HomePath(state.Profile.Role))
	}

	// A login page visited while already authenticated goes home instead
	// of rendering a sign-in form (and can never loop: home paths allow
	// their own role).
	if state.Profile != nil && p.isLoginPath(path) {
		return RedirectTo(p.HomePath(state.Profile.Role))
	}

	// 5. Authenticated with the right role.
	return Allow()
}
