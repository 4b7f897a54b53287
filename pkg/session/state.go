package session

import "github.com/dionilsonrodrigues-bit/criadoragente/pkg/profile"

// Kind enumerates the resolution states
type Kind int

const (
	// KindUnauthenticated means no session is present
	KindUnauthenticated Kind = iota
	// KindResolving means a session exists and a profile fetch is pending
	KindResolving
	// KindReady means a session and its profile are both available
	KindReady
	// KindDegraded means a session exists but no profile could be obtained
	// (not-found, store error, or timeout). First-class and user-visible,
	// never collapsed into unauthenticated.
	KindDegraded
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindResolving:
		return "resolving"
	case KindReady:
		return "ready"
	case KindDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// ResolutionState is the authoritative authentication state snapshot for the
// running application.
type ResolutionState struct {
	Kind Kind
	// Profile is set if and only if Kind is KindReady
	Profile *profile.Profile
	// Settled is false until the initial cached-session check has
	// completed; route guards treat an unsettled snapshot as loading.
	Settled bool
}
