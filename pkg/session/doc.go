// Package session owns the process-wide authentication resolution state
// machine.
//
// The Resolver combines the credential store's session lifecycle events with
// bounded-patience profile fetches to produce a single authoritative
// ResolutionState:
//
//	unauthenticated -> resolving -> {ready, degraded}
//	degraded -> resolving        (explicit user retry)
//	any state -> unauthenticated (sign-out)
//
// Liveness is guaranteed even against a hung profile store: each fetch races
// a timer (default 3s, injectable clock) and whichever finishes first settles
// the state. A fetch that loses the race, errors, or finds zero rows yields
// the degraded state; degraded is never retried automatically, only via
// Retry or sign-out.
//
// All mutation is serialized on the Run goroutine. Fetches are tagged with a
// session epoch; a result whose epoch no longer matches (sign-out or new
// identity in between) is discarded, so a late Ready can never resurrect an
// already signed-out state. At most one fetch is in flight per identity;
// duplicate requests are ignored rather than queued.
package session
