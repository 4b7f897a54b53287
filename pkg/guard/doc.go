// Package guard decides whether a screen is reachable for the current
// resolution state.
//
// Decide is a pure function from (state, required role, path) to one of
// allow, redirect, show-loading or show-degraded. Unauthenticated visitors
// are sent to the login entry point of the role the screen requires;
// authenticated users on a screen of the other role are cross-redirected to
// their own home instead of a forbidden page. The Policy route table is
// loadable from YAML and validated for redirect-loop freedom at load time.
package guard
