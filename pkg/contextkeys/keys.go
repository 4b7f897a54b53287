// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// SessionKey contains *auth.Session for the request
	// Set by: guard.Middleware after resolution
	// Type: *auth.Session
	SessionKey Key = "session"

	// ResolutionKey contains the session.ResolutionState snapshot the guard
	// evaluated for this request
	// Set by: guard.Middleware
	// Type: session.ResolutionState
	ResolutionKey Key = "resolution_state"

	// RequestIDKey contains request ID string (UUID)
	// Set by: httputil.RequestIDMiddleware
	// Used by: Logger, tracing
	// Type: string
	RequestIDKey Key = "request_id"

	// IdentityKey contains the authenticated identity string
	// Set by: guard.Middleware when a session is present
	// Type: string
	IdentityKey Key = "identity"

	// LoggerKey contains *observability.Logger
	// Set by: httputil.LoggingMiddleware
	// Type: *observability.Logger
	LoggerKey Key = "logger"
)

// WithSession adds the current session to the context
func WithSession(ctx context.Context, s interface{}) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}

// WithResolution adds the evaluated resolution state to the context
func WithResolution(ctx context.Context, state interface{}) context.Context {
	return context.WithValue(ctx, ResolutionKey, state)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithIdentity adds the authenticated identity to the context
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// RequestID retrieves the request ID from the context, if set
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// Identity retrieves the authenticated identity from the context, if set
func Identity(ctx context.Context) string {
	if v, ok := ctx.Value(IdentityKey).(string); ok {
		return v
	}
	return ""
}
