// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Overview
//
// This package offers helper functions for JSON encoding/decoding, error responses,
// bearer-token extraction, and common HTTP middleware.
//
// # Response Helpers
//
// JSON responses:
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteSuccess(w, "Operation completed")
//
// Error responses:
//
//	httputil.WriteError(w, http.StatusBadRequest, err)
//	httputil.WriteBadRequest(w, "Invalid input")
//	httputil.WriteUnauthorized(w, "Token expired")
//	httputil.WriteServiceUnavailable(w, "Profile lookup failed")
//
// # Request Parsing
//
// JSON parsing:
//
//	var req adoptSessionRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//
// Path parameters and credentials:
//
//	id := httputil.ParsePathString(httputil.GetPathVars(r), "id")
//	token := httputil.BearerToken(r)
//
// # Middleware
//
//	handler = httputil.LoggingMiddleware(logger)(handler)
//	handler = httputil.RequestIDMiddleware(handler)
//
// # Related Packages
//
//   - pkg/api: Builds its handlers on these helpers
//   - pkg/contextkeys: Carries the request id injected here
package httputil
