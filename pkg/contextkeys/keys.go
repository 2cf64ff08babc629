// Package contextkeys provides centralized context key definitions
//
// All context keys used across the application are defined here. This
// prevents typos, documents dependencies, and makes key usage
// discoverable.
package contextkeys

// Key is the type for context keys to prevent collisions
type Key string

const (
	// AuthKey contains *authz.Actor for the signed-in user; absent when
	// there is no session.
	// Set by: middleware.Session (pkg/middleware/session.go)
	// Required by: all guarded API endpoints
	AuthKey Key = "auth_actor"

	// RequestIDKey contains the request ID string (UUID)
	// Set by: middleware.RequestID
	// Used by: logger, audit trail
	RequestIDKey Key = "request_id"
)
