// Package middleware carries the HTTP middleware chain: request IDs,
// request logging/metrics, and the session middleware that turns a cookie
// into a typed actor for the authorization gate.
package middleware

import (
	"context"
	"net/http"

	"github.com/parablehq/parable/pkg/authz"
	"github.com/parablehq/parable/pkg/contextkeys"
	"github.com/parablehq/parable/pkg/session"
)

// Session resolves the signed-in user (if any) into an *authz.Actor and
// attaches it to the request context. Handlers read it back with GetActor;
// a nil actor means no session, which the gate denies as unauthenticated.
type Session struct {
	store    *session.Store
	resolver *authz.Resolver
}

// NewSession creates the session middleware.
func NewSession(store *session.Store, resolver *authz.Resolver) *Session {
	return &Session{store: store, resolver: resolver}
}

// Handler wraps next with actor resolution.
func (m *Session) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims := m.store.Claims(r); claims != nil {
			actor := m.resolver.ActorFor(claims.Email, claims.Name)
			ctx := context.WithValue(r.Context(), contextkeys.AuthKey, actor)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// GetActor returns the request's actor, or nil when unauthenticated.
func GetActor(r *http.Request) *authz.Actor {
	actor, ok := r.Context().Value(contextkeys.AuthKey).(*authz.Actor)
	if !ok {
		return nil
	}
	return actor
}
