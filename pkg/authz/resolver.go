package authz

import (
	"github.com/parablehq/parable/pkg/allowlist"
	"github.com/parablehq/parable/pkg/roles"
	"github.com/parablehq/parable/pkg/users"
)

// Resolver computes the effective role for an email.
//
// The user store is authoritative once a record exists; the allowlist only
// governs emails the store has never seen, and can only ever grant admin.
type Resolver struct {
	store users.Store
	admin *allowlist.Allowlist
}

// NewResolver creates a role resolver over the given store and allowlist.
func NewResolver(store users.Store, admin *allowlist.Allowlist) *Resolver {
	return &Resolver{store: store, admin: admin}
}

// ResolveRole returns the effective role for email.
//
// An empty email resolves to reader; callers distinguish "no session" from
// "reader session" by checking session presence, not this return value.
// Store read failures degrade to "not found" rather than propagating.
func (r *Resolver) ResolveRole(email string) roles.Role {
	if email == "" {
		return roles.RoleReader
	}

	if user, err := r.store.FindByEmail(email); err == nil && user.Role.Valid() {
		return user.Role
	}

	if r.admin.IsMember(email) {
		return roles.RoleAdmin
	}

	return roles.RoleReader
}

// ActorFor resolves email into a fully populated Actor, or nil when email
// is empty (no session).
func (r *Resolver) ActorFor(email, name string) *Actor {
	if email == "" {
		return nil
	}
	role := r.ResolveRole(email)
	return &Actor{
		Email:       email,
		Name:        name,
		Role:        role,
		Permissions: roles.PermissionsFor(role),
	}
}
