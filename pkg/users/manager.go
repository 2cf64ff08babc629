package users

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/parablehq/parable/pkg/roles"
)

// RoleResolver computes the effective role for an email. It is satisfied by
// authz.Resolver; the indirection keeps the dependency direction clean
// (this package never imports the authorization core).
type RoleResolver interface {
	ResolveRole(email string) roles.Role
}

// Manager owns the user record lifecycle: creation on first login, profile
// refresh on every subsequent login, and explicit admin mutations.
type Manager struct {
	store    Store
	resolver RoleResolver
	now      func() time.Time
}

// NewManager creates a lifecycle manager over the given store and resolver.
func NewManager(store Store, resolver RoleResolver) *Manager {
	return &Manager{store: store, resolver: resolver, now: time.Now}
}

// UpsertOnLogin is called exactly once per successful external
// authentication event.
//
// A new record gets its role from the resolver; since the store has no
// entry yet this amounts to allowlist-or-reader. An existing record keeps
// its stored role: the allowlist governs creation, not refresh, so an
// intentional demotion (or an allowlist removal) is never overwritten by
// the next login.
func (m *Manager) UpsertOnLogin(email string, name, avatarURL *string) (*User, error) {
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	now := m.now().UTC()

	existing, err := m.store.FindByEmail(email)
	if err != nil && err != ErrNotFound {
		return nil, fmt.Errorf("failed to look up user %s: %w", email, err)
	}

	if existing != nil {
		existing.Name = name
		existing.AvatarURL = avatarURL
		existing.LastLogin = now
		if err := m.store.Upsert(existing); err != nil {
			return nil, fmt.Errorf("failed to update user %s: %w", email, err)
		}
		return existing, nil
	}

	user := &User{
		ID:        "user_" + uuid.NewString(),
		Email:     email,
		Name:      name,
		AvatarURL: avatarURL,
		Role:      m.resolver.ResolveRole(email),
		LastLogin: now,
		CreatedAt: now,
	}
	if err := m.store.Upsert(user); err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", email, err)
	}
	return user, nil
}

// UpdateRole sets a new role on an existing record. The caller is
// responsible for authorizing the change; this returns ErrNotFound when no
// record matches.
func (m *Manager) UpdateRole(email string, role roles.Role) error {
	if !role.Valid() {
		return fmt.Errorf("invalid role: %q", role)
	}

	user, err := m.store.FindByEmail(email)
	if err != nil {
		return err
	}

	user.Role = role
	if err := m.store.Upsert(user); err != nil {
		return fmt.Errorf("failed to persist role change for %s: %w", email, err)
	}
	return nil
}

// Delete removes the record for email, returning ErrNotFound when absent.
func (m *Manager) Delete(email string) error {
	found, err := m.store.Delete(email)
	if err != nil {
		return fmt.Errorf("failed to delete user %s: %w", email, err)
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// List returns every user record.
func (m *Manager) List() ([]*User, error) {
	return m.store.ListAll()
}

// Stats returns per-role counts across the store.
func (m *Manager) Stats() (*Stats, error) {
	all, err := m.store.ListAll()
	if err != nil {
		return nil, err
	}

	stats := &Stats{Total: len(all)}
	for _, u := range all {
		switch u.Role {
		case roles.RoleAdmin:
			stats.Admins++
		case roles.RoleWriter:
			stats.Writers++
		case roles.RoleBanned:
			stats.Banned++
		default:
			stats.Readers++
		}
	}
	return stats, nil
}
