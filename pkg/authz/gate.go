package authz

import (
	"github.com/parablehq/parable/pkg/roles"
)

// Action names a gated operation.
type Action string

const (
	ActionPostCreate    Action = "post.create"
	ActionPostEdit      Action = "post.edit"
	ActionPostDelete    Action = "post.delete"
	ActionCommentCreate Action = "comment.create"
	ActionCommentDelete Action = "comment.delete"
	ActionRoleUpdate    Action = "user.role_update"
	ActionUserDelete    Action = "user.delete"
)

// Reason explains a denial, and distinguishes the cases the audit trail
// cares about.
type Reason string

const (
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonSelfTarget      Reason = "forbidden-self-target"
	ReasonInsufficient    Reason = "insufficient-permissions"
	ReasonForbidden       Reason = "forbidden"
)

// Actor is the typed identity an authorization check runs against. A nil
// *Actor means no session.
type Actor struct {
	Email       string
	Name        string
	Role        roles.Role
	Permissions roles.PermissionSet
}

// IsAdmin reports whether the actor holds the admin role.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == roles.RoleAdmin
}

// Target carries the ownership facts about the resource being acted on.
// Callers fetch these from the owning store before calling the gate.
type Target struct {
	// Type is the resource kind: "post", "comment", "user".
	Type string

	// ID identifies the resource.
	ID string

	// OwnerEmail is the resource's recorded author, or for user targets
	// the user's own email.
	OwnerEmail string

	// PostOwnerEmail is the parent post's author for comment targets; the
	// post author may moderate every comment on their post.
	PostOwnerEmail string
}

// Decision is the allow/deny outcome of one authorization check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason Reason) Decision { return Decision{Reason: reason} }

// Authorize decides whether actor may perform action on target. It is pure:
// no I/O, no state, ownership facts supplied by the caller. Rules are
// evaluated in a fixed precedence order and the first match wins.
func Authorize(action Action, actor *Actor, target Target) Decision {
	// Every gated action requires identity
	if actor == nil || actor.Email == "" {
		return deny(ReasonUnauthenticated)
	}

	switch action {
	case ActionPostDelete:
		// Admins delete anything; authors delete their own posts
		if actor.Permissions.CanDelete || actor.Email == target.OwnerEmail {
			return allow()
		}
		return deny(ReasonForbidden)

	case ActionPostEdit:
		if actor.IsAdmin() || actor.Email == target.OwnerEmail {
			return allow()
		}
		return deny(ReasonForbidden)

	case ActionCommentDelete:
		if actor.IsAdmin() || actor.Email == target.PostOwnerEmail || actor.Email == target.OwnerEmail {
			return allow()
		}
		return deny(ReasonForbidden)

	case ActionCommentCreate:
		if actor.Permissions.CanComment {
			return allow()
		}
		return deny(ReasonInsufficient)

	case ActionPostCreate:
		if actor.Permissions.CanWrite {
			return allow()
		}
		return deny(ReasonInsufficient)

	case ActionRoleUpdate, ActionUserDelete:
		// Self-targeting is rejected before the permission check
		if target.OwnerEmail == actor.Email {
			return deny(ReasonSelfTarget)
		}
		if !actor.Permissions.CanDelete {
			return deny(ReasonInsufficient)
		}
		return allow()

	default:
		return deny(ReasonForbidden)
	}
}
