package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parablehq/parable/pkg/roles"
)

func actorWithRole(email string, role roles.Role) *Actor {
	return &Actor{Email: email, Role: role, Permissions: roles.PermissionsFor(role)}
}

func TestAuthorizeUnauthenticated(t *testing.T) {
	for _, action := range []Action{
		ActionPostCreate, ActionPostEdit, ActionPostDelete,
		ActionCommentCreate, ActionCommentDelete,
		ActionRoleUpdate, ActionUserDelete,
	} {
		t.Run(string(action), func(t *testing.T) {
			d := Authorize(action, nil, Target{Type: "post", ID: "p1"})
			assert.False(t, d.Allowed)
			assert.Equal(t, ReasonUnauthenticated, d.Reason)

			// An actor without an email is indistinguishable from no session.
			d = Authorize(action, &Actor{}, Target{Type: "post", ID: "p1"})
			assert.False(t, d.Allowed)
			assert.Equal(t, ReasonUnauthenticated, d.Reason)
		})
	}
}

func TestAuthorizePosts(t *testing.T) {
	admin := actorWithRole("admin@example.com", roles.RoleAdmin)
	writer := actorWithRole("writer@example.com", roles.RoleWriter)
	other := actorWithRole("other@example.com", roles.RoleWriter)
	reader := actorWithRole("reader@example.com", roles.RoleReader)
	banned := actorWithRole("banned@example.com", roles.RoleBanned)

	own := Target{Type: "post", ID: "p1", OwnerEmail: writer.Email}

	tests := []struct {
		name    string
		action  Action
		actor   *Actor
		target  Target
		allowed bool
		reason  Reason
	}{
		{"writer creates", ActionPostCreate, writer, Target{Type: "post"}, true, ""},
		{"admin creates", ActionPostCreate, admin, Target{Type: "post"}, true, ""},
		{"reader cannot create", ActionPostCreate, reader, Target{Type: "post"}, false, ReasonInsufficient},
		{"banned cannot create", ActionPostCreate, banned, Target{Type: "post"}, false, ReasonInsufficient},

		{"author edits own post", ActionPostEdit, writer, own, true, ""},
		{"admin edits any post", ActionPostEdit, admin, own, true, ""},
		{"other writer cannot edit", ActionPostEdit, other, own, false, ReasonForbidden},

		{"author deletes own post", ActionPostDelete, writer, own, true, ""},
		{"admin deletes any post", ActionPostDelete, admin, own, true, ""},
		{"other writer cannot delete", ActionPostDelete, other, own, false, ReasonForbidden},
		{"reader cannot delete", ActionPostDelete, reader, own, false, ReasonForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Authorize(tt.action, tt.actor, tt.target)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestAuthorizeComments(t *testing.T) {
	admin := actorWithRole("admin@example.com", roles.RoleAdmin)
	postAuthor := actorWithRole("author@example.com", roles.RoleWriter)
	commenter := actorWithRole("commenter@example.com", roles.RoleReader)
	bystander := actorWithRole("bystander@example.com", roles.RoleWriter)
	banned := actorWithRole("banned@example.com", roles.RoleBanned)

	comment := Target{
		Type:           "comment",
		ID:             "c1",
		OwnerEmail:     commenter.Email,
		PostOwnerEmail: postAuthor.Email,
	}

	tests := []struct {
		name    string
		action  Action
		actor   *Actor
		target  Target
		allowed bool
		reason  Reason
	}{
		{"reader comments", ActionCommentCreate, commenter, Target{Type: "post", ID: "p1"}, true, ""},
		{"banned cannot comment", ActionCommentCreate, banned, Target{Type: "post", ID: "p1"}, false, ReasonInsufficient},

		{"admin moderates", ActionCommentDelete, admin, comment, true, ""},
		{"post author moderates their thread", ActionCommentDelete, postAuthor, comment, true, ""},
		{"commenter removes their own", ActionCommentDelete, commenter, comment, true, ""},
		{"unrelated writer cannot moderate", ActionCommentDelete, bystander, comment, false, ReasonForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Authorize(tt.action, tt.actor, tt.target)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestAuthorizeUserManagement(t *testing.T) {
	admin := actorWithRole("admin@example.com", roles.RoleAdmin)
	writer := actorWithRole("writer@example.com", roles.RoleWriter)

	other := Target{Type: "user", ID: "other@example.com", OwnerEmail: "other@example.com"}
	self := Target{Type: "user", ID: admin.Email, OwnerEmail: admin.Email}

	for _, action := range []Action{ActionRoleUpdate, ActionUserDelete} {
		t.Run(string(action), func(t *testing.T) {
			d := Authorize(action, admin, other)
			assert.True(t, d.Allowed)

			// Self-targeting is rejected even for admins, and before the
			// permission check runs.
			d = Authorize(action, admin, self)
			assert.False(t, d.Allowed)
			assert.Equal(t, ReasonSelfTarget, d.Reason)

			selfWriter := Target{Type: "user", ID: writer.Email, OwnerEmail: writer.Email}
			d = Authorize(action, writer, selfWriter)
			assert.Equal(t, ReasonSelfTarget, d.Reason)

			d = Authorize(action, writer, other)
			assert.False(t, d.Allowed)
			assert.Equal(t, ReasonInsufficient, d.Reason)
		})
	}
}

func TestAuthorizeUnknownAction(t *testing.T) {
	admin := actorWithRole("admin@example.com", roles.RoleAdmin)
	d := Authorize(Action("post.publish"), admin, Target{Type: "post", ID: "p1"})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonForbidden, d.Reason)
}
