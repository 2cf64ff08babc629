package roles

import "fmt"

// Role represents a user's privilege level
type Role string

const (
	RoleBanned Role = "banned" // Blocked from all participation
	RoleReader Role = "reader" // Default role, read and comment
	RoleWriter Role = "writer" // Can author posts
	RoleAdmin  Role = "admin"  // Full access, including user management
)

// privilegeOrder defines the strict total order banned < reader < writer < admin
var privilegeOrder = map[Role]int{
	RoleBanned: 0,
	RoleReader: 1,
	RoleWriter: 2,
	RoleAdmin:  3,
}

// Valid reports whether r is one of the defined roles
func (r Role) Valid() bool {
	_, ok := privilegeOrder[r]
	return ok
}

// AtLeast reports whether r carries at least the privilege of other.
// Unknown roles compare as reader.
func (r Role) AtLeast(other Role) bool {
	return rank(r) >= rank(other)
}

func rank(r Role) int {
	if n, ok := privilegeOrder[r]; ok {
		return n
	}
	return privilegeOrder[RoleReader]
}

// Parse converts a string into a Role
func Parse(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}

// All returns every defined role in ascending privilege order
func All() []Role {
	return []Role{RoleBanned, RoleReader, RoleWriter, RoleAdmin}
}

// PermissionSet is the capability record derived from a Role.
// It is never stored; always recompute it with PermissionsFor.
type PermissionSet struct {
	CanRead    bool `json:"canRead"`
	CanWrite   bool `json:"canWrite"`
	CanDelete  bool `json:"canDelete"`
	CanComment bool `json:"canComment"`
}

// PermissionsFor maps a role to its capability set. The mapping is total:
// an unrecognized role value falls back to the reader row.
func PermissionsFor(role Role) PermissionSet {
	switch role {
	case RoleAdmin:
		return PermissionSet{CanRead: true, CanWrite: true, CanDelete: true, CanComment: true}
	case RoleWriter:
		return PermissionSet{CanRead: true, CanWrite: true, CanDelete: false, CanComment: true}
	case RoleReader:
		return PermissionSet{CanRead: true, CanWrite: false, CanDelete: false, CanComment: true}
	case RoleBanned:
		return PermissionSet{CanRead: true, CanWrite: false, CanDelete: false, CanComment: false}
	default:
		return PermissionSet{CanRead: true, CanWrite: false, CanDelete: false, CanComment: true}
	}
}
