// Package roles defines the closed role enumeration and the capability
// sets derived from it.
//
// Exactly one role is active per user at any time. Capabilities are a pure
// function of the role: they are never persisted and never overridden
// per-user. Everything that needs to know what a user may do calls
// PermissionsFor and inspects the returned PermissionSet.
package roles
