// Package authz is the authorization core: role resolution and the
// ownership-aware gate every mutating action passes through.
//
// # Role resolution
//
// Resolver consults the user store first and the admin allowlist second,
// defaulting to reader. The store is authoritative once a record exists;
// the allowlist can only ever grant admin to emails the store has never
// seen.
//
// # The gate
//
// Authorize is a pure function over a typed Actor, an Action, and the
// ownership facts in Target. Rules run in a fixed precedence order:
// unauthenticated denies first, self-targeting on user management denies
// before the permission check, then role and ownership checks as listed in
// the action table. Denials distinguish unauthenticated, self-target,
// missing capability, and ownership mismatch.
//
// # The guard
//
// Guard wraps the gate so that every decision produces exactly one audit
// entry and one metrics increment. Handlers call Check before the side
// effect and Success or Error after it; audit sink failures never affect
// the guarded action.
package authz
