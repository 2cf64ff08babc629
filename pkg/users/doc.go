// Package users persists user records and owns their lifecycle.
//
// Records are created on first successful sign-in and refreshed on every
// subsequent one; the stored role is authoritative once a record exists.
// Admin-facing role changes and deletions go through the Manager, which
// surfaces ErrNotFound for unknown emails. The default Store implementation
// keeps everything in a single users.json file with atomic replacement.
package users
