// Package audit records authorization decisions and their outcomes.
//
// # Contract
//
// Every guarded action produces exactly one Entry: denied decisions are
// recorded before the side effect is attempted, success and error outcomes
// after it completes. Sinks are append-only; a sink failure must never fail
// or retry the guarded action (authz.Guard enforces this).
//
// # Sinks
//
// FileLogger writes JSON lines with size-based rotation. DBLogger keeps
// entries in a SQL table so the admin console can filter and page them.
// MultiLogger fans out to both. Retention sweeps expired files and rows on
// a cron schedule.
package audit
