// Package allowlist holds the bootstrap admin allowlist.
//
// The list is parsed once at startup from configuration and injected as a
// value; it is never re-read from the process environment at call time and
// never mutated while the process runs. Membership can only ever grant
// admin, it cannot demote.
package allowlist

import "strings"

// Allowlist is a static, case-insensitive set of admin emails.
type Allowlist struct {
	emails  map[string]struct{}
	ordered []string
}

// Parse builds an Allowlist from a comma-separated list of emails.
// Entries are trimmed; empty entries and duplicates are dropped.
func Parse(raw string) *Allowlist {
	al := &Allowlist{emails: make(map[string]struct{})}
	for _, entry := range strings.Split(raw, ",") {
		email := strings.TrimSpace(entry)
		if email == "" {
			continue
		}
		key := strings.ToLower(email)
		if _, dup := al.emails[key]; dup {
			continue
		}
		al.emails[key] = struct{}{}
		al.ordered = append(al.ordered, email)
	}
	return al
}

// IsMember reports whether email is on the allowlist, ignoring case.
func (al *Allowlist) IsMember(email string) bool {
	if al == nil || email == "" {
		return false
	}
	_, ok := al.emails[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// Emails returns the allowlisted emails as configured, in input order.
func (al *Allowlist) Emails() []string {
	if al == nil {
		return nil
	}
	out := make([]string, len(al.ordered))
	copy(out, al.ordered)
	return out
}

// Len returns the number of allowlisted emails.
func (al *Allowlist) Len() int {
	if al == nil {
		return 0
	}
	return len(al.emails)
}
