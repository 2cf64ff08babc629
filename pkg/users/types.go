package users

import (
	"errors"
	"time"

	"github.com/parablehq/parable/pkg/roles"
)

// ErrNotFound is returned when no user record matches the given email.
var ErrNotFound = errors.New("user not found")

// User is a persisted user record. Email is the sole identity key; no two
// records share an email.
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      *string    `json:"name"`
	AvatarURL *string    `json:"image"`
	Role      roles.Role `json:"role"`
	LastLogin time.Time  `json:"lastLogin"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Store is the persistence boundary for user records. Backing format is
// irrelevant to callers; the file store below is one implementation.
type Store interface {
	// FindByEmail returns the record for email, or ErrNotFound.
	FindByEmail(email string) (*User, error)

	// Upsert inserts or replaces the record keyed by its email. The write
	// must be atomic at single-record granularity.
	Upsert(user *User) error

	// Delete removes the record for email and reports whether it existed.
	Delete(email string) (bool, error)

	// ListAll returns every record.
	ListAll() ([]*User, error)
}

// Stats summarizes the store by role for the admin console.
type Stats struct {
	Total   int `json:"total"`
	Admins  int `json:"admins"`
	Writers int `json:"writers"`
	Readers int `json:"readers"`
	Banned  int `json:"banned"`
}
