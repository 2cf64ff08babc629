package audit

import (
	"encoding/json"
	"time"
)

// Action tags the operation an entry describes, e.g. "post.delete".
type Action string

const (
	ActionPostCreate    Action = "post.create"
	ActionPostEdit      Action = "post.edit"
	ActionPostDelete    Action = "post.delete"
	ActionCommentCreate Action = "comment.create"
	ActionCommentDelete Action = "comment.delete"
	ActionRoleUpdate    Action = "user.role_update"
	ActionUserDelete    Action = "user.delete"
	ActionLogin         Action = "auth.login"
	ActionLogout        Action = "auth.logout"
)

// Outcome is the result of a guarded operation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeDenied  Outcome = "denied"
	OutcomeError   Outcome = "error"
)

// Actor identifies who attempted the operation.
type Actor struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Target identifies what the operation acted on.
type Target struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

// Entry is a single audit record: one authorization decision and its
// outcome. Exactly one entry is emitted per guarded call.
type Entry struct {
	Timestamp time.Time              `json:"timestamp"`
	Action    Action                 `json:"action"`
	Outcome   Outcome                `json:"outcome"`
	Actor     *Actor                 `json:"actor,omitempty"`
	Target    *Target                `json:"target,omitempty"`
	IP        string                 `json:"ip,omitempty"`
	UserAgent string                 `json:"userAgent,omitempty"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// ToJSON serializes the entry.
func (e *Entry) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON parses an entry.
func FromJSON(data []byte) (*Entry, error) {
	var e Entry
	err := json.Unmarshal(data, &e)
	return &e, err
}

// SearchFilter narrows a query over persisted entries.
type SearchFilter struct {
	StartTime  *time.Time
	EndTime    *time.Time
	Action     Action
	Outcome    Outcome
	ActorEmail string
	TargetType string
	TargetID   string

	Limit  int
	Offset int
}
