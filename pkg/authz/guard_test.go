package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parablehq/parable/pkg/audit"
	"github.com/parablehq/parable/pkg/roles"
)

type captureLogger struct {
	entries []*audit.Entry
	err     error
}

func (c *captureLogger) Record(ctx context.Context, entry *audit.Entry) error {
	c.entries = append(c.entries, entry)
	return c.err
}

func (c *captureLogger) Close() error { return nil }

func TestGuardDeniedRecordsOneEntry(t *testing.T) {
	sink := &captureLogger{}
	guard := NewGuard(sink)

	reader := actorWithRole("reader@example.com", roles.RoleReader)
	meta := RequestMeta{IP: "10.0.0.1", UserAgent: "curl/8"}

	d := guard.Check(context.Background(), ActionPostCreate, reader, Target{Type: "post"}, meta)
	assert.False(t, d.Allowed)

	require.Len(t, sink.entries, 1)
	entry := sink.entries[0]
	assert.Equal(t, audit.Action("post.create"), entry.Action)
	assert.Equal(t, audit.OutcomeDenied, entry.Outcome)
	assert.Equal(t, string(ReasonInsufficient), entry.Error)
	assert.Equal(t, "reader@example.com", entry.Actor.Email)
	assert.Equal(t, "10.0.0.1", entry.IP)
	assert.Equal(t, "curl/8", entry.UserAgent)
}

func TestGuardAllowedRecordsNothingUntilOutcome(t *testing.T) {
	sink := &captureLogger{}
	guard := NewGuard(sink)

	writer := actorWithRole("writer@example.com", roles.RoleWriter)
	target := Target{Type: "post", ID: "p1"}
	meta := RequestMeta{}

	d := guard.Check(context.Background(), ActionPostCreate, writer, target, meta)
	assert.True(t, d.Allowed)
	assert.Empty(t, sink.entries)

	guard.Success(context.Background(), ActionPostCreate, writer, target, meta,
		map[string]interface{}{"title": "hello"})

	require.Len(t, sink.entries, 1)
	entry := sink.entries[0]
	assert.Equal(t, audit.OutcomeSuccess, entry.Outcome)
	assert.Equal(t, "hello", entry.Meta["title"])
	assert.Equal(t, "p1", entry.Target.ID)
}

func TestGuardErrorOutcome(t *testing.T) {
	sink := &captureLogger{}
	guard := NewGuard(sink)

	admin := actorWithRole("admin@example.com", roles.RoleAdmin)
	target := Target{Type: "user", ID: "gone@example.com", OwnerEmail: "gone@example.com"}

	guard.Error(context.Background(), ActionUserDelete, admin, target, RequestMeta{}, errors.New("user not found"))

	require.Len(t, sink.entries, 1)
	assert.Equal(t, audit.OutcomeError, sink.entries[0].Outcome)
	assert.Equal(t, "user not found", sink.entries[0].Error)
}

func TestGuardSinkFailureIsSwallowed(t *testing.T) {
	sink := &captureLogger{err: errors.New("disk full")}
	guard := NewGuard(sink)

	writer := actorWithRole("writer@example.com", roles.RoleWriter)
	target := Target{Type: "post", ID: "p1"}

	assert.NotPanics(t, func() {
		d := guard.Check(context.Background(), ActionPostCreate, writer, target, RequestMeta{})
		assert.True(t, d.Allowed)
		guard.Success(context.Background(), ActionPostCreate, writer, target, RequestMeta{}, nil)
	})
	assert.Len(t, sink.entries, 1)
}

func TestGuardNilLogger(t *testing.T) {
	guard := NewGuard(nil)
	writer := actorWithRole("writer@example.com", roles.RoleWriter)

	assert.NotPanics(t, func() {
		guard.Check(context.Background(), ActionPostCreate, writer, Target{Type: "post"}, RequestMeta{})
		guard.Success(context.Background(), ActionPostCreate, writer, Target{Type: "post"}, RequestMeta{}, nil)
	})
}
