package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parablehq/parable/pkg/allowlist"
	"github.com/parablehq/parable/pkg/audit"
	"github.com/parablehq/parable/pkg/authz"
	"github.com/parablehq/parable/pkg/comments"
	"github.com/parablehq/parable/pkg/middleware"
	"github.com/parablehq/parable/pkg/observability"
	"github.com/parablehq/parable/pkg/posts"
	"github.com/parablehq/parable/pkg/roles"
	"github.com/parablehq/parable/pkg/session"
	"github.com/parablehq/parable/pkg/users"
)

type testEnv struct {
	server   *Server
	users    *users.FileStore
	posts    *posts.FileStore
	comments *comments.FileStore
	audit    *audit.FileLogger
	sessions *session.Store
}

func newTestEnv(t *testing.T, admins string) *testEnv {
	t.Helper()

	userStore, err := users.NewFileStore(t.TempDir())
	require.NoError(t, err)
	postStore, err := posts.NewFileStore(t.TempDir())
	require.NoError(t, err)
	commentStore, err := comments.NewFileStore(t.TempDir())
	require.NoError(t, err)
	auditLog, err := audit.NewFileLogger(audit.DefaultFileLoggerConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { auditLog.Close() })

	resolver := authz.NewResolver(userStore, allowlist.Parse(admins))
	manager := users.NewManager(userStore, resolver)
	sessions := session.NewStore("test-secret-key-32-bytes-long!!!", time.Hour, false)

	server := NewServer(Deps{
		Guard:    authz.NewGuard(auditLog),
		Posts:    postStore,
		Comments: commentStore,
		Users:    manager,
		AuditLog: auditLog,
		Session:  middleware.NewSession(sessions, resolver),
		Logger:   observability.NewLogger("error", io.Discard),
	})

	return &testEnv{
		server:   server,
		users:    userStore,
		posts:    postStore,
		comments: commentStore,
		audit:    auditLog,
		sessions: sessions,
	}
}

func (e *testEnv) seedUser(t *testing.T, email string, role roles.Role) {
	t.Helper()
	require.NoError(t, e.users.Upsert(&users.User{
		ID:        "user_" + email,
		Email:     email,
		Role:      role,
		CreatedAt: time.Now().UTC(),
		LastLogin: time.Now().UTC(),
	}))
}

// do performs a request, signed in as email when it is non-empty.
func (e *testEnv) do(t *testing.T, method, path, as string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	r := httptest.NewRequest(method, path, reader)

	if as != "" {
		saveW := httptest.NewRecorder()
		require.NoError(t, e.sessions.Save(saveW, httptest.NewRequest(http.MethodGet, "/", nil),
			&session.Claims{Email: as}))
		for _, c := range saveW.Result().Cookies() {
			r.AddCookie(c)
		}
	}

	w := httptest.NewRecorder()
	e.server.ServeHTTP(w, r)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (e *testEnv) auditEntries(t *testing.T, filter audit.SearchFilter) []*audit.Entry {
	t.Helper()
	entries, err := e.audit.Search(context.Background(), filter)
	require.NoError(t, err)
	return entries
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, "")
	w := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPostsArePublicToRead(t *testing.T) {
	env := newTestEnv(t, "")
	require.NoError(t, env.posts.Save(&posts.Post{
		ID: "p1", Title: "Hello", AuthorEmail: "writer@example.com", Content: "body",
	}))

	w := env.do(t, http.MethodGet, "/api/posts", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/posts/p1", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	post := resp["post"].(map[string]interface{})
	assert.Equal(t, "body", post["content"])

	w = env.do(t, http.MethodGet, "/api/posts/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreatePostUnauthenticated(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodPost, "/api/posts", "", map[string]string{"title": "Hello"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	entries := env.auditEntries(t, audit.SearchFilter{Action: audit.ActionPostCreate})
	require.Len(t, entries, 1)
	assert.Equal(t, audit.OutcomeDenied, entries[0].Outcome)
	assert.Equal(t, "unauthenticated", entries[0].Error)
}

func TestCreatePostAsReader(t *testing.T) {
	env := newTestEnv(t, "")
	env.seedUser(t, "reader@example.com", roles.RoleReader)

	w := env.do(t, http.MethodPost, "/api/posts", "reader@example.com", map[string]string{"title": "Hello"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	entries := env.auditEntries(t, audit.SearchFilter{Action: audit.ActionPostCreate})
	require.Len(t, entries, 1)
	assert.Equal(t, "insufficient-permissions", entries[0].Error)
}

func TestCreateEditDeletePostAsWriter(t *testing.T) {
	env := newTestEnv(t, "")
	env.seedUser(t, "writer@example.com", roles.RoleWriter)

	w := env.do(t, http.MethodPost, "/api/posts", "writer@example.com",
		map[string]string{"id": "p1", "title": "Hello", "content": "draft"})
	require.Equal(t, http.StatusCreated, w.Code)

	saved, err := env.posts.GetByID("p1")
	require.NoError(t, err)
	assert.Equal(t, "writer@example.com", saved.AuthorEmail)

	w = env.do(t, http.MethodPut, "/api/posts/p1", "writer@example.com",
		map[string]string{"title": "Hello v2", "content": "final"})
	require.Equal(t, http.StatusOK, w.Code)

	saved, err = env.posts.GetByID("p1")
	require.NoError(t, err)
	assert.Equal(t, "Hello v2", saved.Title)
	assert.Equal(t, "writer@example.com", saved.AuthorEmail)

	w = env.do(t, http.MethodDelete, "/api/posts/p1", "writer@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, err = env.posts.GetByID("p1")
	assert.ErrorIs(t, err, posts.ErrNotFound)

	// One entry per mutation, all successes
	for _, action := range []audit.Action{audit.ActionPostCreate, audit.ActionPostEdit, audit.ActionPostDelete} {
		entries := env.auditEntries(t, audit.SearchFilter{Action: action})
		require.Len(t, entries, 1, "action %s", action)
		assert.Equal(t, audit.OutcomeSuccess, entries[0].Outcome)
	}
}

func TestEditPostByNonOwner(t *testing.T) {
	env := newTestEnv(t, "")
	env.seedUser(t, "other@example.com", roles.RoleWriter)
	require.NoError(t, env.posts.Save(&posts.Post{ID: "p1", Title: "Hello", AuthorEmail: "writer@example.com"}))

	w := env.do(t, http.MethodPut, "/api/posts/p1", "other@example.com", map[string]string{"title": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	saved, err := env.posts.GetByID("p1")
	require.NoError(t, err)
	assert.Equal(t, "Hello", saved.Title)
}

func TestAdminDeletesAnyPost(t *testing.T) {
	env := newTestEnv(t, "boss@example.com")
	require.NoError(t, env.posts.Save(&posts.Post{ID: "p1", Title: "Hello", AuthorEmail: "writer@example.com"}))

	w := env.do(t, http.MethodDelete, "/api/posts/p1", "boss@example.com", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCommentFlow(t *testing.T) {
	env := newTestEnv(t, "")
	env.seedUser(t, "author@example.com", roles.RoleWriter)
	env.seedUser(t, "commenter@example.com", roles.RoleReader)
	env.seedUser(t, "bystander@example.com", roles.RoleWriter)
	require.NoError(t, env.posts.Save(&posts.Post{ID: "p1", Title: "Hello", AuthorEmail: "author@example.com"}))

	w := env.do(t, http.MethodPost, "/api/comments/p1", "commenter@example.com",
		map[string]string{"content": "nice post"})
	require.Equal(t, http.StatusCreated, w.Code)

	all, err := env.comments.ListByPost("p1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	commentID := all[0].ID

	// An unrelated writer cannot moderate someone else's thread
	w = env.do(t, http.MethodDelete, "/api/comments/p1/"+commentID, "bystander@example.com", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The post author can
	w = env.do(t, http.MethodDelete, "/api/comments/p1/"+commentID, "author@example.com", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	all, err = env.comments.ListByPost("p1")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestBannedCannotComment(t *testing.T) {
	env := newTestEnv(t, "")
	env.seedUser(t, "banned@example.com", roles.RoleBanned)
	require.NoError(t, env.posts.Save(&posts.Post{ID: "p1", Title: "Hello", AuthorEmail: "author@example.com"}))

	w := env.do(t, http.MethodPost, "/api/comments/p1", "banned@example.com",
		map[string]string{"content": "spam"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	entries := env.auditEntries(t, audit.SearchFilter{Action: audit.ActionCommentCreate})
	require.Len(t, entries, 1)
	assert.Equal(t, audit.OutcomeDenied, entries[0].Outcome)
}

func TestAdminListUsers(t *testing.T) {
	env := newTestEnv(t, "boss@example.com")
	env.seedUser(t, "writer@example.com", roles.RoleWriter)

	w := env.do(t, http.MethodGet, "/api/admin/users?stats=true", "boss@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.NotNil(t, resp["users"])
	assert.NotNil(t, resp["stats"])

	// Non-admins are turned away
	w = env.do(t, http.MethodGet, "/api/admin/users", "writer@example.com", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/admin/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminUpdateRole(t *testing.T) {
	env := newTestEnv(t, "boss@example.com")
	env.seedUser(t, "reader@example.com", roles.RoleReader)

	w := env.do(t, http.MethodPut, "/api/admin/users", "boss@example.com",
		map[string]string{"email": "reader@example.com", "role": "writer"})
	require.Equal(t, http.StatusOK, w.Code)

	updated, err := env.users.FindByEmail("reader@example.com")
	require.NoError(t, err)
	assert.Equal(t, roles.RoleWriter, updated.Role)

	// Unknown user maps to 404 with an error entry in the trail
	w = env.do(t, http.MethodPut, "/api/admin/users", "boss@example.com",
		map[string]string{"email": "ghost@example.com", "role": "writer"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	entries := env.auditEntries(t, audit.SearchFilter{Action: audit.ActionRoleUpdate, Outcome: audit.OutcomeError})
	assert.Len(t, entries, 1)

	// Bad role is rejected before the gate runs
	w = env.do(t, http.MethodPut, "/api/admin/users", "boss@example.com",
		map[string]string{"email": "reader@example.com", "role": "superuser"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminCannotTargetSelf(t *testing.T) {
	env := newTestEnv(t, "boss@example.com")

	w := env.do(t, http.MethodPut, "/api/admin/users", "boss@example.com",
		map[string]string{"email": "boss@example.com", "role": "reader"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodDelete, "/api/admin/users?email=boss@example.com", "boss@example.com", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	entries := env.auditEntries(t, audit.SearchFilter{Outcome: audit.OutcomeDenied})
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "forbidden-self-target", e.Error)
	}
}

func TestAdminDeleteUser(t *testing.T) {
	env := newTestEnv(t, "boss@example.com")
	env.seedUser(t, "writer@example.com", roles.RoleWriter)

	w := env.do(t, http.MethodDelete, "/api/admin/users?email=writer@example.com", "boss@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, err := env.users.FindByEmail("writer@example.com")
	assert.ErrorIs(t, err, users.ErrNotFound)

	w = env.do(t, http.MethodDelete, "/api/admin/users?email=writer@example.com", "boss@example.com", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminSearchLogs(t *testing.T) {
	env := newTestEnv(t, "boss@example.com")
	env.seedUser(t, "writer@example.com", roles.RoleWriter)

	// Generate some trail first
	w := env.do(t, http.MethodPost, "/api/posts", "writer@example.com",
		map[string]string{"id": "p1", "title": "Hello"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/api/admin/logs?action=post.create", "boss@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	entries := resp["entries"].([]interface{})
	require.Len(t, entries, 1)

	w = env.do(t, http.MethodGet, "/api/admin/logs", "writer@example.com", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPostViewCounting(t *testing.T) {
	env := newTestEnv(t, "")
	require.NoError(t, env.posts.Save(&posts.Post{ID: "p1", Title: "Hello", AuthorEmail: "writer@example.com"}))

	// The nop counter accepts the hit without tracking it
	w := env.do(t, http.MethodPost, "/api/posts/p1/view", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/posts/missing/view", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
