package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/parablehq/parable/pkg/audit"
	"github.com/parablehq/parable/pkg/authz"
	"github.com/parablehq/parable/pkg/comments"
	"github.com/parablehq/parable/pkg/middleware"
	"github.com/parablehq/parable/pkg/observability"
	"github.com/parablehq/parable/pkg/posts"
	"github.com/parablehq/parable/pkg/session"
	"github.com/parablehq/parable/pkg/users"
	"github.com/parablehq/parable/pkg/views"
)

// Server is the HTTP API: posts, comments, sign-in, and the admin console
// endpoints. Every mutating route runs through the authorization guard.
type Server struct {
	router *mux.Router

	guard    *authz.Guard
	posts    *posts.FileStore
	comments *comments.FileStore
	users    *users.Manager
	auditLog audit.Searcher
	views    views.Counter
	logger   *observability.Logger
}

// Deps bundles the collaborators the server needs.
type Deps struct {
	Guard    *authz.Guard
	Posts    *posts.FileStore
	Comments *comments.FileStore
	Users    *users.Manager
	AuditLog audit.Searcher
	Views    views.Counter
	Session  *middleware.Session
	Auth     *session.Handlers
	Logger   *observability.Logger
}

// NewServer builds the router and registers all routes.
func NewServer(deps Deps) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		guard:    deps.Guard,
		posts:    deps.Posts,
		comments: deps.Comments,
		users:    deps.Users,
		auditLog: deps.AuditLog,
		views:    deps.Views,
		logger:   deps.Logger,
	}
	if s.views == nil {
		s.views = views.NopCounter{}
	}

	s.router.Use(mux.MiddlewareFunc(middleware.RequestID))
	s.router.Use(mux.MiddlewareFunc(middleware.Logging(deps.Logger)))
	s.router.Use(mux.MiddlewareFunc(deps.Session.Handler))

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	if deps.Auth != nil {
		s.router.HandleFunc("/auth/login", deps.Auth.Login).Methods(http.MethodGet)
		s.router.HandleFunc("/auth/callback", deps.Auth.Callback).Methods(http.MethodGet)
		s.router.HandleFunc("/auth/logout", deps.Auth.Logout).Methods(http.MethodGet, http.MethodPost)
	}

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/posts", s.handleListPosts).Methods(http.MethodGet)
	api.HandleFunc("/posts", s.handleCreatePost).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id}", s.handleGetPost).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id}", s.handleEditPost).Methods(http.MethodPut)
	api.HandleFunc("/posts/{id}", s.handleDeletePost).Methods(http.MethodDelete)
	api.HandleFunc("/posts/{id}/view", s.handlePostView).Methods(http.MethodPost)

	api.HandleFunc("/comments/{postId}", s.handleListComments).Methods(http.MethodGet)
	api.HandleFunc("/comments/{postId}", s.handleCreateComment).Methods(http.MethodPost)
	api.HandleFunc("/comments/{postId}/{commentId}", s.handleDeleteComment).Methods(http.MethodDelete)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/users", s.handleListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users", s.handleUpdateRole).Methods(http.MethodPut)
	admin.HandleFunc("/users", s.handleDeleteUser).Methods(http.MethodDelete)
	admin.HandleFunc("/logs", s.handleSearchLogs).Methods(http.MethodGet)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
