package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/parablehq/parable/pkg/authz"
	"github.com/parablehq/parable/pkg/middleware"
	"github.com/parablehq/parable/pkg/posts"
)

type postPayload struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type postResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	AuthorEmail string    `json:"authorEmail"`
	AuthorName  string    `json:"authorName"`
	Content     string    `json:"content,omitempty"`
	Views       int64     `json:"views"`
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	all, err := s.posts.List()
	if err != nil {
		s.logger.WithError(err).Error("failed to list posts")
		writeError(w, http.StatusInternalServerError, "failed to list posts")
		return
	}

	out := make([]postResponse, 0, len(all))
	for _, p := range all {
		viewCount, _ := s.views.Get(r.Context(), p.ID)
		out = append(out, postResponse{
			ID:          p.ID,
			Title:       p.Title,
			Date:        p.Date,
			AuthorEmail: p.AuthorEmail,
			AuthorName:  p.AuthorName,
			Views:       viewCount,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "posts": out})
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.posts.GetByID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	viewCount, _ := s.views.Get(r.Context(), post.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"post": postResponse{
			ID:          post.ID,
			Title:       post.Title,
			Date:        post.Date,
			AuthorEmail: post.AuthorEmail,
			AuthorName:  post.AuthorName,
			Content:     post.Content,
			Views:       viewCount,
		},
	})
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	meta := requestMeta(r)

	var payload postPayload
	if err := decodeBody(r, &payload); err != nil || strings.TrimSpace(payload.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	id := payload.ID
	if id == "" {
		id = uuid.NewString()
	}
	target := authz.Target{Type: "post", ID: id}

	decision := s.guard.Check(r.Context(), authz.ActionPostCreate, actor, target, meta)
	if !decision.Allowed {
		writeDenial(w, decision)
		return
	}

	post := &posts.Post{
		ID:          id,
		Title:       payload.Title,
		Date:        time.Now().UTC(),
		AuthorEmail: actor.Email,
		AuthorName:  actor.Name,
		Content:     payload.Content,
	}
	if err := s.posts.Save(post); err != nil {
		s.guard.Error(r.Context(), authz.ActionPostCreate, actor, target, meta, err)
		writeError(w, http.StatusInternalServerError, "failed to save post")
		return
	}

	s.guard.Success(r.Context(), authz.ActionPostCreate, actor, target, meta, map[string]interface{}{"title": post.Title})
	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "id": post.ID})
}

func (s *Server) handleEditPost(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	meta := requestMeta(r)
	id := mux.Vars(r)["id"]

	existing, err := s.posts.GetByID(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	target := authz.Target{Type: "post", ID: id, OwnerEmail: existing.AuthorEmail}

	decision := s.guard.Check(r.Context(), authz.ActionPostEdit, actor, target, meta)
	if !decision.Allowed {
		writeDenial(w, decision)
		return
	}

	var payload postPayload
	if err := decodeBody(r, &payload); err != nil || strings.TrimSpace(payload.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	// Authorship never changes on edit
	existing.Title = payload.Title
	existing.Content = payload.Content
	if err := s.posts.Save(existing); err != nil {
		s.guard.Error(r.Context(), authz.ActionPostEdit, actor, target, meta, err)
		writeError(w, http.StatusInternalServerError, "failed to save post")
		return
	}

	s.guard.Success(r.Context(), authz.ActionPostEdit, actor, target, meta, nil)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	meta := requestMeta(r)
	id := mux.Vars(r)["id"]

	post, err := s.posts.GetByID(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	target := authz.Target{Type: "post", ID: id, OwnerEmail: post.AuthorEmail}

	decision := s.guard.Check(r.Context(), authz.ActionPostDelete, actor, target, meta)
	if !decision.Allowed {
		writeDenial(w, decision)
		return
	}

	if err := s.posts.Delete(id); err != nil {
		s.guard.Error(r.Context(), authz.ActionPostDelete, actor, target, meta, err)
		writeError(w, http.StatusInternalServerError, "failed to delete post")
		return
	}

	s.guard.Success(r.Context(), authz.ActionPostDelete, actor, target, meta, map[string]interface{}{
		"title":            post.Title,
		"attachmentsCount": len(post.Attachments),
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) handlePostView(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := s.posts.GetByID(id); err != nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	total, err := s.views.Increment(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).WithField("post", id).Warn("failed to count view")
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "views": total})
}
