package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/parablehq/parable/pkg/authz"
	"github.com/parablehq/parable/pkg/middleware"
)

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["postId"]
	if _, err := s.posts.GetByID(postID); err != nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	list, err := s.comments.ListByPost(postID)
	if err != nil {
		s.logger.WithError(err).Error("failed to list comments")
		writeError(w, http.StatusInternalServerError, "failed to list comments")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "comments": list})
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	meta := requestMeta(r)
	postID := mux.Vars(r)["postId"]

	post, err := s.posts.GetByID(postID)
	if err != nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	target := authz.Target{Type: "post", ID: postID, OwnerEmail: post.AuthorEmail}

	decision := s.guard.Check(r.Context(), authz.ActionCommentCreate, actor, target, meta)
	if !decision.Allowed {
		writeDenial(w, decision)
		return
	}

	var payload struct {
		Content string `json:"content"`
	}
	if err := decodeBody(r, &payload); err != nil || payload.Content == "" {
		writeError(w, http.StatusBadRequest, "comment content is required")
		return
	}

	author := actor.Name
	if author == "" {
		author = actor.Email
	}
	comment, err := s.comments.Create(postID, payload.Content, author, actor.Email, nil)
	if err != nil {
		s.guard.Error(r.Context(), authz.ActionCommentCreate, actor, target, meta, err)
		writeError(w, http.StatusBadRequest, "failed to create comment")
		return
	}

	s.guard.Success(r.Context(), authz.ActionCommentCreate, actor, target, meta, map[string]interface{}{"commentId": comment.ID})
	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "comment": comment})
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	meta := requestMeta(r)
	vars := mux.Vars(r)
	postID, commentID := vars["postId"], vars["commentId"]

	post, err := s.posts.GetByID(postID)
	if err != nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	comment, err := s.comments.GetByID(postID, commentID)
	if err != nil {
		writeError(w, http.StatusNotFound, "comment not found")
		return
	}

	// Ownership facts: the comment's author and the parent post's author
	target := authz.Target{
		Type:           "comment",
		ID:             commentID,
		OwnerEmail:     comment.AuthorEmail,
		PostOwnerEmail: post.AuthorEmail,
	}

	decision := s.guard.Check(r.Context(), authz.ActionCommentDelete, actor, target, meta)
	if !decision.Allowed {
		writeDenial(w, decision)
		return
	}

	if err := s.comments.Delete(postID, commentID); err != nil {
		s.guard.Error(r.Context(), authz.ActionCommentDelete, actor, target, meta, err)
		writeError(w, http.StatusInternalServerError, "failed to delete comment")
		return
	}

	s.guard.Success(r.Context(), authz.ActionCommentDelete, actor, target, meta, map[string]interface{}{"postId": postID})
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
