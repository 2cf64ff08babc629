package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/parablehq/parable/pkg/audit"
	"github.com/parablehq/parable/pkg/authz"
	"github.com/parablehq/parable/pkg/middleware"
	"github.com/parablehq/parable/pkg/roles"
	"github.com/parablehq/parable/pkg/users"
)

// requireAdmin gates the read-only admin endpoints. Mutations go through
// the guard instead so they land in the audit trail.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) *authz.Actor {
	actor := middleware.GetActor(r)
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "sign-in required")
		return nil
	}
	if !actor.Permissions.CanDelete {
		writeError(w, http.StatusForbidden, "admin access required")
		return nil
	}
	return actor
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r) == nil {
		return
	}

	list, err := s.users.List()
	if err != nil {
		s.logger.WithError(err).Error("failed to list users")
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	resp := map[string]interface{}{"success": true, "users": list}
	if r.URL.Query().Get("stats") == "true" {
		stats, err := s.users.Stats()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to compute stats")
			return
		}
		resp["stats"] = stats
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	meta := requestMeta(r)

	var payload struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := decodeBody(r, &payload); err != nil || payload.Email == "" || payload.Role == "" {
		writeError(w, http.StatusBadRequest, "email and role are required")
		return
	}

	newRole, err := roles.Parse(payload.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}

	target := authz.Target{Type: "user", ID: payload.Email, OwnerEmail: payload.Email}
	decision := s.guard.Check(r.Context(), authz.ActionRoleUpdate, actor, target, meta)
	if !decision.Allowed {
		writeDenial(w, decision)
		return
	}

	if err := s.users.UpdateRole(payload.Email, newRole); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			s.guard.Error(r.Context(), authz.ActionRoleUpdate, actor, target, meta, err)
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		s.guard.Error(r.Context(), authz.ActionRoleUpdate, actor, target, meta, err)
		writeError(w, http.StatusInternalServerError, "failed to update role")
		return
	}

	s.guard.Success(r.Context(), authz.ActionRoleUpdate, actor, target, meta, map[string]interface{}{"role": string(newRole)})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "role updated; the change applies on the user's next sign-in",
	})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	meta := requestMeta(r)

	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	target := authz.Target{Type: "user", ID: email, OwnerEmail: email}
	decision := s.guard.Check(r.Context(), authz.ActionUserDelete, actor, target, meta)
	if !decision.Allowed {
		writeDenial(w, decision)
		return
	}

	if err := s.users.Delete(email); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			s.guard.Error(r.Context(), authz.ActionUserDelete, actor, target, meta, err)
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		s.guard.Error(r.Context(), authz.ActionUserDelete, actor, target, meta, err)
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	s.guard.Success(r.Context(), authz.ActionUserDelete, actor, target, meta, nil)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) handleSearchLogs(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r) == nil {
		return
	}
	if s.auditLog == nil {
		writeError(w, http.StatusNotImplemented, "audit log search is not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.SearchFilter{
		Action:     audit.Action(q.Get("action")),
		Outcome:    audit.Outcome(q.Get("outcome")),
		ActorEmail: q.Get("actor"),
		TargetType: q.Get("targetType"),
		TargetID:   q.Get("targetId"),
		Limit:      100,
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 && limit <= 1000 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}

	entries, err := s.auditLog.Search(r.Context(), filter)
	if err != nil {
		s.logger.WithError(err).Error("audit search failed")
		writeError(w, http.StatusInternalServerError, "failed to search audit log")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "entries": entries})
}
