package session

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/parablehq/parable/pkg/audit"
	"github.com/parablehq/parable/pkg/observability"
	"github.com/parablehq/parable/pkg/users"
)

// Exchanger is the part of Provider the handlers need; split out so tests
// can stub the Google round-trip.
type Exchanger interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Claims, error)
}

// Handlers serves the sign-in endpoints: /auth/login, /auth/callback,
// /auth/logout.
type Handlers struct {
	provider Exchanger
	store    *Store
	users    *users.Manager
	auditLog audit.Logger
	logger   *observability.Logger
}

// NewHandlers wires the sign-in endpoints.
func NewHandlers(provider Exchanger, store *Store, userManager *users.Manager, auditLog audit.Logger, logger *observability.Logger) *Handlers {
	if auditLog == nil {
		auditLog = audit.NopLogger{}
	}
	return &Handlers{provider: provider, store: store, users: userManager, auditLog: auditLog, logger: logger}
}

// Login starts the OAuth flow.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	if err := h.store.SetState(w, r, state); err != nil {
		h.logger.WithError(err).Error("failed to persist oauth state")
		http.Error(w, "failed to start sign-in", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
}

// Callback completes the OAuth flow: verifies state, exchanges the code,
// upserts the user record, and establishes the session.
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state := h.store.ConsumeState(w, r)
	if state == "" || state != r.URL.Query().Get("state") {
		h.recordLogin(ctx, r, nil, audit.OutcomeDenied, "state mismatch")
		http.Error(w, "invalid sign-in state", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.recordLogin(ctx, r, nil, audit.OutcomeDenied, "missing authorization code")
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	claims, err := h.provider.Exchange(ctx, code)
	if err != nil {
		h.logger.WithError(err).Warn("sign-in exchange failed")
		h.recordLogin(ctx, r, nil, audit.OutcomeError, err.Error())
		http.Error(w, "sign-in failed", http.StatusUnauthorized)
		return
	}

	// Create-or-refresh the user record; the stored role is preserved on
	// refresh, so this cannot promote or demote anyone.
	var name, avatar *string
	if claims.Name != "" {
		name = &claims.Name
	}
	if claims.AvatarURL != "" {
		avatar = &claims.AvatarURL
	}
	if _, err := h.users.UpsertOnLogin(claims.Email, name, avatar); err != nil {
		h.logger.WithError(err).WithField("email", claims.Email).Error("failed to persist user on login")
		h.recordLogin(ctx, r, claims, audit.OutcomeError, err.Error())
		http.Error(w, "sign-in failed", http.StatusInternalServerError)
		return
	}

	if err := h.store.Save(w, r, claims); err != nil {
		h.logger.WithError(err).Error("failed to save session")
		h.recordLogin(ctx, r, claims, audit.OutcomeError, err.Error())
		http.Error(w, "sign-in failed", http.StatusInternalServerError)
		return
	}

	observability.RecordLogin("success")
	h.recordLogin(ctx, r, claims, audit.OutcomeSuccess, "")
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout clears the session.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	claims := h.store.Claims(r)
	if err := h.store.Clear(w, r); err != nil {
		h.logger.WithError(err).Warn("failed to clear session")
	}

	entry := audit.NewEntry(audit.ActionLogout, audit.OutcomeSuccess)
	if claims != nil {
		entry.Actor = &audit.Actor{Email: claims.Email, Name: claims.Name}
	}
	entry.IP = clientIP(r)
	entry.UserAgent = r.UserAgent()
	_ = h.auditLog.Record(r.Context(), entry)

	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handlers) recordLogin(ctx context.Context, r *http.Request, claims *Claims, outcome audit.Outcome, errMsg string) {
	if outcome != audit.OutcomeSuccess {
		observability.RecordLogin("failure")
	}

	entry := audit.NewEntry(audit.ActionLogin, outcome)
	if claims != nil {
		entry.Actor = &audit.Actor{Email: claims.Email, Name: claims.Name}
	}
	entry.IP = clientIP(r)
	entry.UserAgent = r.UserAgent()
	entry.Error = errMsg
	_ = h.auditLog.Record(ctx, entry)
}

// clientIP extracts the client address, honoring proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
