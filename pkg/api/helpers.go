package api

import (
	"encoding/json"
	"net/http"

	"github.com/parablehq/parable/pkg/authz"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "message": message})
}

// writeDenial maps a gate decision onto the HTTP status and message the
// client sees.
func writeDenial(w http.ResponseWriter, decision authz.Decision) {
	switch decision.Reason {
	case authz.ReasonUnauthenticated:
		writeError(w, http.StatusUnauthorized, "sign-in required")
	case authz.ReasonSelfTarget:
		writeError(w, http.StatusForbidden, "you cannot target your own account")
	case authz.ReasonInsufficient:
		writeError(w, http.StatusForbidden, "insufficient permissions")
	default:
		writeError(w, http.StatusForbidden, "you do not have access to this resource")
	}
}

// requestMeta collects the request context recorded with audit entries.
func requestMeta(r *http.Request) authz.RequestMeta {
	return authz.RequestMeta{IP: clientIP(r), UserAgent: r.UserAgent()}
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

func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
