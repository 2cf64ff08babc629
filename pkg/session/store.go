package session

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const (
	sessionName = "parable_session"

	keyEmail  = "email"
	keyName   = "name"
	keyAvatar = "avatar"
	keyState  = "oauth_state"
)

// Store wraps the signed session cookie holding the user's claims.
type Store struct {
	cookies *sessions.CookieStore
}

// NewStore creates a cookie store signed with secret.
func NewStore(secret string, maxAge time.Duration, secure bool) *Store {
	cookies := sessions.NewCookieStore([]byte(secret))
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Store{cookies: cookies}
}

// Claims returns the signed-in identity, or nil when there is no session.
func (s *Store) Claims(r *http.Request) *Claims {
	session, err := s.cookies.Get(r, sessionName)
	if err != nil {
		// An undecodable cookie is treated as no session
		return nil
	}

	email, _ := session.Values[keyEmail].(string)
	if email == "" {
		return nil
	}

	name, _ := session.Values[keyName].(string)
	avatar, _ := session.Values[keyAvatar].(string)
	return &Claims{Email: email, Name: name, AvatarURL: avatar}
}

// Save writes the claims into the session cookie.
func (s *Store) Save(w http.ResponseWriter, r *http.Request, claims *Claims) error {
	session, _ := s.cookies.Get(r, sessionName)
	session.Values[keyEmail] = claims.Email
	session.Values[keyName] = claims.Name
	session.Values[keyAvatar] = claims.AvatarURL
	delete(session.Values, keyState)
	return session.Save(r, w)
}

// Clear drops the session.
func (s *Store) Clear(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.cookies.Get(r, sessionName)
	session.Options.MaxAge = -1
	session.Values = make(map[interface{}]interface{})
	return session.Save(r, w)
}

// SetState stashes the OAuth state nonce for the callback to verify.
func (s *Store) SetState(w http.ResponseWriter, r *http.Request, state string) error {
	session, _ := s.cookies.Get(r, sessionName)
	session.Values[keyState] = state
	return session.Save(r, w)
}

// ConsumeState returns and clears the stashed OAuth state nonce.
func (s *Store) ConsumeState(w http.ResponseWriter, r *http.Request) string {
	session, err := s.cookies.Get(r, sessionName)
	if err != nil {
		return ""
	}
	state, _ := session.Values[keyState].(string)
	delete(session.Values, keyState)
	_ = session.Save(r, w)
	return state
}
