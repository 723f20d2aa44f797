package web

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/storagetracker/internal/core"
	"github.com/JonMunkholm/storagetracker/internal/logging"
)

// postLoginPath is where browsers land after signing in.
const postLoginPath = "/api/me"

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      core.User `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.provider == nil {
		s.respondError(w, r, errProviderUnavailable, 0)
		return
	}
	state := s.sessions.NewState(w)
	http.Redirect(w, r, s.provider.AuthCodeURL(state), http.StatusFound)
}

// handleCallback completes sign-in. Browsers get the session cookie and a
// redirect; clients asking for JSON also get the token in the body.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if s.provider == nil {
		s.respondError(w, r, errProviderUnavailable, 0)
		return
	}
	if err := s.sessions.CheckState(w, r); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		s.respondError(w, r, fmt.Errorf("oauth exchange: provider returned %q", e), http.StatusUnauthorized)
		return
	}

	id, err := s.provider.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		s.respondError(w, r, err, http.StatusUnauthorized)
		return
	}

	user, err := s.svc.EnsureUser(r.Context(), core.User{ID: id.Subject, Email: id.Email, Name: id.Name})
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	token, exp, err := s.sessions.Issue(user.ID, user.Email, user.Name)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.sessions.SetCookie(w, token, exp)

	logging.FromContext(logging.WithUserID(r.Context(), user.ID)).Info("user signed in", "email", user.Email)

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, r, http.StatusOK, loginResponse{Token: token, ExpiresAt: exp, User: user})
		return
	}
	http.Redirect(w, r, postLoginPath, http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
