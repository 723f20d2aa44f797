package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSessions_IssueAndParse(t *testing.T) {
	s := NewSessions("test-secret", time.Hour, true)

	token, exp, err := s.Issue("user-1", "a@example.com", "Alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Errorf("expiry %v is not in the future", exp)
	}

	claims, err := s.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID() != "user-1" || claims.Email != "a@example.com" || claims.Name != "Alice" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestSessions_ParseRejects(t *testing.T) {
	s := NewSessions("test-secret", time.Hour, true)
	good, _, _ := s.Issue("user-1", "", "")

	expired := NewSessions("test-secret", time.Hour, true)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, _ := expired.Issue("user-1", "", "")

	forged, _, _ := NewSessions("other-secret", time.Hour, true).Issue("user-1", "", "")

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}).SignedString([]byte("test-secret"))

	noSub, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("test-secret"))

	tests := []struct {
		name  string
		token string
	}{
		{name: "expired", token: old},
		{name: "wrong secret", token: forged},
		{name: "alg none", token: none},
		{name: "no expiry", token: noExp},
		{name: "no subject", token: noSub},
		{name: "garbage", token: "not-a-token"},
		{name: "truncated", token: good[:len(good)-4]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Parse(tt.token); !errors.Is(err, ErrInvalidSession) {
				t.Errorf("err = %v, want ErrInvalidSession", err)
			}
		})
	}
}

func TestSessions_FromRequest(t *testing.T) {
	s := NewSessions("test-secret", time.Hour, true)
	token, _, _ := s.Issue("user-1", "", "")

	tests := []struct {
		name    string
		setup   func(r *http.Request)
		wantErr error
	}{
		{
			name:  "cookie",
			setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token}) },
		},
		{
			name:  "bearer",
			setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
		},
		{
			name: "bearer wins over cookie",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "stale"})
				r.Header.Set("Authorization", "bearer "+token)
			},
		},
		{
			name:    "nothing",
			setup:   func(*http.Request) {},
			wantErr: ErrNotAuthenticated,
		},
		{
			name:    "basic auth",
			setup:   func(r *http.Request) { r.SetBasicAuth("u", "p") },
			wantErr: ErrInvalidSession,
		},
		{
			name:    "bad cookie",
			setup:   func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "junk"}) },
			wantErr: ErrInvalidSession,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			tt.setup(r)

			claims, err := s.FromRequest(r)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if claims.UserID() != "user-1" {
				t.Errorf("UserID = %s", claims.UserID())
			}
		})
	}
}

func TestSessions_Cookies(t *testing.T) {
	s := NewSessions("test-secret", time.Hour, true)

	rec := httptest.NewRecorder()
	s.SetCookie(rec, "tok", time.Now().Add(time.Hour))
	c := rec.Result().Cookies()[0]
	if c.Name != SessionCookie || c.Value != "tok" || !c.HttpOnly || !c.Secure {
		t.Errorf("session cookie = %+v", c)
	}

	rec = httptest.NewRecorder()
	s.ClearCookie(rec)
	if c := rec.Result().Cookies()[0]; c.MaxAge >= 0 {
		t.Errorf("cleared cookie MaxAge = %d, want negative", c.MaxAge)
	}
}

func TestSessions_State(t *testing.T) {
	s := NewSessions("test-secret", time.Hour, false)

	rec := httptest.NewRecorder()
	state := s.NewState(rec)
	cookie := rec.Result().Cookies()[0]

	tests := []struct {
		name    string
		query   string
		cookie  *http.Cookie
		wantErr bool
	}{
		{name: "match", query: state, cookie: cookie},
		{name: "mismatch", query: "other", cookie: cookie, wantErr: true},
		{name: "no cookie", query: state, wantErr: true},
		{name: "no query", cookie: cookie, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/auth/callback?state="+tt.query, nil)
			if tt.cookie != nil {
				r.AddCookie(tt.cookie)
			}
			w := httptest.NewRecorder()

			err := s.CheckState(w, r)
			if tt.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidState) {
				t.Errorf("err = %v, want ErrInvalidState", err)
			}
			if !strings.Contains(w.Header().Get("Set-Cookie"), StateCookie+"=") {
				t.Error("state cookie not cleared")
			}
		})
	}
}
