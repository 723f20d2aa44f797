package middleware

import (
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/storagetracker/internal/logging"
)

// Authenticator resolves the user behind a request.
type Authenticator func(r *http.Request) (userID string, err error)

// RequireUser rejects requests that authenticate returns an error for and
// passes the rest on with the user id stored via logging.WithUserID.
// Rejections are handed to fail so the caller controls the response format.
func RequireUser(authenticate Authenticator, fail func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := authenticate(r)
			if err != nil {
				logging.FromContext(r.Context()).Warn("auth: request rejected",
					slog.String("path", r.URL.Path),
					slog.String("method", r.Method),
					slog.String("remote_addr", r.RemoteAddr),
					slog.String("error", err.Error()),
				)
				fail(w, r, err)
				return
			}

			noteUser(r.Context(), userID)
			ctx := logging.WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
