// Package middleware provides HTTP middleware for the web server.
package middleware

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/storagetracker/internal/logging"
)

// Logger logs one structured entry per request with method, path, status,
// duration, client ip and user agent. Entries carry the request id and, on
// authenticated routes, the user id.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		// The auth middleware runs further down the chain; a holder lets the
		// user id flow back up for the log entry.
		holder := &userHolder{}
		next.ServeHTTP(ww, r.WithContext(withUserHolder(r.Context(), holder)))

		ctx := r.Context()
		if holder.id != "" {
			ctx = logging.WithUserID(ctx, holder.id)
		}

		level := logging.FromContext(ctx).Info
		if ww.status >= http.StatusInternalServerError {
			level = logging.FromContext(ctx).Error
		}
		level("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"bytes", ww.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)
	})
}

// responseWriter captures the status code and body size.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
