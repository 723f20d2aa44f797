package web

// errors.go turns errors into responses. The technical error is logged with
// the request id; the client gets the mapped user message and support code,
// as JSON or, for HTMX requests, as an HTML alert fragment.

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/storagetracker/internal/auth"
	"github.com/JonMunkholm/storagetracker/internal/core"
	"github.com/JonMunkholm/storagetracker/internal/logging"
	"github.com/JonMunkholm/storagetracker/internal/store"
	"github.com/JonMunkholm/storagetracker/internal/web/templates"
)

var (
	errBadRequest          = errors.New("bad request")
	errNoFile              = errors.New("no file provided")
	errRateLimited         = errors.New("rate limit exceeded")
	errProviderUnavailable = errors.New("sign-in is not configured")
)

// ErrorResponse is the JSON body of every error response. Summary is set
// when an import stopped after committing rows.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Action  string              `json:"action,omitempty"`
	Code    string              `json:"code"`
	Summary *core.ImportSummary `json:"summary,omitempty"`
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr), strings.Contains(err.Error(), "request body too large"):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, auth.ErrNotAuthenticated), errors.Is(err, auth.ErrInvalidSession):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrLocationNotFound),
		errors.Is(err, core.ErrItemNotFound),
		errors.Is(err, core.ErrImportNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyImports), errors.Is(err, errProviderUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, auth.ErrInvalidState),
		errors.Is(err, core.ErrMissingColumns),
		errors.Is(err, core.ErrInvalidInput),
		errors.Is(err, core.ErrEmptyFile),
		errors.Is(err, errNoFile),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondError writes err to the client. A zero status is derived from err.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	s.writeError(w, r, err, status, nil)
}

// respondImportError is respondError for a stopped import. Rows committed
// before the stop stay in the inventory, so a summary with any progress is
// sent alongside the error.
func (s *Server) respondImportError(w http.ResponseWriter, r *http.Request, err error, summary core.ImportSummary) {
	if summary.ItemsImported == 0 && summary.LocationsCreated == 0 && summary.ErrorCount == 0 {
		s.writeError(w, r, err, 0, nil)
		return
	}
	s.writeError(w, r, err, 0, &summary)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, status int, summary *core.ImportSummary) {
	if status == 0 {
		status = statusFor(err)
	}
	msg := core.MapError(err)

	log := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	}
	if summary != nil {
		attrs = append(attrs, "items_imported", summary.ItemsImported, "locations_created", summary.LocationsCreated)
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", attrs...)
	} else {
		log.Warn("request rejected", attrs...)
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
			log.Error("render error alert", "error", err)
		}
		if summary != nil {
			if err := templates.ImportSummary(*summary).Render(r.Context(), w); err != nil {
				log.Error("render import summary", "error", err)
			}
		}
		return
	}

	writeJSON(w, r, status, ErrorResponse{Error: msg.Message, Action: msg.Action, Code: msg.Code, Summary: summary})
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// writeJSON encodes v with status. Encoding failures are logged since the
// header is already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode", "error", err)
	}
}
