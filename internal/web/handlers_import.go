package web

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/storagetracker/internal/core"
	"github.com/JonMunkholm/storagetracker/internal/logging"
	"github.com/JonMunkholm/storagetracker/internal/web/templates"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file.
const multipartMemory = 8 << 20

type importResponse struct {
	core.ImportSummary
	Message string `json:"message"`
}

// handleImport imports the spreadsheet in the multipart field "file".
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %w", errBadRequest, err), 0)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errNoFile, 0)
		return
	}
	defer file.Close()

	src, err := core.OpenSource(header.Filename, file, header.Size)
	if err != nil {
		if !errors.Is(err, core.ErrEmptyFile) {
			err = fmt.Errorf("%w: %w", errBadRequest, err)
		}
		s.respondError(w, r, err, 0)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Upload.Timeout)
	defer cancel()
	ctx = core.ContextWithClient(ctx, clientIP(r), r.UserAgent())

	summary, err := s.inventory(r).Import(ctx, header.Filename, src)
	if err != nil {
		s.respondImportError(w, r, err, summary)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.ImportSummary(summary).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render import summary", "error", err)
		}
		return
	}
	writeJSON(w, r, http.StatusOK, importResponse{ImportSummary: summary, Message: summary.Message()})
}

// handleImportTemplate serves an empty CSV with every recognized column.
func (s *Server) handleImportTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="storage_import_template.csv"`)

	cw := csv.NewWriter(w)
	if err := cw.Write(core.TemplateHeader()); err != nil {
		logging.FromContext(r.Context()).Error("write template", "error", err)
		return
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		logging.FromContext(r.Context()).Error("write template", "error", err)
	}
}

// handleImportHistory lists the caller's recent import runs. The optional
// "limit" query parameter caps the result.
func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, r, fmt.Errorf("%w: limit must be a non-negative integer", errBadRequest), 0)
			return
		}
		limit = n
	}

	history, err := s.inventory(r).ImportHistory(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, r, http.StatusOK, history)
}

func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	rec, err := s.inventory(r).GetImport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}

// clientIP strips the port from the remote address when there is one.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
