package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/JonMunkholm/hsncheck/internal/core"
	"github.com/JonMunkholm/hsncheck/internal/export"
	"github.com/JonMunkholm/hsncheck/internal/logging"
	"github.com/JonMunkholm/hsncheck/internal/web/templates"
)

// handleBulk validates an uploaded file or pasted list and returns the
// BulkReport, or a results table for HTMX requests.
func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	s.runBulk(w, r, func(report *core.BulkReport) {
		if isHTMX(r) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			if err := templates.Bulk(report).Render(r.Context(), w); err != nil {
				s.logRenderError(r, err)
			}
			return
		}
		writeJSON(w, report)
	})
}

// handleExport is handleBulk with the results returned as a download.
// ?format=csv|json|xlsx selects the file type (default csv).
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("invalid request: %w", err))
		return
	}

	s.runBulk(w, r, func(report *core.BulkReport) {
		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": format.Filename()}))
		w.Header().Set("X-Bulk-ID", report.ID)
		if err := export.Write(w, format, report); err != nil {
			// Headers are already sent.
			logging.WithFields(r.Context(), "bulk_id", report.ID).Error("export write failed", "error", err)
		}
	})
}

// runBulk reads and validates the request's codes and hands the report to
// write while the bulk slot is held. Errors before write are answered here.
func (s *Server) runBulk(w http.ResponseWriter, r *http.Request, write func(*core.BulkReport)) {
	codes, err := s.readCodes(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	err = s.service.ValidateBulkFunc(r.Context(), codes, func(report *core.BulkReport) error {
		logging.WithFields(r.Context(), "bulk_id", report.ID).Info("bulk validation completed",
			"total", report.Total,
			"valid", report.Valid,
			"invalid", report.Invalid,
			"duration_ms", report.Duration.Milliseconds(),
		)
		write(report)
		return nil
	})
	if err != nil {
		s.respondError(w, r, err)
	}
}

// readText returns the "text" of a JSON body, the "text" form field, or the
// raw body.
func (s *Server) readText(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var req codesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", fmt.Errorf("invalid request: %w", err)
		}
		return req.Text, nil
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return "", fmt.Errorf("invalid request: %w", err)
		}
		return r.FormValue("text"), nil
	default:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return "", fmt.Errorf("invalid request: %w", err)
		}
		return string(body), nil
	}
}
