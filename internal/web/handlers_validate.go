package web

import (
	"fmt"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/hsncheck/internal/core"
	"github.com/JonMunkholm/hsncheck/internal/extract"
	"github.com/JonMunkholm/hsncheck/internal/web/templates"
)

// resultResponse is a validation result with its human-readable summary.
type resultResponse struct {
	core.ValidationResult
	Summary string `json:"summary"`
}

func withSummaries(results []core.ValidationResult) []resultResponse {
	out := make([]resultResponse, len(results))
	for i, r := range results {
		out[i] = resultResponse{ValidationResult: r, Summary: r.Summary()}
	}
	return out
}

// handleIndex renders the home page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, "", nil)
}

// handleValidateForm validates the codes field of the home page form. A
// single code renders its full hierarchy; several render a results table.
func (s *Server) handleValidateForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)
	if err := r.ParseForm(); err != nil {
		s.renderPageError(w, r, "", fmt.Errorf("invalid request: %w", err))
		return
	}

	input := r.PostForm.Get("codes")
	codes := extract.Candidates(input)
	if len(codes) == 0 {
		s.renderPageError(w, r, input, errNoCodes)
		return
	}

	if len(codes) == 1 {
		result, err := s.service.Validate(codes[0])
		if err != nil {
			s.renderPageError(w, r, input, err)
			return
		}
		s.renderPage(w, r, http.StatusOK, input, templates.Result(result))
		return
	}

	report, err := s.service.ValidateBulk(r.Context(), codes)
	if err != nil {
		s.renderPageError(w, r, input, err)
		return
	}
	s.renderPage(w, r, http.StatusOK, input, templates.Bulk(report))
}

// renderPage writes the full page, or only body for HTMX requests.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, input string, body templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	page := body
	if !isHTMX(r) {
		page = templates.Index(s.service.Status(), input, body)
	}
	if page == nil {
		return
	}
	if err := page.Render(r.Context(), w); err != nil {
		s.logRenderError(r, err)
	}
}

// renderPageError shows err inline on the page.
func (s *Server) renderPageError(w http.ResponseWriter, r *http.Request, input string, err error) {
	msg := core.MapError(err)
	s.logRequestError(r, err, msg)
	s.renderPage(w, r, statusForCode(msg.Code), input, templates.ErrorAlert(msg.Message, msg.Action, msg.Code))
}

// handleValidateCode validates the code in the URL path.
func (s *Server) handleValidateCode(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Validate(chi.URLParam(r, "code"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, resultResponse{ValidationResult: result, Summary: result.Summary()})
}

// handleValidate validates a JSON list of codes and returns one result per
// input code, in order.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	codes, err := s.readCodes(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if limit := s.cfg.Validation.BulkMaxCodes; limit > 0 && len(codes) > limit {
		s.respondError(w, r, fmt.Errorf("%w: %d given, limit %d", core.ErrTooManyCodes, len(codes), limit))
		return
	}

	results, err := s.service.ValidateMany(r.Context(), codes)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"results": withSummaries(results)})
}

// extractResponse lists the codes found in free text and their verdicts.
type extractResponse struct {
	Codes  []string         `json:"codes"`
	Report *core.BulkReport `json:"report"`
}

// handleExtract finds codes in free text and validates each distinct one.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	text, err := s.readText(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	codes := extract.Dedupe(extract.Codes(text))
	if len(codes) == 0 {
		writeJSON(w, extractResponse{Codes: codes, Report: core.NewBulkReport([]core.ValidationResult{})})
		return
	}

	report, err := s.service.ValidateBulk(r.Context(), codes)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, extractResponse{Codes: codes, Report: report})
}
