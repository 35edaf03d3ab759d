package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/hsncheck/internal/core"
	"github.com/JonMunkholm/hsncheck/internal/logging"
)

// Sizes for the ?sample= preview on /api/reference.
const (
	defaultSampleSize = 5
	maxSampleSize     = 100
)

// referenceResponse is the reference status plus bulk limiter usage and the
// first few entries in code order.
type referenceResponse struct {
	core.ReferenceStatus
	Bulk   core.BulkLimiterStatus `json:"bulk"`
	Sample []core.ReferenceEntry  `json:"sample"`
}

// handleReferenceStatus reports what reference data is loaded.
// ?sample=N sets the preview size (0 to omit, at most 100).
func (s *Server) handleReferenceStatus(w http.ResponseWriter, r *http.Request) {
	n := defaultSampleSize
	if v := r.URL.Query().Get("sample"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			s.respondError(w, r, errors.New("invalid request: sample must be a non-negative integer"))
			return
		}
		n = min(parsed, maxSampleSize)
	}

	resp := referenceResponse{
		ReferenceStatus: s.service.Status(),
		Bulk:            s.service.BulkStatus(),
		Sample:          []core.ReferenceEntry{},
	}
	if eng, err := s.service.Engine(); err == nil {
		resp.Sample = eng.Table().Sample(n)
	}
	writeJSON(w, resp)
}

// childrenResponse describes a code and the codes one level below it.
type childrenResponse struct {
	Prefix      string                `json:"prefix"`
	Exists      bool                  `json:"exists"`
	Description string                `json:"description,omitempty"`
	Children    []core.ReferenceEntry `json:"children"`
}

// handleReferenceChildren lists the codes directly under a prefix, for
// browsing the hierarchy.
func (s *Server) handleReferenceChildren(w http.ResponseWriter, r *http.Request) {
	prefix := chi.URLParam(r, "prefix")
	if !core.IsDigits(prefix) {
		s.respondError(w, r, errors.New("invalid request: prefix must contain only digits"))
		return
	}

	eng, err := s.service.Engine()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	table := eng.Table()
	desc, found := table.Lookup(prefix)
	children := table.Children(prefix)
	if children == nil {
		children = []core.ReferenceEntry{}
	}

	writeJSON(w, childrenResponse{
		Prefix:      prefix,
		Exists:      found,
		Description: desc,
		Children:    children,
	})
}

// handleReload reloads the reference data from its source. On failure the
// previous data stays in use.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Reload(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("reference reloaded on request")
	writeJSON(w, s.service.Status())
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleReady is the readiness probe: 503 until reference data is loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	st := s.service.Status()
	if !st.Loaded {
		msg := core.MapError(core.ErrReferenceNotLoaded)
		s.logRequestError(r, core.ErrReferenceNotLoaded, msg)
		w.Header().Set("Retry-After", "5")
		respondErrorJSON(w, msg, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]any{"status": "ready", "codes": st.Codes})
}

func (s *Server) logRenderError(r *http.Request, err error) {
	logging.FromContext(r.Context()).Error("render failed", "path", r.URL.Path, "error", err)
}

func (s *Server) logRequestError(r *http.Request, err error, msg core.UserMessage) {
	logging.FromContext(r.Context()).Warn("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"error", err.Error(),
		"code", msg.Code,
	)
}
