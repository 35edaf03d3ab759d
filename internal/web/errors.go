package web

// errors.go turns errors into responses.
//
// The technical error is logged with the request ID; the client gets the
// core.MapError message and code, as JSON for API and JSON requests, as an
// HTML fragment for HTMX requests, and as plain text otherwise. The HTTP
// status follows from the error code, so handlers never pick one.

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/JonMunkholm/hsncheck/internal/core"
	"github.com/JonMunkholm/hsncheck/internal/logging"
	"github.com/JonMunkholm/hsncheck/internal/web/templates"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusByCode maps error codes to HTTP statuses. Codes not listed fall back
// by prefix in statusForCode.
var statusByCode = map[string]int{
	"REF001":  http.StatusServiceUnavailable,
	"REF004":  http.StatusNotImplemented,
	"BLK001":  http.StatusServiceUnavailable,
	"REQ002":  http.StatusRequestEntityTooLarge,
	"FILE001": http.StatusRequestEntityTooLarge,
	"RATE001": http.StatusTooManyRequests,
}

// statusForCode returns the HTTP status for a core.UserMessage code.
func statusForCode(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	switch {
	case strings.HasPrefix(code, "FILE"), strings.HasPrefix(code, "MAP"), strings.HasPrefix(code, "REQ"):
		return http.StatusBadRequest
	case strings.HasPrefix(code, "SRC"), strings.HasPrefix(code, "REF"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the user-facing message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	ue := core.NewUserError(err)
	userMsg := ue.User
	status := statusForCode(userMsg.Code)

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", ue.Technical.Error(),
		"code", userMsg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request error", args...)
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}

	switch {
	case isHTMX(r):
		renderErrorPartial(w, r, userMsg, status)
	case wantsJSON(r):
		respondErrorJSON(w, userMsg, status)
	default:
		http.Error(w, userMsg.Message+" ("+userMsg.Code+")", status)
	}
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON reports whether the client should get JSON.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
