package web

// errors.go provides unified error response handling for the web layer.
//
// It ensures all errors are:
//   - Logged with full technical details for debugging (server-side)
//   - Returned to clients as user-friendly messages with action suggestions
//   - Formatted as JSON for the API and as an HTML page otherwise
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err), which derives the status code
//  3. Error is mapped via core.MapError to get user-friendly message
//  4. Technical error + context is logged with request ID for correlation
//  5. User message is rendered in appropriate format for the client

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/rrhh/internal/auth"
	"github.com/JonMunkholm/rrhh/internal/core"
	"github.com/JonMunkholm/rrhh/internal/grid"
	"github.com/JonMunkholm/rrhh/internal/web/templates"
)

var (
	errBadRequest    = errors.New("invalid request body")
	errUnknownAction = errors.New("unknown action")
	errUnknownPage   = errors.New("page not found")
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Action  string            `json:"action,omitempty"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// statusFor maps an error to an HTTP status code.
func statusFor(err error) int {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, errBadRequest),
		errors.Is(err, errUnknownAction),
		errors.Is(err, core.ErrInvalidID),
		errors.Is(err, grid.ErrUnknownColumn),
		errors.Is(err, grid.ErrInvalidView),
		errors.Is(err, grid.ErrInvalidMode),
		errors.Is(err, grid.ErrInvalidFormat):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidCredentials),
		errors.Is(err, core.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrNotFound),
		errors.Is(err, errUnknownPage):
		return http.StatusNotFound
	case strings.Contains(strings.ToLower(err.Error()), "duplicate key"):
		return http.StatusConflict
	case errors.Is(err, grid.ErrNothingToSend):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrRateLimited):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// respondError handles error responses with user-friendly messages.
// It logs the technical error server-side and returns a JSON body for API
// clients or an HTML error page for browsers.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	logger := reqLogger(r)
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", args...)
	} else {
		logger.Info("request rejected", args...)
	}

	if wantsJSON(r) {
		resp := ErrorResponse{
			Error:   userMsg.Message,
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
		}
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			resp.Fields = verr.FieldMessages()
		}
		writeJSONStatus(w, status, resp)
		return
	}

	s.renderErrorPage(w, r, userMsg, status)
}

// renderErrorPage writes the HTML error page.
func (s *Server) renderErrorPage(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	user := ""
	if c, ok := auth.ClaimsFromContext(r.Context()); ok {
		user = c.Correo
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ErrorPage(user, msg, status).Render(r.Context(), w); err != nil {
		reqLogger(r).Error("render error page", "error", err)
	}
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	// API routes always answer JSON
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// writeJSON encodes v as JSON with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus encodes v as JSON with the given status.
// Encoding errors are only logged since headers are already sent.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logDefault().Error("json encode error", "error", err)
	}
}
