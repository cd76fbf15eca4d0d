package web

// errors.go turns handler errors into responses.
//
// Every error is logged with its technical detail and request id, then
// mapped through core.MapError so clients only see the user message, the
// suggested action and a support code. Status codes follow the code
// family when the handler does not force one.

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/tablekit/internal/core"
	"github.com/JonMunkholm/tablekit/internal/logging"
	"github.com/JonMunkholm/tablekit/internal/web/templates"
)

var errRateLimited = errors.New("rate limit exceeded")

// errBadRequest marks malformed request input.
var errBadRequest = errors.New("bad request")

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	// Fields lists per-cell problems when an edit commit is blocked.
	Fields []core.FieldError `json:"fields,omitempty"`
}

// badRequest wraps err as a user-facing bad request.
func badRequest(message string, err error) error {
	return &core.UserError{
		Technical: errors.Join(errBadRequest, err),
		User: core.UserMessage{
			Message: message,
			Action:  "Check the request and try again",
			Code:    "REQ001",
		},
	}
}

// statusFor picks the HTTP status for a mapped error.
func statusFor(err error, msg core.UserMessage) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case msg.Code == "ROW001":
		return http.StatusNotFound
	case msg.Code == "FILE001":
		return http.StatusRequestEntityTooLarge
	case msg.Code == "IMP004", msg.Code == "RATE001":
		return http.StatusTooManyRequests
	case strings.HasPrefix(msg.Code, "VAL"):
		return http.StatusUnprocessableEntity
	case strings.HasPrefix(msg.Code, "IMP"), strings.HasPrefix(msg.Code, "COL"), msg.Code == "FILE002":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped response. A zero status
// lets statusFor decide.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)
	if status == 0 {
		status = statusFor(err, msg)
	}

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	if isHTMX(r) || !wantsJSON(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_ = templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
		return
	}

	resp := ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
	var verrs core.ValidationErrors
	if errors.As(err, &verrs) {
		resp.Fields = verrs
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON reports whether the client should get a JSON error body.
// API routes always do.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}
