package web

// errors.go provides unified error responses for the web layer.
//
// The technical error is logged with the request ID, and the client gets the
// coded message from core.MapError. The HTTP status is derived from the code.

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/JonMunkholm/pdf2ynab/internal/core"
	"github.com/JonMunkholm/pdf2ynab/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusByCode maps error codes to HTTP status. Unlisted codes are 500.
var statusByCode = map[string]int{
	"FMT001":  http.StatusNotFound,
	"SCH001":  http.StatusUnprocessableEntity,
	"SCH002":  http.StatusUnprocessableEntity,
	"DATE001": http.StatusUnprocessableEntity,
	"FILE001": http.StatusRequestEntityTooLarge,
	"FILE002": http.StatusBadRequest,
	"FILE003": http.StatusBadRequest,
	"FILE004": http.StatusBadRequest,
	"FILE005": http.StatusBadRequest,
	"FILE006": http.StatusUnsupportedMediaType,
	"FILE007": http.StatusUnprocessableEntity,
	"FILE008": http.StatusBadRequest,
	"OUT001":  http.StatusBadRequest,
	"CONV001": http.StatusServiceUnavailable,
	"AUTH001": http.StatusUnauthorized,
	"AUTH002": http.StatusForbidden,
	"UPL004":  http.StatusBadRequest,
	"UPL005":  http.StatusGatewayTimeout,
}

// statusFor returns the HTTP status for err.
func statusFor(err error) int {
	if status, ok := statusByCode[core.MapError(err).Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the user-facing message with the status
// derived from its code.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := core.MapError(err)
	status := statusFor(err)

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request error", args...)
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	if wantsJSON(r) {
		respondErrorJSON(w, msg, status)
		return
	}
	http.Error(w, msg.Message+" ("+msg.Code+")", status)
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// wantsJSON checks if the client prefers a JSON response.
// API routes default to JSON.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
