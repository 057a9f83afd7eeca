package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/rahadianw/dealer-crm/internal"
	"github.com/rahadianw/dealer-crm/pkg/logger"
)

// BaseHandler carries the pieces every HTTP handler in the CRM needs:
// a structured logger and JSON response helpers.
type BaseHandler struct {
	Logger *slog.Logger
}

func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.L()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes a {code, message} error body.
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	if status >= http.StatusInternalServerError {
		h.Logger.Error("http error", "status", status, "message", message)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"code":    status,
		"message": message,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.Logger.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes an AppError as a {"error": {...}} body using the
// status code carried on the error.
func (h *BaseHandler) HandleError(w http.ResponseWriter, appErr *apperrors.AppError) {
	if appErr.StatusCode >= http.StatusInternalServerError {
		h.Logger.Error("http error", "type", appErr.Type, "code", appErr.Code, "error", appErr.Error())
	}
	status, body := appErr.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// HandleServiceError maps a service layer error onto an HTTP response.
// AppErrors pass through with their own status; anything else becomes
// an opaque 500.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		h.HandleError(w, appErr)
		return
	}
	h.HandleError(w, apperrors.NewInternalError("internal server error", err))
}

// ExtractTokenFromHeader pulls the bearer token out of the Authorization
// header, or returns "" when the header is missing or malformed.
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Bearer ")
}
