package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rahadianw/dealer-crm/internal/transport"
	"github.com/rahadianw/dealer-crm/pkg/logger"
)

type ctxKey string

const ContextUserKey ctxKey = "session_user"

func UserFromContext(ctx context.Context) (SessionUser, bool) {
	u, ok := ctx.Value(ContextUserKey).(SessionUser)
	return u, ok
}

func ContextWithUser(ctx context.Context, user SessionUser) context.Context {
	return context.WithValue(ctx, ContextUserKey, user)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.L()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// loginResponse mirrors the {success, accessDenied} shape of the session
// manager contract so the caller can offer the access-request flow only
// when appropriate.
type loginResponse struct {
	Success      bool         `json:"success"`
	AccessDenied bool         `json:"access_denied"`
	Token        string       `json:"token,omitempty"`
	User         *SessionUser `json:"user,omitempty"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			h.WriteJSON(w, http.StatusUnauthorized, loginResponse{Success: false, AccessDenied: false})
		case errors.Is(err, ErrAccessDenied):
			h.WriteJSON(w, http.StatusForbidden, loginResponse{Success: false, AccessDenied: true})
		default:
			if _, ok := err.(ValidationError); ok {
				h.WriteError(w, http.StatusBadRequest, err.Error())
			} else {
				h.Logger.Error("login failed", "error", err)
				h.WriteError(w, http.StatusInternalServerError, "internal server error")
			}
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, loginResponse{
		Success: true,
		Token:   result.Token,
		User:    &result.User,
	})
}

func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	var dto RestoreDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.Service.Restore(r.Context(), dto.Token)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionExpired):
			h.WriteError(w, http.StatusUnauthorized, "session expired")
		case errors.Is(err, ErrInvalidToken):
			h.WriteError(w, http.StatusUnauthorized, "invalid session token")
		default:
			h.Logger.Error("session restore failed", "error", err)
			h.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, loginResponse{
		Success: true,
		Token:   result.Token,
		User:    &result.User,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.Service.Logout(r.Context(), user.Username); err != nil {
		h.Logger.Error("logout failed", "error", err, "user_name", user.Username)
		h.WriteError(w, http.StatusInternalServerError, "failed to record logout")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RequestAccess is reachable without a session: the caller is by definition
// blocked from logging in.
func (h *Handler) RequestAccess(w http.ResponseWriter, r *http.Request) {
	var dto AccessRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.RequestAccess(r.Context(), dto.Username); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			h.WriteError(w, http.StatusNotFound, "no session record for today")
			return
		}
		h.Logger.Error("access request failed", "error", err, "user_name", dto.Username)
		h.WriteError(w, http.StatusInternalServerError, "failed to record access request")
		return
	}

	h.WriteJSON(w, http.StatusAccepted, map[string]bool{"requested": true})
}

func (h *Handler) GrantAccess(w http.ResponseWriter, r *http.Request) {
	admin, ok := UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto AccessDecisionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.GrantAccess(r.Context(), dto.Username, admin.Username); err != nil {
		if errors.Is(err, ErrNoPendingRequest) {
			h.WriteError(w, http.StatusConflict, "no pending access request")
			return
		}
		h.Logger.Error("access grant failed", "error", err, "user_name", dto.Username)
		h.WriteError(w, http.StatusInternalServerError, "failed to grant access")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]bool{"granted": true})
}

func (h *Handler) RejectAccess(w http.ResponseWriter, r *http.Request) {
	var dto AccessDecisionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.RejectAccess(r.Context(), dto.Username); err != nil {
		if errors.Is(err, ErrNoPendingRequest) {
			h.WriteError(w, http.StatusConflict, "no pending access request")
			return
		}
		h.Logger.Error("access reject failed", "error", err, "user_name", dto.Username)
		h.WriteError(w, http.StatusInternalServerError, "failed to reject access")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]bool{"rejected": true})
}

func (h *Handler) ListSessionLogs(w http.ResponseWriter, r *http.Request) {
	filter := LogFilterDTO{
		Username: r.URL.Query().Get("user_name"),
		FromDate: r.URL.Query().Get("from_date"),
		ToDate:   r.URL.Query().Get("to_date"),
		Limit:    20,
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 200 {
			filter.Limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filter.Offset = o
		}
	}

	records, err := h.Service.ListSessionLogs(r.Context(), filter)
	if err != nil {
		h.Logger.Error("session log listing failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to list session logs")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"logs":   records,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// AuthMiddleware validates the session token and loads the account's current
// tab configuration into the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		claims, err := h.Service.ValidateSessionToken(token)
		if err != nil {
			h.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := ContextWithUser(r.Context(), claims.User())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin gates the admin-only surface (access grant/reject, log review).
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			h.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !user.IsAdmin() {
			h.Logger.Warn("admin surface denied", "user_name", user.Username, "role", user.Role)
			h.WriteError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
