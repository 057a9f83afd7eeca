package attendance

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rahadianw/dealer-crm/internal/session"
	"github.com/rahadianw/dealer-crm/internal/transport"
	"github.com/rahadianw/dealer-crm/pkg/logger"
)

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

func (h *Handler) PunchIn(w http.ResponseWriter, r *http.Request) {
	user, ok := session.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto PunchInDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	log, err := h.Service.PunchIn(r.Context(), user.Username, user.SalesPersonName, dto)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyPunchedIn):
			h.WriteError(w, http.StatusConflict, "already punched in today")
		default:
			if _, ok := err.(ValidationError); ok {
				h.WriteError(w, http.StatusBadRequest, err.Error())
			} else {
				h.Logger.Error("punch-in failed", "error", err, "user_name", user.Username)
				h.WriteError(w, http.StatusInternalServerError, "failed to record punch-in")
			}
		}
		return
	}

	h.WriteJSON(w, http.StatusCreated, log)
}

func (h *Handler) PunchOut(w http.ResponseWriter, r *http.Request) {
	user, ok := session.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	log, err := h.Service.PunchOut(r.Context(), user.Username)
	if err != nil {
		if errors.Is(err, ErrNotPunchedIn) {
			h.WriteError(w, http.StatusConflict, "no open punch today")
			return
		}
		h.Logger.Error("punch-out failed", "error", err, "user_name", user.Username)
		h.WriteError(w, http.StatusInternalServerError, "failed to record punch-out")
		return
	}

	h.WriteJSON(w, http.StatusOK, log)
}

// List returns attendance rows. Non-admins only ever see their own.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := session.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	filter := ListFilterDTO{
		Username: r.URL.Query().Get("user_name"),
		FromDay:  r.URL.Query().Get("from_date"),
		ToDay:    r.URL.Query().Get("to_date"),
		Limit:    20,
	}
	if !user.IsAdmin() {
		filter.Username = user.Username
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

	logs, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.Logger.Error("attendance listing failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to list attendance")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"logs":   logs,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}
