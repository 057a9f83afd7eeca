package dealer

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	apperrors "github.com/rahadianw/dealer-crm/internal"
	"github.com/rahadianw/dealer-crm/internal/session"
	"github.com/rahadianw/dealer-crm/internal/transport"
	"github.com/rahadianw/dealer-crm/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.L()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	user, ok := session.UserFromContext(r.Context())
	if !ok {
		h.HandleError(w, apperrors.NewUnauthorizedError("authentication required", apperrors.ErrCodeInvalidToken))
		return
	}

	var dto RegisterDealerDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid request body", apperrors.ErrCodeValidationFailed))
		return
	}

	if err := dto.Validate(); err != nil {
		h.HandleError(w, apperrors.NewValidationError(err.Error(), apperrors.ErrCodeValidationFailed))
		return
	}

	d, err := h.Service.Register(r.Context(), dto, user.SalesPersonName)
	if err != nil {
		if errors.Is(err, ErrDealerExists) {
			h.HandleError(w, apperrors.NewConflictError("dealer code already registered", apperrors.ErrCodeDealerExists))
			return
		}
		h.Logger.Error("Register: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, d)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	d, err := h.Service.GetByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, ErrDealerNotFound) {
			h.HandleError(w, apperrors.NewNotFoundError("dealer not found", apperrors.ErrCodeDealerNotFound))
			return
		}
		h.Logger.Error("Get: service error", "error", err, "dealer_code", code)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, d)
}

// List scopes the result to the caller's own dealers unless the caller is
// an admin.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := session.UserFromContext(r.Context())
	if !ok {
		h.HandleError(w, apperrors.NewUnauthorizedError("authentication required", apperrors.ErrCodeInvalidToken))
		return
	}

	limit := 50
	offset := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	var (
		dealers []*Dealer
		err     error
	)
	if user.IsAdmin() {
		dealers, err = h.Service.ListAll(r.Context(), limit, offset)
	} else {
		dealers, err = h.Service.ListBySalesPerson(r.Context(), user.SalesPersonName, limit, offset)
	}
	if err != nil {
		h.Logger.Error("List: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"dealers": dealers,
		"limit":   limit,
		"offset":  offset,
	})
}
