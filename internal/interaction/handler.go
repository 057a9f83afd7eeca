package interaction

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
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

// GetVisibility returns the derived form contract for an
// (entity_type, stage) pair. The form recomputes it on every change.
func (h *Handler) GetVisibility(w http.ResponseWriter, r *http.Request) {
	entityType := r.URL.Query().Get("entity_type")
	stage := r.URL.Query().Get("stage")

	contract, err := h.Service.Visibility(entityType, stage)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidEntityType):
			h.WriteError(w, http.StatusBadRequest, "unknown entity type")
		case errors.Is(err, ErrInvalidStage):
			h.WriteError(w, http.StatusBadRequest, "stage not in entity vocabulary")
		default:
			h.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, contract)
}

func (h *Handler) GetStages(w http.ResponseWriter, r *http.Request) {
	entityType := r.URL.Query().Get("entity_type")
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entity_type": entityType,
		"stages":      h.Service.Stages(entityType),
	})
}

func (h *Handler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	user, ok := session.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto RecordInteractionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.Service.RecordInteraction(r.Context(), dto, user.SalesPersonName)
	if err != nil {
		var validationErr ValidationError
		var partialErr *PartialPersistenceError
		switch {
		case errors.As(err, &validationErr):
			h.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
				"message": "validation failed",
				"fields":  validationErr.Fields,
			})
		case errors.Is(err, ErrInvalidStage), errors.Is(err, ErrInvalidEntityType):
			h.WriteError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &partialErr):
			// History row exists; tell the caller the summary view lags.
			h.WriteJSON(w, http.StatusMultiStatus, map[string]interface{}{
				"record":  record,
				"warning": "interaction recorded but dealer summary update failed; latest-status view may be stale until retried",
			})
		default:
			h.Logger.Error("RecordInteraction: service error", "error", err, "dealer_code", dto.DealerCode)
			h.WriteError(w, http.StatusInternalServerError, "failed to record interaction")
		}
		return
	}

	h.WriteJSON(w, http.StatusCreated, record)
}

func (h *Handler) GetDealerHistory(w http.ResponseWriter, r *http.Request) {
	dealerCode := chi.URLParam(r, "code")
	if dealerCode == "" {
		h.WriteError(w, http.StatusBadRequest, "dealer code is required")
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

	records, err := h.Service.HistoryForDealer(r.Context(), dealerCode, limit, offset)
	if err != nil {
		h.Logger.Error("GetDealerHistory: service error", "error", err, "dealer_code", dealerCode)
		h.WriteError(w, http.StatusInternalServerError, "failed to get interaction history")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"history": records,
		"limit":   limit,
		"offset":  offset,
	})
}

func (h *Handler) GetDealerSummary(w http.ResponseWriter, r *http.Request) {
	dealerCode := chi.URLParam(r, "code")
	if dealerCode == "" {
		h.WriteError(w, http.StatusBadRequest, "dealer code is required")
		return
	}

	summary, err := h.Service.SummaryForDealer(r.Context(), dealerCode)
	if err != nil {
		if errors.Is(err, ErrSummaryNotFound) {
			h.WriteError(w, http.StatusNotFound, "no summary for dealer")
			return
		}
		h.Logger.Error("GetDealerSummary: service error", "error", err, "dealer_code", dealerCode)
		h.WriteError(w, http.StatusInternalServerError, "failed to get dealer summary")
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}
