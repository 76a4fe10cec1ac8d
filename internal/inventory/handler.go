package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
)

// Handler wires warehouse endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the inventory HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/low-stock", h.lowStock)
	r.Get("/disposals", h.listDisposals)
	r.Post("/disposals", h.recordDisposal)
	r.Get("/reorders", h.listReorders)
	r.Post("/reorders", h.raiseReorder)
	r.Post("/receive", h.receiveStock)
}

type disposalPayload struct {
	MaterialType string  `json:"materialType" validate:"required,max=128"`
	Quantity     float64 `json:"quantity" validate:"required,gt=0"`
	Reason       string  `json:"reason" validate:"required,oneof=DAMAGED EXPIRED OBSOLETE"`
	Note         string  `json:"note" validate:"max=500"`
}

type movementPayload struct {
	MaterialType string  `json:"materialType" validate:"required,max=128"`
	Quantity     float64 `json:"quantity" validate:"required,gt=0"`
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.LowStock(r.Context())
	if err != nil {
		h.respondError(w, "list low stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) listDisposals(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListDisposals(r.Context(), sinceParam(r))
	if err != nil {
		h.respondError(w, "list disposals", err)
		return
	}
	if records == nil {
		records = []DisposalRecord{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"disposals": records})
}

func (h *Handler) recordDisposal(w http.ResponseWriter, r *http.Request) {
	var payload disposalPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	record, err := h.service.RecordDisposal(r.Context(), DisposalInput{
		MaterialType: payload.MaterialType,
		Quantity:     payload.Quantity,
		Reason:       DisposalReason(payload.Reason),
		Note:         payload.Note,
	})
	if err != nil {
		h.respondError(w, "record disposal", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, record)
}

func (h *Handler) listReorders(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListReorders(r.Context(), sinceParam(r))
	if err != nil {
		h.respondError(w, "list reorders", err)
		return
	}
	if records == nil {
		records = []ReorderRecord{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"reorders": records})
}

func (h *Handler) raiseReorder(w http.ResponseWriter, r *http.Request) {
	var payload movementPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	record, err := h.service.RaiseReorder(r.Context(), payload.MaterialType, payload.Quantity)
	if err != nil {
		h.respondError(w, "raise reorder", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, record)
}

func (h *Handler) receiveStock(w http.ResponseWriter, r *http.Request) {
	var payload movementPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	item, err := h.service.ReceiveStock(r.Context(), payload.MaterialType, payload.Quantity)
	if err != nil {
		h.respondError(w, "receive stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) respondError(w http.ResponseWriter, context string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInsufficientStock):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(context, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func sinceParam(r *http.Request) time.Time {
	if raw := r.URL.Query().Get("since"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			return parsed
		}
	}
	return time.Now().AddDate(-1, 0, 0)
}
