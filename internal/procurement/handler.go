package procurement

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
)

// Handler wires purchase order endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the procurement HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers procurement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Post("/{id}/submit", h.submit)
	r.Post("/{id}/approve", h.approve)
	r.Post("/{id}/reject", h.reject)
	r.Post("/{id}/complete", h.complete)
	r.Post("/{id}/cancel", h.cancel)
}

type createPayload struct {
	Number     string        `json:"number" validate:"max=64"`
	SupplierID int64         `json:"supplierId" validate:"required,gt=0"`
	Note       string        `json:"note" validate:"max=500"`
	Lines      []linePayload `json:"lines" validate:"required,min=1,dive"`
}

type linePayload struct {
	MaterialType string  `json:"materialType" validate:"required,max=128"`
	Quantity     float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice    float64 `json:"unitPrice" validate:"gte=0"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Status: POStatus(r.URL.Query().Get("status"))}
	if raw := r.URL.Query().Get("supplier_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid supplier_id")
			return
		}
		filter.SupplierID = id
	}
	orders, err := h.service.ListPurchaseOrders(r.Context(), filter)
	if err != nil {
		h.respondError(w, "list purchase orders", err)
		return
	}
	if orders == nil {
		orders = []PurchaseOrder{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	po, lines, err := h.service.GetPurchaseOrder(r.Context(), id)
	if err != nil {
		h.respondError(w, "get purchase order", err)
		return
	}
	if lines == nil {
		lines = []POLine{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"order": po, "lines": lines})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var payload createPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := CreatePOInput{Number: payload.Number, SupplierID: payload.SupplierID, Note: payload.Note}
	for _, line := range payload.Lines {
		input.Lines = append(input.Lines, POLineInput(line))
	}
	po, err := h.service.CreatePurchaseOrder(r.Context(), input)
	if err != nil {
		h.respondError(w, "create purchase order", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, po)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	status, err := h.service.SubmitPurchaseOrder(r.Context(), id, actorID(r))
	if err != nil {
		h.respondError(w, "submit purchase order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": status})
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.service.ApprovePurchaseOrder)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.service.RejectPurchaseOrder)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64, int64) error) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := fn(r.Context(), id, actorID(r)); err != nil {
		h.respondError(w, "resolve purchase order", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.CompletePurchaseOrder(r.Context(), id); err != nil {
		h.respondError(w, "complete purchase order", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.CancelPurchaseOrder(r.Context(), id); err != nil {
		h.respondError(w, "cancel purchase order", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid purchase order ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, context string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidState):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(context, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// actorID resolves the acting staff member from the upstream gateway header.
func actorID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.Header.Get("X-Staff-ID"), 10, 64)
	return id
}
