package suppliers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

type supplierPayload struct {
	Code        string  `json:"code" validate:"required,max=32"`
	CompanyName string  `json:"companyName" validate:"required,max=255"`
	Address     string  `json:"address" validate:"max=500"`
	Email       string  `json:"email" validate:"omitempty,email"`
	Phone       string  `json:"phone" validate:"max=32"`
	Status      string  `json:"status" validate:"omitempty,oneof=ACTIVE SUSPENDED ARCHIVED"`
	Rating      float64 `json:"rating" validate:"gte=0,lte=5"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 10
	}

	filters := ListFilters{
		Page:    page,
		Limit:   limit,
		Search:  r.URL.Query().Get("search"),
		Status:  r.URL.Query().Get("status"),
		SortBy:  r.URL.Query().Get("sort"),
		SortDir: r.URL.Query().Get("dir"),
	}

	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list suppliers failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Supplier{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"suppliers": list,
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid supplier ID")
		return
	}
	supplier, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, supplier)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	payload, err := h.decode(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	supplier, err := h.service.Create(r.Context(), payload)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, supplier)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid supplier ID")
		return
	}
	payload, err := h.decode(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Update(r.Context(), id, payload); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid supplier ID")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Ranking serves the top-rated suppliers consumed by the dashboard widgets.
func (h *Handler) Ranking(w http.ResponseWriter, r *http.Request) {
	topN := 5
	if raw := r.URL.Query().Get("top"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "top must be a non-negative integer")
			return
		}
		topN = parsed
	}
	ranked, err := h.service.TopRated(r.Context(), topN)
	if err != nil {
		h.logger.Error("rank suppliers failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"suppliers": ranked})
}

func (h *Handler) decode(r *http.Request) (Supplier, error) {
	var payload supplierPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		return Supplier{}, fmt.Errorf("%w: malformed JSON body", httpx.ErrValidation)
	}
	if err := h.validator.Struct(payload); err != nil {
		return Supplier{}, fmt.Errorf("%w: %s", httpx.ErrValidation, validationDetail(err))
	}
	return Supplier{
		Code:        payload.Code,
		CompanyName: payload.CompanyName,
		Address:     payload.Address,
		Email:       payload.Email,
		Phone:       payload.Phone,
		Status:      payload.Status,
		Rating:      payload.Rating,
	}, nil
}

func validationDetail(err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		return errs[0].Field() + " failed " + errs[0].Tag() + " validation"
	}
	return err.Error()
}
