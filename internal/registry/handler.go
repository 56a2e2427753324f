package registry

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/curastock/curastock/internal/platform/httpx"
	"github.com/curastock/curastock/internal/shared"
)

// Handler wires HTTP endpoints for the stock item registry.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a registry handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers registry routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/items", h.handleRegister)
	r.Get("/items", h.handleList)
	r.Get("/items/{id}", h.handleGet)
	r.Delete("/items/{id}", h.handleArchive)
}

type registerRequest struct {
	Code              string `json:"code" validate:"required,max=64"`
	Name              string `json:"name" validate:"required,max=255"`
	Category          string `json:"category" validate:"max=120"`
	Unit              string `json:"unit" validate:"required,max=32"`
	InitialStock      int64  `json:"initial_stock" validate:"gte=0"`
	LowStockThreshold int64  `json:"low_stock_threshold" validate:"gte=0"`
}

type itemResponse struct {
	Item
	Status Status `json:"status"`
}

func toItemResponse(item Item) itemResponse {
	return itemResponse{Item: item, Status: item.Status()}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed JSON body", shared.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrValidation, err.Error()))
		return
	}
	item, err := h.service.Register(r.Context(), RegisterInput{
		Code:              req.Code,
		Name:              req.Name,
		Category:          req.Category,
		Unit:              req.Unit,
		InitialStock:      req.InitialStock,
		LowStockThreshold: req.LowStockThreshold,
		Actor:             shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.logger.Warn("register item failed", slog.String("code", req.Code), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("item registered", slog.Int64("id", item.ID), slog.String("code", item.Code))
	httpx.JSON(w, http.StatusCreated, toItemResponse(item))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toItemResponse(item))
}

type listResponse struct {
	Items      []itemResponse    `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = 20
	}
	filters := ListFilters{
		Search:          q.Get("search"),
		Category:        q.Get("category"),
		IncludeArchived: q.Get("include_archived") == "true",
		Page:            page,
		Limit:           limit,
		SortBy:          q.Get("sort"),
		SortDir:         q.Get("dir"),
	}
	switch Status(q.Get("status")) {
	case StatusInStock, StatusLowStock, StatusOutOfStock:
		filters.Status = Status(q.Get("status"))
	}

	items, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list items failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	resp := listResponse{
		Items:      make([]itemResponse, 0, len(items)),
		Pagination: shared.NewPagination(page, limit, total),
	}
	for _, item := range items {
		resp.Items = append(resp.Items, toItemResponse(item))
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	if err := h.service.Archive(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
