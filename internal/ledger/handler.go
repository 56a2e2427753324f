package ledger

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/curastock/curastock/internal/platform/httpx"
	"github.com/curastock/curastock/internal/shared"
)

// Handler wires HTTP endpoints for the movement ledger.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a ledger handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/items/{id}/movements", h.handleApply)
	r.Get("/movements", h.handleList)
}

type applyRequest struct {
	Direction string `json:"direction" validate:"required,oneof=IN OUT"`
	Quantity  int64  `json:"quantity"`
	Remark    string `json:"remark" validate:"max=500"`
	Rejection *bool  `json:"rejection,omitempty"`
	RefID     string `json:"ref_id,omitempty" validate:"omitempty,uuid"`
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	var req applyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed JSON body", shared.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrValidation, err.Error()))
		return
	}

	result, err := h.service.Apply(r.Context(), ApplyInput{
		ItemID:         itemID,
		Direction:      Direction(req.Direction),
		Quantity:       req.Quantity,
		Remark:         req.Remark,
		Actor:          shared.ActorFromContext(r.Context()),
		Rejection:      req.Rejection,
		RefID:          req.RefID,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.logger.Warn("apply movement failed",
			slog.Int64("item_id", itemID),
			slog.String("direction", req.Direction),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("movement applied",
		slog.Int64("item_id", itemID),
		slog.Int64("entry_id", result.Entry.ID),
		slog.String("direction", string(result.Entry.Direction)),
		slog.Int64("on_hand", result.OnHand))
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{}
	if itemStr := q.Get("item_id"); itemStr != "" {
		id, err := strconv.ParseInt(itemStr, 10, 64)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: invalid item_id", shared.ErrValidation))
			return
		}
		filter.ItemID = id
	}
	switch Direction(q.Get("direction")) {
	case DirectionIn, DirectionOut:
		filter.Direction = Direction(q.Get("direction"))
	}
	if fromStr := q.Get("from"); fromStr != "" {
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: invalid from date", shared.ErrValidation))
			return
		}
		filter.From = from
	}
	if toStr := q.Get("to"); toStr != "" {
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: invalid to date", shared.ErrValidation))
			return
		}
		// Window is inclusive of the whole end day.
		filter.To = to.Add(24*time.Hour - time.Nanosecond)
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	entries, err := h.service.ListEntries(r.Context(), filter)
	if err != nil {
		h.logger.Error("list movements failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"movements": entries})
}
