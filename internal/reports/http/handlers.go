package reporthttp

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/curastock/curastock/internal/platform/httpx"
	"github.com/curastock/curastock/internal/reports"
	"github.com/curastock/curastock/internal/reports/export"
	"github.com/curastock/curastock/internal/shared"
)

// Handler serves read-only reporting endpoints.
type Handler struct {
	logger  *slog.Logger
	service *reports.Service
}

// NewHandler constructs a reports handler.
func NewHandler(logger *slog.Logger, service *reports.Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summarize(r.Context())
	if err != nil {
		h.logger.Error("summarize failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := h.service.CategoryBreakdown(r.Context(), from, to)
	if err != nil {
		h.logger.Error("category breakdown failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": rows})
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	overview, err := h.service.Overview(r.Context(), from, to)
	if err != nil {
		h.logger.Error("overview failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, _ = strconv.Atoi(limitStr)
	}

	w.Header().Set("Content-Type", "text/csv")
	switch r.URL.Query().Get("kind") {
	case "categories":
		w.Header().Set("Content-Disposition", `attachment; filename="categories.csv"`)
		rows, err := h.service.CategoryBreakdown(r.Context(), from, to)
		if err != nil {
			h.logger.Error("export categories failed", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		if err := export.WriteCategoryCSV(w, rows); err != nil {
			h.logger.Error("write categories csv", slog.Any("error", err))
		}
	case "summary":
		w.Header().Set("Content-Disposition", `attachment; filename="summary.csv"`)
		summary, err := h.service.Summarize(r.Context())
		if err != nil {
			h.logger.Error("export summary failed", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		if err := export.WriteSummaryCSV(w, summary); err != nil {
			h.logger.Error("write summary csv", slog.Any("error", err))
		}
	default:
		w.Header().Set("Content-Disposition", `attachment; filename="movements.csv"`)
		entries, err := h.service.MovementsInWindow(r.Context(), from, to, limit)
		if err != nil {
			h.logger.Error("export movements failed", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		if err := export.WriteMovementsCSV(w, entries); err != nil {
			h.logger.Error("write movements csv", slog.Any("error", err))
		}
	}
}

func parseWindow(r *http.Request) (time.Time, time.Time, error) {
	var from, to time.Time
	q := r.URL.Query()
	if fromStr := q.Get("from"); fromStr != "" {
		parsed, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid from date", shared.ErrValidation)
		}
		from = parsed
	}
	if toStr := q.Get("to"); toStr != "" {
		parsed, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid to date", shared.ErrValidation)
		}
		to = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to, nil
}
