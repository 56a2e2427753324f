package reporthttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/curastock/curastock/internal/shared"
)

// MountRoutes registers reporting endpoints onto the router. The CSV export
// is rate limited per actor since it can scan large windows.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/reports/summary", h.handleSummary)
	r.Get("/reports/categories", h.handleCategories)
	r.Get("/reports/overview", h.handleOverview)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/reports/export.csv", h.handleExportCSV)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if actor := shared.ActorFromContext(r.Context()); actor != shared.DefaultActor {
		return "actor:" + actor, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
