package http

import (
	"net/http"
	"time"

	"github.com/itas-team/itas/internal/store"
	"github.com/itas-team/itas/pkg/httpx"
)

// HealthHandler reports service and database health.
type HealthHandler struct {
	Store     store.Store
	Version   string
	StartTime time.Time
}

// HandleHealth handles GET /api/health.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "degraded",
			"error":  "database unreachable",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": h.Version,
		"uptime":  time.Since(h.StartTime).Round(time.Second).String(),
	})
}
