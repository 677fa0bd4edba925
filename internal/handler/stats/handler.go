package stats

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daem-platform/daem-backend/internal/middleware"
	"github.com/daem-platform/daem-backend/internal/model/therapy"
	"github.com/daem-platform/daem-backend/pkg/utils"
)

// Provider yields the platform counters.
type Provider interface {
	Stats(ctx context.Context) (therapy.PlatformStats, error)
}

// Handler serves the admin statistics endpoint.
type Handler struct {
	provider Provider
}

// New creates the stats handler.
func New(provider Provider) *Handler {
	return &Handler{provider: provider}
}

// RegisterRoutes mounts the stats endpoint, admins only.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireRole(therapy.RoleAdmin)).Get("/admin/stats", h.handleStats)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.provider.Stats(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "could not load stats")
		return
	}
	utils.RespondJSON(w, http.StatusOK, stats)
}
