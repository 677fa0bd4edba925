package suggestion

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daem-platform/daem-backend/internal/middleware"
	"github.com/daem-platform/daem-backend/internal/model/therapy"
	"github.com/daem-platform/daem-backend/internal/store"
	"github.com/daem-platform/daem-backend/pkg/utils"
)

// Handler exposes the caller's suggestion history and the accept action.
type Handler struct {
	conv store.ConversationStore
}

// New creates the suggestion handler.
func New(conv store.ConversationStore) *Handler {
	return &Handler{conv: conv}
}

// RegisterRoutes mounts the suggestion endpoints, clients only.
func (h *Handler) RegisterRoutes(r chi.Router) {
	clientOnly := middleware.RequireRole(therapy.RoleClient)
	r.With(clientOnly).Get("/suggestions", h.handleList)
	r.With(clientOnly).Post("/suggestions/{suggestionID}/accept", h.handleAccept)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	suggestions, err := h.conv.ListSuggestions(r.Context(), user.ID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "could not load suggestions")
		return
	}
	utils.RespondJSON(w, http.StatusOK, suggestions)
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	accepted, err := h.conv.AcceptSuggestion(r.Context(), chi.URLParam(r, "suggestionID"), user.ID)
	if errors.Is(err, store.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "suggestion not found")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "could not accept suggestion")
		return
	}
	utils.RespondJSON(w, http.StatusOK, accepted)
}
