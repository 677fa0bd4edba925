package mood

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daem-platform/daem-backend/internal/middleware"
	"github.com/daem-platform/daem-backend/internal/model/therapy"
	"github.com/daem-platform/daem-backend/internal/store"
	"github.com/daem-platform/daem-backend/pkg/utils"
)

// Handler exposes the caller's mood-log history.
type Handler struct {
	conv store.ConversationStore
}

// New creates the mood-log handler.
func New(conv store.ConversationStore) *Handler {
	return &Handler{conv: conv}
}

// RegisterRoutes mounts the mood-log endpoints, clients only.
func (h *Handler) RegisterRoutes(r chi.Router) {
	clientOnly := middleware.RequireRole(therapy.RoleClient)
	r.With(clientOnly).Get("/mood-logs", h.handleList)
	r.With(clientOnly).Post("/mood-logs", h.handleCreate)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	logs, err := h.conv.ListMoodLogs(r.Context(), user.ID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "could not load mood logs")
		return
	}
	utils.RespondJSON(w, http.StatusOK, logs)
}

// handleCreate records a manually entered mood. The chat pipeline owns the
// per-session log, so a session that already has one rejects the insert.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	var payload struct {
		SessionID string  `json:"sessionId"`
		Mood      string  `json:"mood"`
		Notes     string  `json:"notes"`
		Score     float64 `json:"sentimentScore"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Mood == "" {
		utils.RespondError(w, http.StatusBadRequest, "mood is required")
		return
	}
	if payload.SessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	log := therapy.MoodLog{
		UserID:         user.ID,
		SessionID:      payload.SessionID,
		Mood:           payload.Mood,
		Notes:          payload.Notes,
		SentimentScore: payload.Score,
	}
	if err := h.conv.CreateMoodLog(r.Context(), &log); err != nil {
		if errors.Is(err, store.ErrMoodLogExists) {
			utils.RespondError(w, http.StatusConflict, "session already has a mood log")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "could not create mood log")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, log)
}
