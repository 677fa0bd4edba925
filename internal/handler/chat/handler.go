package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daem-platform/daem-backend/internal/middleware"
	"github.com/daem-platform/daem-backend/internal/service/conversation"
	"github.com/daem-platform/daem-backend/internal/store"
	"github.com/daem-platform/daem-backend/pkg/utils"
)

// Handler exposes the message pipeline over HTTP.
type Handler struct {
	pipeline *conversation.Pipeline
	sessions store.SessionStore
	conv     store.ConversationStore
}

// New creates the chat handler.
func New(pipeline *conversation.Pipeline, sessions store.SessionStore, conv store.ConversationStore) *Handler {
	return &Handler{pipeline: pipeline, sessions: sessions, conv: conv}
}

// RegisterRoutes mounts the chat endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/send-message", h.handleSendMessage)
	r.Get("/sessions/{sessionID}/messages", h.handleTranscript)
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	var payload struct {
		Session string `json:"session"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Session == "" {
		utils.RespondError(w, http.StatusBadRequest, "session is required")
		return
	}

	session, err := h.sessions.GetSession(r.Context(), payload.Session)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !session.IsActive) {
		utils.RespondError(w, http.StatusNotFound, "session not found or inactive")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "session lookup failed")
		return
	}
	if !session.OwnedBy(user) {
		utils.RespondError(w, http.StatusForbidden, "not your session")
		return
	}

	result, err := h.pipeline.HandleMessage(r.Context(), session, user, payload.Content)
	switch {
	case errors.Is(err, conversation.ErrEmptyMessage):
		utils.RespondError(w, http.StatusBadRequest, "content is required")
		return
	case errors.Is(err, conversation.ErrSessionNotActive):
		utils.RespondError(w, http.StatusNotFound, "session not found or inactive")
		return
	case errors.Is(err, conversation.ErrAnalysisUnavailable):
		utils.RespondError(w, http.StatusServiceUnavailable, "analysis unavailable")
		return
	case err != nil:
		utils.RespondError(w, http.StatusInternalServerError, "could not process message")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"userMessage":  result.UserMessage.Content,
		"aiResponse":   result.AIMessage.Content,
		"detectedMood": result.Mood,
		"suggestion":   result.Suggestion.SuggestionText,
	})
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	session, err := h.sessions.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if errors.Is(err, store.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "session lookup failed")
		return
	}
	if !session.OwnedBy(user) {
		utils.RespondError(w, http.StatusForbidden, "not your session")
		return
	}

	messages, err := h.conv.ListMessages(r.Context(), session.ID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "could not load transcript")
		return
	}
	utils.RespondJSON(w, http.StatusOK, messages)
}
