package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daem-platform/daem-backend/internal/middleware"
	"github.com/daem-platform/daem-backend/internal/model/therapy"
	sessionservice "github.com/daem-platform/daem-backend/internal/service/session"
	"github.com/daem-platform/daem-backend/internal/store"
	"github.com/daem-platform/daem-backend/pkg/utils"
)

// Handler exposes the session lifecycle over HTTP.
type Handler struct {
	manager  *sessionservice.Manager
	sessions store.SessionStore
}

// New creates the session handler.
func New(manager *sessionservice.Manager, sessions store.SessionStore) *Handler {
	return &Handler{manager: manager, sessions: sessions}
}

// RegisterRoutes mounts the session endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	clientOnly := middleware.RequireRole(therapy.RoleClient, therapy.RoleAdmin)
	r.With(clientOnly).Get("/sessions", h.handleActiveSession)
	r.With(clientOnly).Post("/sessions", h.handleStartOrContinue)
	r.Get("/sessions/{sessionID}", h.handleDetail)
	r.Put("/sessions/{sessionID}", h.handleUpdate)
	r.Delete("/sessions/{sessionID}", h.handleEnd)
}

// handleActiveSession reports the caller's live session, refreshing its
// activity, or 404 when none exists or the previous one just expired.
func (h *Handler) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	session, err := h.manager.Peek(r.Context(), user)
	if errors.Is(err, sessionservice.ErrNoActiveSession) {
		utils.RespondError(w, http.StatusNotFound, "no active session")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "session lookup failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId":      session.ID,
		"startTime":      session.StartTime,
		"isAiControlled": session.IsAiControlled,
	})
}

func (h *Handler) handleStartOrContinue(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	session, created, err := h.manager.Acquire(r.Context(), user)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "could not start session")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	utils.RespondJSON(w, status, map[string]interface{}{
		"sessionId": session.ID,
		"created":   created,
	})
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
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

	utils.RespondJSON(w, http.StatusOK, session)
}

// handleUpdate applies a partial edit to the session's descriptive fields.
// Only the fields present in the body change.
func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
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

	var payload struct {
		Topic       *string `json:"topic"`
		TherapistID *string `json:"therapistId"`
		AISummary   *string `json:"aiSummary"`
		IsCompleted *bool   `json:"isCompleted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.Topic != nil {
		session.Topic = *payload.Topic
	}
	if payload.TherapistID != nil {
		session.TherapistID = payload.TherapistID
	}
	if payload.AISummary != nil {
		session.AISummary = *payload.AISummary
	}
	if payload.IsCompleted != nil {
		session.IsCompleted = *payload.IsCompleted
	}

	if err := h.sessions.UpdateSession(r.Context(), &session); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "could not update session")
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

// handleEnd closes the session. Safe to repeat.
func (h *Handler) handleEnd(w http.ResponseWriter, r *http.Request) {
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

	closed, err := h.manager.Close(r.Context(), session.ID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "could not end session")
		return
	}
	utils.RespondJSON(w, http.StatusOK, closed)
}
