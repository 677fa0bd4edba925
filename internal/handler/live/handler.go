// Package live carries chat over a websocket: every inbound text frame runs
// the same conversation pipeline as the REST endpoint and the reply frame
// carries the full exchange result.
package live

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/daem-platform/daem-backend/internal/middleware"
	"github.com/daem-platform/daem-backend/internal/service/conversation"
	"github.com/daem-platform/daem-backend/internal/store"
	"github.com/daem-platform/daem-backend/pkg/utils"
)

// Handler upgrades chat connections.
type Handler struct {
	pipeline *conversation.Pipeline
	sessions store.SessionStore
	upgrader websocket.Upgrader
	log      *logrus.Entry
}

// New creates the live chat handler.
func New(pipeline *conversation.Pipeline, sessions store.SessionStore) *Handler {
	return &Handler{
		pipeline: pipeline,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: logrus.WithField("component", "live"),
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/sessions/{sessionID}", h.handleSocket)
}

type inboundFrame struct {
	Content string `json:"content"`
}

type outboundFrame struct {
	UserMessage  string `json:"userMessage,omitempty"`
	AIResponse   string `json:"aiResponse,omitempty"`
	DetectedMood string `json:"detectedMood,omitempty"`
	Suggestion   string `json:"suggestion,omitempty"`
	Error        string `json:"error,omitempty"`
}

func (h *Handler) handleSocket(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.sessions.GetSession(r.Context(), sessionID)
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

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	h.log.WithField("session", sessionID).Info("live chat opened")

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithError(err).Warn("live chat read failed")
			}
			return
		}

		// Re-read the session per frame: it may have been closed or expired
		// between messages, and the pipeline does not re-check inactivity.
		session, err := h.sessions.GetSession(r.Context(), sessionID)
		if err != nil || !session.IsActive {
			_ = conn.WriteJSON(outboundFrame{Error: "session not found or inactive"})
			return
		}

		result, err := h.pipeline.HandleMessage(r.Context(), session, user, frame.Content)
		if err != nil {
			_ = conn.WriteJSON(outboundFrame{Error: frameError(err)})
			continue
		}

		if err := conn.WriteJSON(outboundFrame{
			UserMessage:  result.UserMessage.Content,
			AIResponse:   result.AIMessage.Content,
			DetectedMood: result.Mood,
			Suggestion:   result.Suggestion.SuggestionText,
		}); err != nil {
			h.log.WithError(err).Warn("live chat write failed")
			return
		}
	}
}

func frameError(err error) string {
	switch {
	case errors.Is(err, conversation.ErrEmptyMessage):
		return "content is required"
	case errors.Is(err, conversation.ErrAnalysisUnavailable):
		return "analysis unavailable"
	case errors.Is(err, conversation.ErrSessionNotActive):
		return "session not found or inactive"
	}
	return "could not process message"
}
