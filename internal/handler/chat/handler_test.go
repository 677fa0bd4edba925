package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/daem-platform/daem-backend/internal/analysis/sentiment"
	"github.com/daem-platform/daem-backend/internal/middleware"
	"github.com/daem-platform/daem-backend/internal/model/therapy"
	"github.com/daem-platform/daem-backend/internal/service/conversation"
	"github.com/daem-platform/daem-backend/internal/store/memory"
)

type stubAnalyzer struct {
	result sentiment.Result
	err    error
}

func (a *stubAnalyzer) Analyze(context.Context, string) (sentiment.Result, error) {
	return a.result, a.err
}

type stubGenerator struct{}

func (stubGenerator) Generate(context.Context, string) (string, error) {
	return "أنا هنا معك", nil
}

var client = therapy.User{ID: "user-1", Role: therapy.RoleClient}

func setupRouter(t *testing.T, analyzer *stubAnalyzer) (*chi.Mux, *memory.Store, therapy.Session) {
	t.Helper()

	st := memory.New()
	session := therapy.Session{
		UserID:       client.ID,
		IsActive:     true,
		StartTime:    time.Now().UTC(),
		LastActivity: time.Now().UTC(),
	}
	if err := st.CreateSession(context.Background(), &session); err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	agent := therapy.User{ID: "agent-1", Role: therapy.RoleTherapist}
	pipeline := conversation.NewPipeline(st, st, analyzer, stubGenerator{}, agent)
	handler := New(pipeline, st, st)

	r := chi.NewRouter()
	r.Use(middleware.Identity)
	handler.RegisterRoutes(r)
	return r, st, session
}

func postMessage(r http.Handler, sessionID, content string, user therapy.User) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(map[string]string{"session": sessionID, "content": content})
	req := httptest.NewRequest(http.MethodPost, "/send-message", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", user.ID)
	req.Header.Set("X-User-Role", string(user.Role))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestSendMessageReturnsExchange(t *testing.T) {
	analyzer := &stubAnalyzer{result: sentiment.Result{Mood: sentiment.MoodAnxious, Score: -0.6}}
	r, _, session := setupRouter(t, analyzer)

	resp := postMessage(r, session.ID, "أشعر بالقلق", client)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var body struct {
		UserMessage  string `json:"userMessage"`
		AIResponse   string `json:"aiResponse"`
		DetectedMood string `json:"detectedMood"`
		Suggestion   string `json:"suggestion"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if body.DetectedMood != sentiment.MoodAnxious {
		t.Fatalf("unexpected mood: %s", body.DetectedMood)
	}
	if body.AIResponse == "" || body.Suggestion != body.AIResponse {
		t.Fatalf("suggestion must echo the reply: %+v", body)
	}
}

func TestSendMessageUnknownSession(t *testing.T) {
	r, _, _ := setupRouter(t, &stubAnalyzer{})

	resp := postMessage(r, "missing", "مرحبا", client)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestSendMessageInactiveSession(t *testing.T) {
	r, st, session := setupRouter(t, &stubAnalyzer{})

	session.IsActive = false
	if err := st.UpdateSession(context.Background(), &session); err != nil {
		t.Fatalf("UpdateSession err: %v", err)
	}

	resp := postMessage(r, session.ID, "مرحبا", client)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestSendMessageEmptyContent(t *testing.T) {
	analyzer := &stubAnalyzer{result: sentiment.Result{Mood: sentiment.MoodNeutral}}
	r, _, session := setupRouter(t, analyzer)

	resp := postMessage(r, session.ID, "   ", client)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestSendMessageAnalyzerDown(t *testing.T) {
	analyzer := &stubAnalyzer{err: errors.New("model timeout")}
	r, st, session := setupRouter(t, analyzer)

	resp := postMessage(r, session.ID, "أشعر بالقلق", client)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}

	messages, err := st.ListMessages(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("ListMessages err: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("expected no messages after failure, got %d", len(messages))
	}
}

func TestSendMessageForeignSession(t *testing.T) {
	r, _, session := setupRouter(t, &stubAnalyzer{result: sentiment.Result{Mood: sentiment.MoodNeutral}})

	stranger := therapy.User{ID: "user-2", Role: therapy.RoleClient}
	resp := postMessage(r, session.ID, "مرحبا", stranger)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestTranscriptOrdering(t *testing.T) {
	analyzer := &stubAnalyzer{result: sentiment.Result{Mood: sentiment.MoodNeutral}}
	r, _, session := setupRouter(t, analyzer)

	if resp := postMessage(r, session.ID, "مرحبا", client); resp.Code != http.StatusCreated {
		t.Fatalf("send failed: %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+session.ID+"/messages", nil)
	req.Header.Set("X-User-ID", client.ID)
	req.Header.Set("X-User-Role", string(client.Role))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var messages []therapy.ChatMessage
	if err := json.Unmarshal(resp.Body.Bytes(), &messages); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].IsAi || !messages[1].IsAi {
		t.Fatal("human message must come before the AI reply")
	}
	if !messages[0].Timestamp.Before(messages[1].Timestamp) {
		t.Fatal("timestamps out of order")
	}
}
