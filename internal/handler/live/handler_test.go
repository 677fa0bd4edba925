package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/daem-platform/daem-backend/internal/analysis/sentiment"
	"github.com/daem-platform/daem-backend/internal/middleware"
	"github.com/daem-platform/daem-backend/internal/model/therapy"
	"github.com/daem-platform/daem-backend/internal/service/conversation"
	"github.com/daem-platform/daem-backend/internal/store/memory"
)

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(context.Context, string) (sentiment.Result, error) {
	return sentiment.Result{Mood: sentiment.MoodAnxious, Score: -0.5}, nil
}

type stubGenerator struct{}

func (stubGenerator) Generate(context.Context, string) (string, error) {
	return "أنا هنا معك", nil
}

func TestLiveChatRoundTrip(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	client := therapy.User{ID: "user-1", Role: therapy.RoleClient}
	session := therapy.Session{UserID: client.ID, IsActive: true, StartTime: time.Now().UTC(), LastActivity: time.Now().UTC()}
	if err := st.CreateSession(ctx, &session); err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	agent := therapy.User{ID: "agent-1", Role: therapy.RoleTherapist}
	pipeline := conversation.NewPipeline(st, st, stubAnalyzer{}, stubGenerator{}, agent)

	r := chi.NewRouter()
	r.Use(middleware.Identity)
	New(pipeline, st).RegisterRoutes(r)

	server := httptest.NewServer(r)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/sessions/" + session.ID
	header := http.Header{}
	header.Set("X-User-ID", client.ID)
	header.Set("X-User-Role", string(client.Role))

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(inboundFrame{Content: "أشعر بالقلق"}); err != nil {
		t.Fatalf("write err: %v", err)
	}

	var frame outboundFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read err: %v", err)
	}
	if frame.Error != "" {
		t.Fatalf("unexpected frame error: %s", frame.Error)
	}
	if frame.DetectedMood != sentiment.MoodAnxious {
		t.Fatalf("unexpected mood: %s", frame.DetectedMood)
	}
	if frame.AIResponse == "" {
		t.Fatal("expected an AI reply")
	}

	messages, err := st.ListMessages(ctx, session.ID)
	if err != nil {
		t.Fatalf("ListMessages err: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(messages))
	}
}

func TestLiveChatRejectsUnknownSession(t *testing.T) {
	st := memory.New()
	agent := therapy.User{ID: "agent-1", Role: therapy.RoleTherapist}
	pipeline := conversation.NewPipeline(st, st, stubAnalyzer{}, stubGenerator{}, agent)

	r := chi.NewRouter()
	r.Use(middleware.Identity)
	New(pipeline, st).RegisterRoutes(r)

	server := httptest.NewServer(r)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/sessions/missing"
	header := http.Header{}
	header.Set("X-User-ID", "user-1")
	header.Set("X-User-Role", string(therapy.RoleClient))

	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 handshake response, got %+v", resp)
	}
}
