package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/daem-platform/daem-backend/internal/analysis/sentiment"
	"github.com/daem-platform/daem-backend/internal/model/therapy"
	"github.com/daem-platform/daem-backend/internal/store"
	"github.com/daem-platform/daem-backend/internal/store/memory"
)

type stubAnalyzer struct {
	result sentiment.Result
	err    error
}

func (a *stubAnalyzer) Analyze(context.Context, string) (sentiment.Result, error) {
	return a.result, a.err
}

type stubGenerator struct {
	reply string
	err   error
}

func (g *stubGenerator) Generate(context.Context, string) (string, error) {
	return g.reply, g.err
}

var agent = therapy.User{ID: "agent-1", Username: therapy.AgentUsername, Role: therapy.RoleTherapist}

func newTestPipeline(t *testing.T, analyzer sentiment.Analyzer, generator *stubGenerator) (*Pipeline, *memory.Store, therapy.Session, therapy.User) {
	t.Helper()

	st := memory.New()
	user := therapy.User{ID: "user-1", Username: "ahmad", Role: therapy.RoleClient}
	session := therapy.Session{
		UserID:       user.ID,
		IsActive:     true,
		StartTime:    time.Now().UTC(),
		LastActivity: time.Now().UTC(),
	}
	if err := st.CreateSession(context.Background(), &session); err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	p := NewPipeline(st, st, analyzer, generator, agent)
	return p, st, session, user
}

func TestHandleMessageWritesFullExchange(t *testing.T) {
	analyzer := &stubAnalyzer{result: sentiment.Result{Mood: sentiment.MoodAnxious, Score: -0.6}}
	generator := &stubGenerator{reply: "خذ نفسًا عميقًا"}
	p, st, session, user := newTestPipeline(t, analyzer, generator)
	ctx := context.Background()

	res, err := p.HandleMessage(ctx, session, user, "أشعر بالقلق")
	if err != nil {
		t.Fatalf("HandleMessage err: %v", err)
	}

	if res.Mood != sentiment.MoodAnxious {
		t.Fatalf("unexpected mood: %s", res.Mood)
	}
	if res.UserMessage.IsAi || !res.AIMessage.IsAi {
		t.Fatal("message roles mixed up")
	}
	if !res.UserMessage.Timestamp.Before(res.AIMessage.Timestamp) {
		t.Fatal("human message must precede its AI reply")
	}
	if res.Suggestion.SourceType != therapy.SourceChat {
		t.Fatalf("unexpected suggestion source: %s", res.Suggestion.SourceType)
	}
	if res.Suggestion.MoodLogID != res.MoodLog.ID {
		t.Fatal("suggestion not tied to the mood log")
	}

	messages, err := st.ListMessages(ctx, session.ID)
	if err != nil {
		t.Fatalf("ListMessages err: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
}

func TestHandleMessageUpsertsSingleMoodLog(t *testing.T) {
	analyzer := &stubAnalyzer{result: sentiment.Result{Mood: sentiment.MoodAnxious, Score: -0.6}}
	generator := &stubGenerator{reply: "أنا معك"}
	p, st, session, user := newTestPipeline(t, analyzer, generator)
	ctx := context.Background()

	first, err := p.HandleMessage(ctx, session, user, "أشعر بالقلق")
	if err != nil {
		t.Fatalf("first HandleMessage err: %v", err)
	}

	analyzer.result = sentiment.Result{Mood: sentiment.MoodSad, Score: -0.9}
	second, err := p.HandleMessage(ctx, session, user, "أشعر بالحزن اليوم")
	if err != nil {
		t.Fatalf("second HandleMessage err: %v", err)
	}

	if second.MoodLog.ID != first.MoodLog.ID {
		t.Fatal("mood log duplicated instead of updated in place")
	}
	if second.MoodLog.Mood != sentiment.MoodSad {
		t.Fatalf("mood not updated: %s", second.MoodLog.Mood)
	}
	if second.MoodLog.SentimentScore != first.MoodLog.SentimentScore {
		t.Fatalf("sentiment score must stay pinned to the first message, got %f", second.MoodLog.SentimentScore)
	}
	if !strings.HasPrefix(first.MoodLog.Notes, "إنشاء") {
		t.Fatalf("first message must record the creation wording, got %q", first.MoodLog.Notes)
	}
	if !strings.HasPrefix(second.MoodLog.Notes, "تحديث") {
		t.Fatalf("second message must record the update wording, got %q", second.MoodLog.Notes)
	}

	logs, err := st.ListMoodLogs(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListMoodLogs err: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 mood log, got %d", len(logs))
	}

	suggestions, err := st.ListSuggestions(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListSuggestions err: %v", err)
	}
	if len(suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(suggestions))
	}
}

func TestHandleMessageAnalyzerFailureWritesNothing(t *testing.T) {
	analyzer := &stubAnalyzer{err: errors.New("model timeout")}
	generator := &stubGenerator{reply: "unused"}
	p, st, session, user := newTestPipeline(t, analyzer, generator)
	ctx := context.Background()

	_, err := p.HandleMessage(ctx, session, user, "أشعر بالقلق")
	if !errors.Is(err, ErrAnalysisUnavailable) {
		t.Fatalf("expected ErrAnalysisUnavailable, got %v", err)
	}

	messages, err := st.ListMessages(ctx, session.ID)
	if err != nil {
		t.Fatalf("ListMessages err: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("expected no messages, got %d", len(messages))
	}
	if _, err := st.GetMoodLog(ctx, session.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected no mood log, got err=%v", err)
	}
	suggestions, _ := st.ListSuggestions(ctx, user.ID)
	if len(suggestions) != 0 {
		t.Fatalf("expected no suggestions, got %d", len(suggestions))
	}
}

func TestHandleMessageGeneratorFailureWritesNothing(t *testing.T) {
	analyzer := &stubAnalyzer{result: sentiment.Result{Mood: sentiment.MoodNeutral}}
	generator := &stubGenerator{err: errors.New("model unavailable")}
	p, st, session, user := newTestPipeline(t, analyzer, generator)

	_, err := p.HandleMessage(context.Background(), session, user, "مرحبا")
	if !errors.Is(err, ErrAnalysisUnavailable) {
		t.Fatalf("expected ErrAnalysisUnavailable, got %v", err)
	}
	messages, _ := st.ListMessages(context.Background(), session.ID)
	if len(messages) != 0 {
		t.Fatalf("expected no messages, got %d", len(messages))
	}
}

func TestHandleMessageRejectsEmptyText(t *testing.T) {
	p, _, session, user := newTestPipeline(t, &stubAnalyzer{}, &stubGenerator{})

	if _, err := p.HandleMessage(context.Background(), session, user, "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestHandleMessageRejectsInactiveSession(t *testing.T) {
	p, _, session, user := newTestPipeline(t, &stubAnalyzer{}, &stubGenerator{})
	session.IsActive = false

	if _, err := p.HandleMessage(context.Background(), session, user, "مرحبا"); !errors.Is(err, ErrSessionNotActive) {
		t.Fatalf("expected ErrSessionNotActive, got %v", err)
	}
}

func TestEnsureAgentUserIsStable(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	first, err := EnsureAgentUser(ctx, st)
	if err != nil {
		t.Fatalf("EnsureAgentUser err: %v", err)
	}
	if first.Username != therapy.AgentUsername || first.Role != therapy.RoleTherapist {
		t.Fatalf("unexpected agent identity: %+v", first)
	}

	second, err := EnsureAgentUser(ctx, st)
	if err != nil {
		t.Fatalf("second EnsureAgentUser err: %v", err)
	}
	if second.ID != first.ID {
		t.Fatal("agent identity must be a singleton")
	}
}
