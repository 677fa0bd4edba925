// Package conversation orchestrates one message exchange: analyze the text,
// generate the supportive reply, then persist the message pair, the mood
// upsert and the suggestion as one atomic write set.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/daem-platform/daem-backend/internal/analysis/sentiment"
	"github.com/daem-platform/daem-backend/internal/model/therapy"
	"github.com/daem-platform/daem-backend/internal/service/reply"
	"github.com/daem-platform/daem-backend/internal/store"
)

var (
	// ErrEmptyMessage rejects blank input before any side effect.
	ErrEmptyMessage = errors.New("message content is empty")

	// ErrSessionNotActive rejects messages to closed or expired sessions.
	ErrSessionNotActive = errors.New("session is not active")

	// ErrAnalysisUnavailable wraps analyzer or generator failures. The
	// pipeline aborts before any row is written.
	ErrAnalysisUnavailable = errors.New("analysis unavailable")
)

// moodNotePrefixLen bounds how much of the message text lands in the mood
// log notes, counted in runes so Arabic text is not cut mid-character.
const moodNotePrefixLen = 30

// Result is everything one processed exchange produced.
type Result struct {
	UserMessage    therapy.ChatMessage
	AIMessage      therapy.ChatMessage
	MoodLog        therapy.MoodLog
	Suggestion     therapy.AISuggestion
	Mood           string
	SentimentScore float64
}

// Pipeline runs the per-message flow. The agent user is the well-known
// identity stamped as sender on AI-authored messages; it is provisioned once
// at startup and passed in here, never resolved per request.
type Pipeline struct {
	sessions store.SessionStore
	conv     store.ConversationStore
	analyzer sentiment.Analyzer
	replies  reply.Generator
	agent    therapy.User
	now      func() time.Time
	log      *logrus.Entry
}

// NewPipeline wires the pipeline collaborators.
func NewPipeline(sessions store.SessionStore, conv store.ConversationStore, analyzer sentiment.Analyzer, replies reply.Generator, agent therapy.User) *Pipeline {
	return &Pipeline{
		sessions: sessions,
		conv:     conv,
		analyzer: analyzer,
		replies:  replies,
		agent:    agent,
		now:      time.Now,
		log:      logrus.WithField("component", "conversation"),
	}
}

// HandleMessage processes one inbound message on an active session. On
// success exactly two messages, one upserted mood log and one suggestion
// exist; on analyzer or generator failure nothing is written.
func (p *Pipeline) HandleMessage(ctx context.Context, session therapy.Session, sender therapy.User, text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, ErrEmptyMessage
	}
	if !session.IsActive {
		return Result{}, ErrSessionNotActive
	}

	now := p.now().UTC()
	if err := p.sessions.TouchSession(ctx, session.ID, now); err != nil {
		return Result{}, fmt.Errorf("refresh session activity: %w", err)
	}

	analysis, err := p.analyzer.Analyze(ctx, text)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrAnalysisUnavailable, err)
	}

	replyText, err := p.replies.Generate(ctx, analysis.Mood)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrAnalysisUnavailable, err)
	}

	notesOnCreate, notesOnUpdate := moodNotes(text)

	senderID := sender.ID
	agentID := p.agent.ID
	exchange := store.Exchange{
		UserMessage: therapy.ChatMessage{
			SessionID: session.ID,
			SenderID:  &senderID,
			Content:   text,
			IsAi:      false,
			Sentiment: analysis.Mood,
			Timestamp: now,
		},
		AIMessage: therapy.ChatMessage{
			SessionID: session.ID,
			SenderID:  &agentID,
			Content:   replyText,
			IsAi:      true,
			Sentiment: analysis.Mood,
			// The reply must sort strictly after the human message.
			Timestamp: now.Add(time.Millisecond),
		},
		Mood: store.MoodUpdate{
			UserID:         session.UserID,
			SessionID:      session.ID,
			Mood:           analysis.Mood,
			NotesOnCreate:  notesOnCreate,
			NotesOnUpdate:  notesOnUpdate,
			SentimentScore: analysis.Score,
		},
		Suggestion: therapy.AISuggestion{
			UserID:         session.UserID,
			SuggestionText: replyText,
			SourceType:     therapy.SourceChat,
			GeneratedAt:    now,
		},
	}

	persisted, err := p.conv.AppendExchange(ctx, exchange)
	if err != nil {
		return Result{}, fmt.Errorf("persist exchange: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"session": session.ID,
		"mood":    analysis.Mood,
	}).Info("message exchange recorded")

	return Result{
		UserMessage:    persisted.UserMessage,
		AIMessage:      persisted.AIMessage,
		MoodLog:        persisted.MoodLog,
		Suggestion:     persisted.Suggestion,
		Mood:           analysis.Mood,
		SentimentScore: analysis.Score,
	}, nil
}

// moodNotes composes both note wordings for the message. The store decides
// inside its atomic upsert whether the session's first mood record is being
// created or an existing one updated, so both texts travel with the exchange.
func moodNotes(text string) (onCreate, onUpdate string) {
	prefix := text
	if runes := []rune(text); len(runes) > moodNotePrefixLen {
		prefix = string(runes[:moodNotePrefixLen])
	}

	onCreate = fmt.Sprintf("إنشاء المزاج الأول للجلسة بناءً على الرسالة: %s...", prefix)
	onUpdate = fmt.Sprintf("تحديث المزاج أثناء الجلسة بناءً على الرسالة: %s...", prefix)
	return onCreate, onUpdate
}

// EnsureAgentUser resolves the synthetic AI identity, creating it on first
// run. Call once at startup and hand the result to NewPipeline.
func EnsureAgentUser(ctx context.Context, users store.UserStore) (therapy.User, error) {
	agent, err := users.FindUserByUsername(ctx, therapy.AgentUsername)
	if err == nil {
		return agent, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return therapy.User{}, fmt.Errorf("lookup agent user: %w", err)
	}

	agent = therapy.User{
		Username:   therapy.AgentUsername,
		Email:      "ai@daem.com",
		Role:       therapy.RoleTherapist,
		IsVerified: true,
	}
	if err := users.SaveUser(ctx, &agent); err != nil {
		return therapy.User{}, fmt.Errorf("provision agent user: %w", err)
	}
	return agent, nil
}
