// Package store defines the persistence ports consumed by the session and
// conversation services. Implementations must provide per-user serialization
// for session activation and an atomic exchange write, so racing requests
// never leave two active sessions or two mood logs behind.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/daem-platform/daem-backend/internal/model/therapy"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrActiveSessionExists rejects a session create that would leave a
	// user with two simultaneously active sessions. Callers should re-read
	// and adopt the winner instead of retrying the insert.
	ErrActiveSessionExists = errors.New("user already has an active session")

	// ErrMoodLogExists rejects a second mood log for the same session.
	ErrMoodLogExists = errors.New("session already has a mood log")
)

// UserStore persists identity records the engine itself owns, which is only
// the synthetic agent user plus whatever the seeding tools create.
type UserStore interface {
	GetUser(ctx context.Context, id string) (therapy.User, error)
	FindUserByUsername(ctx context.Context, username string) (therapy.User, error)
	SaveUser(ctx context.Context, user *therapy.User) error
}

// SessionStore persists session records.
type SessionStore interface {
	// CreateSession inserts a session. When the session is active and the
	// user already owns an active one, it fails with ErrActiveSessionExists.
	CreateSession(ctx context.Context, session *therapy.Session) error
	GetSession(ctx context.Context, id string) (therapy.Session, error)
	// FindActiveSession returns the user's active session or ErrNotFound.
	FindActiveSession(ctx context.Context, userID string) (therapy.Session, error)
	UpdateSession(ctx context.Context, session *therapy.Session) error
	// TouchSession advances lastActivity without rewriting the whole row.
	TouchSession(ctx context.Context, id string, at time.Time) error
}

// MoodUpdate carries the fields of a mood upsert. The caller supplies both
// note wordings and the store picks one inside the atomic upsert, so racing
// first messages cannot both record the creation wording. On insert Mood,
// NotesOnCreate and SentimentScore are written; on update only Mood and
// NotesOnUpdate are, keeping the sentiment score pinned to the first
// analyzed message of the session.
type MoodUpdate struct {
	UserID         string
	SessionID      string
	Mood           string
	NotesOnCreate  string
	NotesOnUpdate  string
	SentimentScore float64
}

// Exchange is the write set of one processed message: the human message, the
// AI reply, the mood upsert and the suggestion derived from it.
type Exchange struct {
	UserMessage therapy.ChatMessage
	AIMessage   therapy.ChatMessage
	Mood        MoodUpdate
	Suggestion  therapy.AISuggestion
}

// ExchangeResult echoes the persisted records with their assigned IDs.
type ExchangeResult struct {
	UserMessage therapy.ChatMessage
	AIMessage   therapy.ChatMessage
	MoodLog     therapy.MoodLog
	Suggestion  therapy.AISuggestion
}

// ConversationStore persists chat messages, mood logs and suggestions.
type ConversationStore interface {
	// AppendExchange applies the whole write set atomically: either both
	// messages, the mood upsert and the suggestion are visible, or none are.
	AppendExchange(ctx context.Context, ex Exchange) (ExchangeResult, error)
	ListMessages(ctx context.Context, sessionID string) ([]therapy.ChatMessage, error)
	GetMoodLog(ctx context.Context, sessionID string) (therapy.MoodLog, error)
	ListMoodLogs(ctx context.Context, userID string) ([]therapy.MoodLog, error)
	// CreateMoodLog serves the manual mood-log endpoint for sessions that
	// have no log yet; the chat pipeline always goes through AppendExchange.
	CreateMoodLog(ctx context.Context, log *therapy.MoodLog) error
	ListSuggestions(ctx context.Context, userID string) ([]therapy.AISuggestion, error)
	// AcceptSuggestion marks the user's suggestion as accepted, idempotently.
	AcceptSuggestion(ctx context.Context, id, userID string) (therapy.AISuggestion, error)
}

// ResourceStore persists the resource catalog.
type ResourceStore interface {
	ListResources(ctx context.Context) ([]therapy.Resource, error)
	GetResource(ctx context.Context, id string) (therapy.Resource, error)
	SaveResource(ctx context.Context, res *therapy.Resource) error
	DeleteResource(ctx context.Context, id string) error
}

// Store aggregates every persistence concern of the platform.
type Store interface {
	UserStore
	SessionStore
	ConversationStore
	ResourceStore
	Stats(ctx context.Context) (therapy.PlatformStats, error)
}
