// Package memory implements store.Store with mutex-guarded maps. It backs
// tests and the zero-config dev mode; the single lock is the serialization
// point that keeps session activation and mood upserts race-free.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/daem-platform/daem-backend/internal/model/therapy"
	"github.com/daem-platform/daem-backend/internal/store"
)

// Store holds all records in memory.
type Store struct {
	mu          sync.RWMutex
	users       map[string]therapy.User
	sessions    map[string]therapy.Session
	messages    map[string][]therapy.ChatMessage
	moodLogs    map[string]therapy.MoodLog // keyed by session ID, at most one
	suggestions map[string]therapy.AISuggestion
	resources   map[string]therapy.Resource
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		users:       make(map[string]therapy.User),
		sessions:    make(map[string]therapy.Session),
		messages:    make(map[string][]therapy.ChatMessage),
		moodLogs:    make(map[string]therapy.MoodLog),
		suggestions: make(map[string]therapy.AISuggestion),
		resources:   make(map[string]therapy.Resource),
	}
}

func (s *Store) GetUser(_ context.Context, id string) (therapy.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return therapy.User{}, store.ErrNotFound
	}
	return user, nil
}

func (s *Store) FindUserByUsername(_ context.Context, username string) (therapy.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return therapy.User{}, store.ErrNotFound
}

func (s *Store) SaveUser(_ context.Context, user *therapy.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.ID] = *user
	return nil
}

func (s *Store) CreateSession(_ context.Context, session *therapy.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.IsActive {
		for _, existing := range s.sessions {
			if existing.UserID == session.UserID && existing.IsActive {
				return store.ErrActiveSessionExists
			}
		}
	}

	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	s.sessions[session.ID] = *session
	return nil
}

func (s *Store) GetSession(_ context.Context, id string) (therapy.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return therapy.Session{}, store.ErrNotFound
	}
	return session, nil
}

func (s *Store) FindActiveSession(_ context.Context, userID string) (therapy.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, session := range s.sessions {
		if session.UserID == userID && session.IsActive {
			return session, nil
		}
	}
	return therapy.Session{}, store.ErrNotFound
}

func (s *Store) UpdateSession(_ context.Context, session *therapy.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		return store.ErrNotFound
	}
	s.sessions[session.ID] = *session
	return nil
}

func (s *Store) TouchSession(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return store.ErrNotFound
	}
	session.LastActivity = at
	s.sessions[id] = session
	return nil
}

func (s *Store) AppendExchange(_ context.Context, ex store.Exchange) (store.ExchangeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID := ex.UserMessage.SessionID
	if _, ok := s.sessions[sessionID]; !ok {
		return store.ExchangeResult{}, store.ErrNotFound
	}

	userMsg := ex.UserMessage
	userMsg.ID = uuid.NewString()
	aiMsg := ex.AIMessage
	aiMsg.ID = uuid.NewString()

	moodLog, ok := s.moodLogs[sessionID]
	if ok {
		moodLog.Mood = ex.Mood.Mood
		moodLog.Notes = ex.Mood.NotesOnUpdate
		moodLog.UpdatedAt = ex.UserMessage.Timestamp
	} else {
		moodLog = therapy.MoodLog{
			ID:             uuid.NewString(),
			UserID:         ex.Mood.UserID,
			SessionID:      sessionID,
			Mood:           ex.Mood.Mood,
			Notes:          ex.Mood.NotesOnCreate,
			SentimentScore: ex.Mood.SentimentScore,
			CreatedAt:      ex.UserMessage.Timestamp,
			UpdatedAt:      ex.UserMessage.Timestamp,
		}
	}

	suggestion := ex.Suggestion
	suggestion.ID = uuid.NewString()
	suggestion.MoodLogID = moodLog.ID

	s.messages[sessionID] = append(s.messages[sessionID], userMsg, aiMsg)
	s.moodLogs[sessionID] = moodLog
	s.suggestions[suggestion.ID] = suggestion

	return store.ExchangeResult{
		UserMessage: userMsg,
		AIMessage:   aiMsg,
		MoodLog:     moodLog,
		Suggestion:  suggestion,
	}, nil
}

func (s *Store) ListMessages(_ context.Context, sessionID string) ([]therapy.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return nil, store.ErrNotFound
	}
	messages := s.messages[sessionID]
	copied := make([]therapy.ChatMessage, len(messages))
	copy(copied, messages)
	return copied, nil
}

func (s *Store) GetMoodLog(_ context.Context, sessionID string) (therapy.MoodLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	moodLog, ok := s.moodLogs[sessionID]
	if !ok {
		return therapy.MoodLog{}, store.ErrNotFound
	}
	return moodLog, nil
}

func (s *Store) ListMoodLogs(_ context.Context, userID string) ([]therapy.MoodLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var logs []therapy.MoodLog
	for _, moodLog := range s.moodLogs {
		if moodLog.UserID == userID {
			logs = append(logs, moodLog)
		}
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].CreatedAt.Before(logs[j].CreatedAt) })
	return logs, nil
}

func (s *Store) CreateMoodLog(_ context.Context, log *therapy.MoodLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// The session ID is the log's unique slot, the empty one included, which
	// matches the unique-index behavior of the database store.
	if _, exists := s.moodLogs[log.SessionID]; exists {
		return store.ErrMoodLogExists
	}
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	log.UpdatedAt = log.CreatedAt
	s.moodLogs[log.SessionID] = *log
	return nil
}

func (s *Store) ListSuggestions(_ context.Context, userID string) ([]therapy.AISuggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var suggestions []therapy.AISuggestion
	for _, suggestion := range s.suggestions {
		if suggestion.UserID == userID {
			suggestions = append(suggestions, suggestion)
		}
	}
	sort.Slice(suggestions, func(i, j int) bool {
		return suggestions[i].GeneratedAt.Before(suggestions[j].GeneratedAt)
	})
	return suggestions, nil
}

func (s *Store) AcceptSuggestion(_ context.Context, id, userID string) (therapy.AISuggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	suggestion, ok := s.suggestions[id]
	if !ok || suggestion.UserID != userID {
		return therapy.AISuggestion{}, store.ErrNotFound
	}
	suggestion.AcceptedByUser = true
	s.suggestions[id] = suggestion
	return suggestion, nil
}

func (s *Store) ListResources(_ context.Context) ([]therapy.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resources := make([]therapy.Resource, 0, len(s.resources))
	for _, res := range s.resources {
		resources = append(resources, res)
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].CreatedAt.Before(resources[j].CreatedAt) })
	return resources, nil
}

func (s *Store) GetResource(_ context.Context, id string) (therapy.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.resources[id]
	if !ok {
		return therapy.Resource{}, store.ErrNotFound
	}
	return res, nil
}

func (s *Store) SaveResource(_ context.Context, res *therapy.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	s.resources[res.ID] = *res
	return nil
}

func (s *Store) DeleteResource(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resources[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.resources, id)
	return nil
}

func (s *Store) Stats(_ context.Context) (therapy.PlatformStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats therapy.PlatformStats
	for _, user := range s.users {
		stats.Users.Total++
		switch user.Role {
		case therapy.RoleClient:
			stats.Users.Clients++
		case therapy.RoleTherapist:
			stats.Users.Therapists++
		}
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, session := range s.sessions {
		stats.Sessions.Total++
		if session.IsActive {
			stats.Sessions.Active++
		}
		if session.IsCompleted {
			stats.Sessions.Completed++
		}
		if !session.StartTime.Before(today) {
			stats.Sessions.Today++
		}
	}

	for _, messages := range s.messages {
		stats.Messages += int64(len(messages))
	}
	stats.MoodLogs = int64(len(s.moodLogs))
	stats.Suggestions = int64(len(s.suggestions))
	stats.Resources = int64(len(s.resources))
	return stats, nil
}
