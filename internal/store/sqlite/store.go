// Package sqlite implements store.Store on gorm over SQLite. A partial
// unique index enforces one active session per user and the exchange write
// set commits inside a single transaction.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/daem-platform/daem-backend/internal/model/therapy"
	"github.com/daem-platform/daem-backend/internal/store"
)

// Store wraps the gorm handle.
type Store struct {
	db *gorm.DB
}

// Open connects to the SQLite database at path and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.AutoMigrate(
		&therapy.User{},
		&therapy.Session{},
		&therapy.ChatMessage{},
		&therapy.MoodLog{},
		&therapy.AISuggestion{},
		&therapy.Resource{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	// The uniqueness invariant only covers active sessions, which AutoMigrate
	// cannot express; SQLite partial indexes can.
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_one_active ON sessions(user_id) WHERE is_active = true",
	).Error; err != nil {
		return nil, fmt.Errorf("create active-session index: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (therapy.User, error) {
	var user therapy.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return therapy.User{}, translate(err)
	}
	return user, nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (therapy.User, error) {
	var user therapy.User
	err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if err != nil {
		return therapy.User{}, translate(err)
	}
	return user, nil
}

func (s *Store) SaveUser(ctx context.Context, user *therapy.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	return translate(s.db.WithContext(ctx).Save(user).Error)
}

func (s *Store) CreateSession(ctx context.Context, session *therapy.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	err := s.db.WithContext(ctx).Create(session).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return store.ErrActiveSessionExists
	}
	return translate(err)
}

func (s *Store) GetSession(ctx context.Context, id string) (therapy.Session, error) {
	var session therapy.Session
	err := s.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if err != nil {
		return therapy.Session{}, translate(err)
	}
	return session, nil
}

func (s *Store) FindActiveSession(ctx context.Context, userID string) (therapy.Session, error) {
	var session therapy.Session
	err := s.db.WithContext(ctx).
		First(&session, "user_id = ? AND is_active = ?", userID, true).Error
	if err != nil {
		return therapy.Session{}, translate(err)
	}
	return session, nil
}

func (s *Store) UpdateSession(ctx context.Context, session *therapy.Session) error {
	res := s.db.WithContext(ctx).Model(&therapy.Session{}).
		Where("id = ?", session.ID).
		Select("*").Updates(session)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) TouchSession(ctx context.Context, id string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&therapy.Session{}).
		Where("id = ?", id).
		Update("last_activity", at)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) AppendExchange(ctx context.Context, ex store.Exchange) (store.ExchangeResult, error) {
	var result store.ExchangeResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sessionID := ex.UserMessage.SessionID
		var count int64
		if err := tx.Model(&therapy.Session{}).Where("id = ?", sessionID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return store.ErrNotFound
		}

		userMsg := ex.UserMessage
		userMsg.ID = uuid.NewString()
		aiMsg := ex.AIMessage
		aiMsg.ID = uuid.NewString()
		if err := tx.Create(&userMsg).Error; err != nil {
			return err
		}
		if err := tx.Create(&aiMsg).Error; err != nil {
			return err
		}

		// Upsert keyed on the session's unique mood-log slot. The sentiment
		// score is deliberately absent from the update list: it stays pinned
		// to the session's first analyzed message.
		moodLog := therapy.MoodLog{
			ID:             uuid.NewString(),
			UserID:         ex.Mood.UserID,
			SessionID:      sessionID,
			Mood:           ex.Mood.Mood,
			Notes:          ex.Mood.NotesOnCreate,
			SentimentScore: ex.Mood.SentimentScore,
			CreatedAt:      ex.UserMessage.Timestamp,
			UpdatedAt:      ex.UserMessage.Timestamp,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"mood":       ex.Mood.Mood,
				"notes":      ex.Mood.NotesOnUpdate,
				"updated_at": ex.UserMessage.Timestamp,
			}),
		}).Create(&moodLog).Error; err != nil {
			return err
		}
		// Re-read into a fresh struct: when the conflict branch kept the
		// existing row, moodLog still carries the losing insert's primary key
		// and gorm would add it to the WHERE clause.
		var stored therapy.MoodLog
		if err := tx.First(&stored, "session_id = ?", sessionID).Error; err != nil {
			return err
		}

		suggestion := ex.Suggestion
		suggestion.ID = uuid.NewString()
		suggestion.MoodLogID = stored.ID
		if err := tx.Create(&suggestion).Error; err != nil {
			return err
		}

		result = store.ExchangeResult{
			UserMessage: userMsg,
			AIMessage:   aiMsg,
			MoodLog:     stored,
			Suggestion:  suggestion,
		}
		return nil
	})
	if err != nil {
		return store.ExchangeResult{}, translate(err)
	}
	return result, nil
}

func (s *Store) ListMessages(ctx context.Context, sessionID string) ([]therapy.ChatMessage, error) {
	var messages []therapy.ChatMessage
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp ASC").
		Find(&messages).Error
	if err != nil {
		return nil, translate(err)
	}
	return messages, nil
}

func (s *Store) GetMoodLog(ctx context.Context, sessionID string) (therapy.MoodLog, error) {
	var moodLog therapy.MoodLog
	err := s.db.WithContext(ctx).First(&moodLog, "session_id = ?", sessionID).Error
	if err != nil {
		return therapy.MoodLog{}, translate(err)
	}
	return moodLog, nil
}

func (s *Store) ListMoodLogs(ctx context.Context, userID string) ([]therapy.MoodLog, error) {
	var logs []therapy.MoodLog
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&logs).Error
	if err != nil {
		return nil, translate(err)
	}
	return logs, nil
}

func (s *Store) CreateMoodLog(ctx context.Context, log *therapy.MoodLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	err := s.db.WithContext(ctx).Create(log).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return store.ErrMoodLogExists
	}
	return translate(err)
}

func (s *Store) ListSuggestions(ctx context.Context, userID string) ([]therapy.AISuggestion, error) {
	var suggestions []therapy.AISuggestion
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("generated_at ASC").
		Find(&suggestions).Error
	if err != nil {
		return nil, translate(err)
	}
	return suggestions, nil
}

func (s *Store) AcceptSuggestion(ctx context.Context, id, userID string) (therapy.AISuggestion, error) {
	var suggestion therapy.AISuggestion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&suggestion, "id = ? AND user_id = ?", id, userID).Error; err != nil {
			return err
		}
		suggestion.AcceptedByUser = true
		return tx.Model(&suggestion).Update("accepted_by_user", true).Error
	})
	if err != nil {
		return therapy.AISuggestion{}, translate(err)
	}
	return suggestion, nil
}

func (s *Store) ListResources(ctx context.Context) ([]therapy.Resource, error) {
	var resources []therapy.Resource
	err := s.db.WithContext(ctx).Order("created_at ASC").Find(&resources).Error
	if err != nil {
		return nil, translate(err)
	}
	return resources, nil
}

func (s *Store) GetResource(ctx context.Context, id string) (therapy.Resource, error) {
	var res therapy.Resource
	err := s.db.WithContext(ctx).First(&res, "id = ?", id).Error
	if err != nil {
		return therapy.Resource{}, translate(err)
	}
	return res, nil
}

func (s *Store) SaveResource(ctx context.Context, res *therapy.Resource) error {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	return translate(s.db.WithContext(ctx).Save(res).Error)
}

func (s *Store) DeleteResource(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&therapy.Resource{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Stats(ctx context.Context) (therapy.PlatformStats, error) {
	var stats therapy.PlatformStats
	db := s.db.WithContext(ctx)

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.Users.Total, db.Model(&therapy.User{})},
		{&stats.Users.Clients, db.Model(&therapy.User{}).Where("role = ?", therapy.RoleClient)},
		{&stats.Users.Therapists, db.Model(&therapy.User{}).Where("role = ?", therapy.RoleTherapist)},
		{&stats.Sessions.Total, db.Model(&therapy.Session{})},
		{&stats.Sessions.Active, db.Model(&therapy.Session{}).Where("is_active = ?", true)},
		{&stats.Sessions.Completed, db.Model(&therapy.Session{}).Where("is_completed = ?", true)},
		{&stats.Sessions.Today, db.Model(&therapy.Session{}).Where("start_time >= ?", time.Now().UTC().Truncate(24*time.Hour))},
		{&stats.Messages, db.Model(&therapy.ChatMessage{})},
		{&stats.MoodLogs, db.Model(&therapy.MoodLog{})},
		{&stats.Suggestions, db.Model(&therapy.AISuggestion{})},
		{&stats.Resources, db.Model(&therapy.Resource{})},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return therapy.PlatformStats{}, translate(err)
		}
	}
	return stats, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}
