// Package session owns the session lifecycle: find-active-or-create with
// lazy inactivity expiry, read-only peeks and explicit close. Expiry is
// evaluated on access only; there is no background sweep.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/daem-platform/daem-backend/internal/model/therapy"
	"github.com/daem-platform/daem-backend/internal/store"
)

// DefaultIdleTimeout is how long a session may sit without activity before
// the next access treats it as expired.
const DefaultIdleTimeout = 30 * time.Minute

// ErrNoActiveSession is returned by Peek when the user has no live session,
// including the case where the previous one just expired.
var ErrNoActiveSession = errors.New("no active session")

// Manager drives session state transitions against the session store.
type Manager struct {
	sessions store.SessionStore
	idle     time.Duration
	now      func() time.Time
	log      *logrus.Entry
}

// NewManager builds a manager with the given inactivity threshold; zero or
// negative falls back to DefaultIdleTimeout.
func NewManager(sessions store.SessionStore, idle time.Duration) *Manager {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Manager{
		sessions: sessions,
		idle:     idle,
		now:      time.Now,
		log:      logrus.WithField("component", "session"),
	}
}

// Acquire returns the user's active session, creating one when none exists
// or when the existing one sat idle past the threshold. The second return
// value tells whether a new session was created.
func (m *Manager) Acquire(ctx context.Context, user therapy.User) (therapy.Session, bool, error) {
	now := m.now()

	current, err := m.sessions.FindActiveSession(ctx, user.ID)
	if errors.Is(err, store.ErrNotFound) {
		return m.startSession(ctx, user, now)
	}
	if err != nil {
		return therapy.Session{}, false, fmt.Errorf("lookup active session: %w", err)
	}

	if current.IdleFor(now) > m.idle {
		if err := m.expire(ctx, &current, now); err != nil {
			return therapy.Session{}, false, err
		}
		// The caller must never observe "expired but not replaced": either
		// the fresh session comes back or the whole call reports an error.
		return m.startSession(ctx, user, now)
	}

	current.LastActivity = now
	if err := m.sessions.TouchSession(ctx, current.ID, now); err != nil {
		return therapy.Session{}, false, fmt.Errorf("refresh session activity: %w", err)
	}
	return current, false, nil
}

// Peek applies the same expiry evaluation as Acquire but never creates a
// session: it refreshes and returns the live one, or ErrNoActiveSession.
func (m *Manager) Peek(ctx context.Context, user therapy.User) (therapy.Session, error) {
	now := m.now()

	current, err := m.sessions.FindActiveSession(ctx, user.ID)
	if errors.Is(err, store.ErrNotFound) {
		return therapy.Session{}, ErrNoActiveSession
	}
	if err != nil {
		return therapy.Session{}, fmt.Errorf("lookup active session: %w", err)
	}

	if current.IdleFor(now) > m.idle {
		if err := m.expire(ctx, &current, now); err != nil {
			return therapy.Session{}, err
		}
		return therapy.Session{}, ErrNoActiveSession
	}

	current.LastActivity = now
	if err := m.sessions.TouchSession(ctx, current.ID, now); err != nil {
		return therapy.Session{}, fmt.Errorf("refresh session activity: %w", err)
	}
	return current, nil
}

// Close ends the session. Idempotent: closing an already closed session
// returns it unchanged.
func (m *Manager) Close(ctx context.Context, sessionID string) (therapy.Session, error) {
	session, err := m.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return therapy.Session{}, err
	}
	if !session.IsActive && session.EndTime != nil {
		return session, nil
	}

	now := m.now()
	session.IsActive = false
	if session.EndTime == nil {
		session.EndTime = &now
	}
	if err := m.sessions.UpdateSession(ctx, &session); err != nil {
		return therapy.Session{}, fmt.Errorf("close session: %w", err)
	}
	m.log.WithField("session", session.ID).Info("session closed")
	return session, nil
}

func (m *Manager) startSession(ctx context.Context, user therapy.User, now time.Time) (therapy.Session, bool, error) {
	fresh := therapy.Session{
		UserID:         user.ID,
		IsActive:       true,
		IsAiControlled: true,
		StartTime:      now,
		LastActivity:   now,
	}
	err := m.sessions.CreateSession(ctx, &fresh)
	if errors.Is(err, store.ErrActiveSessionExists) {
		// Lost a double-submit race: adopt the winner instead of failing.
		winner, lookupErr := m.sessions.FindActiveSession(ctx, user.ID)
		if lookupErr != nil {
			return therapy.Session{}, false, fmt.Errorf("adopt concurrent session: %w", lookupErr)
		}
		return winner, false, nil
	}
	if err != nil {
		return therapy.Session{}, false, fmt.Errorf("create session: %w", err)
	}
	m.log.WithFields(logrus.Fields{"session": fresh.ID, "user": user.ID}).Info("session started")
	return fresh, true, nil
}

func (m *Manager) expire(ctx context.Context, session *therapy.Session, now time.Time) error {
	session.IsActive = false
	session.EndTime = &now
	if err := m.sessions.UpdateSession(ctx, session); err != nil {
		return fmt.Errorf("expire idle session: %w", err)
	}
	m.log.WithField("session", session.ID).Info("session expired after inactivity")
	return nil
}
