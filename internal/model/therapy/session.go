package therapy

import "time"

// Session is a bounded conversation window between a client and a therapist
// or the AI agent. At most one session per user may be active at any instant;
// an idle session expires lazily on next access, never by a background sweep.
type Session struct {
	ID             string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID         string     `gorm:"type:varchar(36);index" json:"userId"`
	TherapistID    *string    `gorm:"type:varchar(36)" json:"therapistId,omitempty"`
	Topic          string     `gorm:"size:100" json:"topic,omitempty"`
	IsAiControlled bool       `json:"isAiControlled"`
	IsActive       bool       `json:"isActive"`
	IsCompleted    bool       `json:"isCompleted"`
	AISummary      string     `gorm:"type:text" json:"aiSummary,omitempty"`
	StartTime      time.Time  `json:"startTime"`
	EndTime        *time.Time `json:"endTime,omitempty"`
	LastActivity   time.Time  `json:"lastActivity"`
}

// IdleFor reports how long the session has been without activity at now.
func (s Session) IdleFor(now time.Time) time.Duration {
	return now.Sub(s.LastActivity)
}

// OwnedBy reports whether the user may read this session: the client it
// belongs to, the assigned therapist, or an admin.
func (s Session) OwnedBy(u User) bool {
	if u.Role == RoleAdmin {
		return true
	}
	if s.UserID == u.ID {
		return true
	}
	return s.TherapistID != nil && *s.TherapistID == u.ID
}
