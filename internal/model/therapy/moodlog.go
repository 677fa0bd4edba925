package therapy

import "time"

// MoodLog is the single current emotional-state record of a session, derived
// from its most recently analyzed message. It is updated in place on every
// exchange; the sentiment score stays pinned to the first analyzed message.
type MoodLog struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID         string    `gorm:"type:varchar(36);index" json:"userId"`
	SessionID      string    `gorm:"type:varchar(36);uniqueIndex" json:"sessionId"`
	Mood           string    `gorm:"size:50" json:"mood"`
	Notes          string    `gorm:"type:text" json:"notes,omitempty"`
	SentimentScore float64   `json:"sentimentScore"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
