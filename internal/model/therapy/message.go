package therapy

import "time"

// ChatMessage is one turn inside a session. Messages are append-only;
// creation order defines conversation order and a human message always
// sorts strictly before its AI reply.
type ChatMessage struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	SessionID string    `gorm:"type:varchar(36);index" json:"sessionId"`
	SenderID  *string   `gorm:"type:varchar(36)" json:"senderId,omitempty"`
	Content   string    `gorm:"type:text" json:"content"`
	IsAi      bool      `json:"isAi"`
	Sentiment string    `gorm:"size:50" json:"sentiment,omitempty"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
}
