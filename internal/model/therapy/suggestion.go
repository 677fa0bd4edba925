package therapy

import "time"

// SuggestionSource tells where a suggestion came from.
type SuggestionSource string

const (
	SourceMood   SuggestionSource = "mood"
	SourceChat   SuggestionSource = "chat"
	SourceManual SuggestionSource = "manual"
)

// AISuggestion is a persisted piece of AI-generated advice tied to a mood
// log. Suggestions are append-only history; only AcceptedByUser may change
// after creation, through the user-facing accept action.
type AISuggestion struct {
	ID             string           `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID         string           `gorm:"type:varchar(36);index" json:"userId"`
	MoodLogID      string           `gorm:"type:varchar(36);index" json:"moodLogId"`
	SuggestionText string           `gorm:"type:text" json:"suggestionText"`
	SourceType     SuggestionSource `gorm:"size:50" json:"sourceType"`
	AcceptedByUser bool             `json:"acceptedByUser"`
	GeneratedAt    time.Time        `json:"generatedAt"`
}
