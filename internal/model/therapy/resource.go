package therapy

import "time"

// Resource is a catalog entry the AI can recommend based on tags or mood.
type Resource struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title       string    `gorm:"size:255" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Link        string    `gorm:"size:500" json:"link"`
	Category    string    `gorm:"size:100" json:"category"`
	Tags        string    `gorm:"size:255" json:"tags,omitempty"`
	Language    string    `gorm:"size:50;default:ar" json:"language"`
	CreatedAt   time.Time `json:"createdAt"`
}
