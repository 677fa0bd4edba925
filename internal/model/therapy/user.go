package therapy

import "time"

// Role is the capability level granted by the identity layer.
type Role string

const (
	RoleClient    Role = "client"
	RoleTherapist Role = "therapist"
	RoleAdmin     Role = "admin"
)

// Valid reports whether the role is one of the known capability levels.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleTherapist, RoleAdmin:
		return true
	}
	return false
}

// User carries the identity attributes the engine needs. Credentials and
// verification live in the upstream identity service.
type User struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Username   string    `gorm:"size:150;uniqueIndex" json:"username"`
	Email      string    `gorm:"size:254" json:"email,omitempty"`
	Role       Role      `gorm:"size:10" json:"role"`
	Bio        string    `gorm:"type:text" json:"bio,omitempty"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AgentUsername is the well-known identity used as sender for AI-authored
// messages. It is provisioned once at startup, never per request.
const AgentUsername = "AI_Bot"
