package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        *string   `gorm:"type:citext;uniqueIndex:idx_users_email" json:"email,omitempty"`
	DisplayName  string    `gorm:"type:text;not null" json:"display_name"`
	PasswordHash string    `gorm:"type:text;not null" json:"-"`
	Role         UserRole  `gorm:"type:user_role;not null;default:'CUSTOMER'" json:"role"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// IsAgent reports whether the user may handle support conversations.
func (u User) IsAgent() bool {
	return u.Role == UserRoleAgent || u.Role == UserRoleAdmin
}
