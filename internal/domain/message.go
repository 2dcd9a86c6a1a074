package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message belongs to exactly one conversation. Rows are append-only; only
// ReadAt is ever updated.
type Message struct {
	ID             uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID   `gorm:"type:uuid;not null;index:idx_messages_history,priority:1" json:"conversation_id"`
	SenderID       uuid.UUID   `gorm:"type:uuid;not null" json:"sender_id"`
	Kind           MessageKind `gorm:"type:message_kind;not null;default:'TEXT'" json:"kind"`
	Content        string      `gorm:"type:text;not null" json:"content"`
	AttachmentURL  *string     `gorm:"type:text" json:"attachment_url,omitempty"`
	Options        []string    `gorm:"type:jsonb;serializer:json" json:"options,omitempty"`
	SentAt         time.Time   `gorm:"not null;index:idx_messages_history,priority:2" json:"sent_at"`
	ReadAt         *time.Time  `json:"read_at,omitempty"`
}
