package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a single support thread between one customer and at most
// one agent. The customer is fixed at creation; the agent is set by
// assignment and retained as history after close.
type Conversation struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_conversations_customer_phase,priority:1" json:"customer_id"`
	AgentID          *uuid.UUID `gorm:"type:uuid;index:idx_conversations_agent_phase,priority:1" json:"agent_id,omitempty"`
	Phase            Phase      `gorm:"type:conversation_phase;not null;default:'PENDING';index:idx_conversations_customer_phase,priority:2;index:idx_conversations_agent_phase,priority:2;index:idx_conversations_queue,priority:1" json:"phase"`
	Subject          *string    `gorm:"type:text" json:"subject,omitempty"`
	LastMessageAt    *time.Time `json:"last_message_at,omitempty"`
	UnreadByCustomer int        `gorm:"not null;default:0" json:"unread_by_customer"`
	UnreadByAgent    int        `gorm:"not null;default:0" json:"unread_by_agent"`
	CreatedAt        time.Time  `gorm:"default:CURRENT_TIMESTAMP;index:idx_conversations_queue,priority:2" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// IsActive reports whether the conversation still blocks the customer from
// opening another one.
func (c Conversation) IsActive() bool {
	return c.Phase == PhasePending || c.Phase == PhaseOpen
}

// SenderSide classifies a sender relative to this conversation. Anyone who
// is not the customer (the agent, the system, the responder) speaks from the
// agent side.
func (c Conversation) SenderSide(senderID uuid.UUID) Side {
	if senderID == c.CustomerID {
		return SideCustomer
	}
	return SideAgent
}
