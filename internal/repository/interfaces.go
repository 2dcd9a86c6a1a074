package repository

import (
	"context"
	"time"

	"livedesk/internal/domain"

	"github.com/google/uuid"
)

// ConversationRepository is the persistence gateway for conversations.
// All state transitions are conditional writes against the latest persisted
// row; callers must treat RowsAffected-style failures as lost races.
type ConversationRepository interface {
	Create(ctx context.Context, c *domain.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error)

	// FindActiveByCustomer returns the customer's single PENDING or OPEN
	// conversation, if any.
	FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) (domain.Conversation, error)

	// FindOpenByAgent returns the agent's single OPEN conversation, if any.
	FindOpenByAgent(ctx context.Context, agentID uuid.UUID) (domain.Conversation, error)

	FindPendingOldestFirst(ctx context.Context) ([]domain.Conversation, error)
	CountPending(ctx context.Context) (int64, error)

	UpdateSubject(ctx context.Context, id uuid.UUID, subject string) error

	// Assign performs the compare-and-swap to OPEN: the write only lands if
	// the row still has fromPhase and fromAgent. A lost race yields
	// ErrAlreadyAssigned; a busy target agent yields ErrAgentBusy.
	Assign(ctx context.Context, id, agentID uuid.UUID, fromPhase domain.Phase, fromAgent *uuid.UUID) error

	// Close moves a PENDING or OPEN conversation to CLOSED. Yields
	// ErrConversationClosed if the row is already terminal.
	Close(ctx context.Context, id uuid.UUID) error

	// Requeue returns an OPEN conversation held by agentID to PENDING with
	// the agent cleared, keeping CreatedAt so the queue position is kept.
	Requeue(ctx context.Context, id, agentID uuid.UUID) error

	// RecordMessage bumps LastMessageAt and increments the unread counter
	// of the side the message is directed at.
	RecordMessage(ctx context.Context, id uuid.UUID, at time.Time, unreadFor domain.Side) error

	ResetUnread(ctx context.Context, id uuid.UUID, side domain.Side) error
}

type MessageRepository interface {
	Create(ctx context.Context, m *domain.Message) error

	// ListChronological returns up to limit messages in commit order.
	ListChronological(ctx context.Context, conversationID uuid.UUID, limit int) ([]domain.Message, error)

	// ListLatestFirst returns up to limit messages, newest first.
	ListLatestFirst(ctx context.Context, conversationID uuid.UUID, limit int) ([]domain.Message, error)

	// MarkRead stamps ReadAt on every unread message directed at the given
	// side. customerID anchors which senders count as the customer side.
	MarkRead(ctx context.Context, conversationID uuid.UUID, reader domain.Side, customerID uuid.UUID, at time.Time) error
}

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}
