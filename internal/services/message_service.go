package services

import (
	"context"
	"strings"
	"time"

	"livedesk/internal/domain"
	"livedesk/internal/events"
	"livedesk/internal/repository"
	livedesk_errors "livedesk/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SendInput carries everything a message needs. Kind defaults to TEXT.
type SendInput struct {
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Content        string
	Kind           domain.MessageKind
	AttachmentURL  *string
	Options        []string
}

// MessageService routes messages into conversations and maintains the
// per-side unread counters. All gating happens against the current phase
// before anything is written.
type MessageService struct {
	db            *gorm.DB
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	notifier      *Notifier
}

func NewMessageService(db *gorm.DB, conversations repository.ConversationRepository, messages repository.MessageRepository, notifier *Notifier) *MessageService {
	return &MessageService{
		db:            db,
		conversations: conversations,
		messages:      messages,
		notifier:      notifier,
	}
}

func (s *MessageService) withTx(ctx context.Context, fn func(conv repository.ConversationRepository, msgs repository.MessageRepository) error) error {
	if s.db == nil {
		return fn(s.conversations, s.messages)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repository.NewConversationRepository(tx), repository.NewMessageRepository(tx))
	})
}

// Send appends a message to a conversation.
//
// Gates, in order: the kind must be one a human may use (SYSTEM and
// AUTOMATED stay with the reserved actors), the conversation must not be
// CLOSED, a customer may not send while PENDING (the queue notice covers
// that phase), and any non-customer sender must be the assigned agent or a
// reserved actor. The unread counter of the opposite side is bumped in the
// same transaction as the insert; broadcast happens strictly after commit.
func (s *MessageService) Send(ctx context.Context, in SendInput) (domain.Message, error) {
	if in.Kind == "" {
		in.Kind = domain.MessageKindText
	}
	switch in.Kind {
	case domain.MessageKindText:
	case domain.MessageKindFile:
		if in.AttachmentURL == nil {
			return domain.Message{}, livedesk_errors.ErrInvalidInput
		}
	case domain.MessageKindSystem, domain.MessageKindAutomated:
		if !domain.IsReservedActor(in.SenderID) {
			return domain.Message{}, livedesk_errors.ErrInvalidInput
		}
	default:
		return domain.Message{}, livedesk_errors.ErrInvalidInput
	}
	if strings.TrimSpace(in.Content) == "" && in.AttachmentURL == nil {
		return domain.Message{}, livedesk_errors.ErrInvalidInput
	}

	conv, err := s.conversations.GetByID(ctx, in.ConversationID)
	if err != nil {
		return domain.Message{}, err
	}

	if conv.Phase == domain.PhaseClosed {
		return domain.Message{}, livedesk_errors.ErrConversationClosed
	}

	side := conv.SenderSide(in.SenderID)
	if side == domain.SideCustomer && conv.Phase == domain.PhasePending {
		return domain.Message{}, livedesk_errors.ErrAwaitingAgent
	}
	if side == domain.SideAgent && !domain.IsReservedActor(in.SenderID) {
		if conv.AgentID == nil || *conv.AgentID != in.SenderID {
			return domain.Message{}, livedesk_errors.ErrNotAuthorized
		}
	}

	msg := domain.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       in.SenderID,
		Kind:           in.Kind,
		Content:        in.Content,
		AttachmentURL:  in.AttachmentURL,
		Options:        in.Options,
		SentAt:         time.Now(),
	}
	err = s.withTx(ctx, func(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository) error {
		if err := msgRepo.Create(ctx, &msg); err != nil {
			return err
		}
		return convRepo.RecordMessage(ctx, conv.ID, msg.SentAt, side.Opposite())
	})
	if err != nil {
		return domain.Message{}, err
	}

	s.notifier.Notify(events.EventTypeMessageCreated, events.NewMessagePayload(conv, msg),
		events.ConversationChannel(conv.ID),
		events.CustomerChannel(conv.CustomerID),
		events.ChannelAgents)
	s.notifier.Notify(events.EventTypeConversationChanged, nil, events.ChannelListChanged)

	return msg, nil
}

// MarkRead flags the counterpart's messages as read and zeroes the reader's
// unread counter. Reading a CLOSED conversation is allowed; the transcript
// outlives the conversation.
func (s *MessageService) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) error {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}

	reader := conv.SenderSide(readerID)
	if reader == domain.SideAgent && !domain.IsReservedActor(readerID) {
		if conv.AgentID == nil || *conv.AgentID != readerID {
			return livedesk_errors.ErrNotAuthorized
		}
	}

	now := time.Now()
	err = s.withTx(ctx, func(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository) error {
		if err := msgRepo.MarkRead(ctx, conv.ID, reader, conv.CustomerID, now); err != nil {
			return err
		}
		return convRepo.ResetUnread(ctx, conv.ID, reader)
	})
	if err != nil {
		return err
	}

	s.notifier.Notify(events.EventTypeMessagesRead,
		map[string]interface{}{"conversation_id": conv.ID, "reader_id": readerID, "read_at": now},
		events.ConversationChannel(conv.ID),
		events.ChannelAgents)

	return nil
}

// ListMessages returns the transcript oldest first. Customers may only read
// their own conversations; agents may read any.
func (s *MessageService) ListMessages(ctx context.Context, conversationID, requesterID uuid.UUID, limit int) ([]domain.Message, domain.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, domain.Conversation{}, err
	}

	role, _ := RoleFromContext(ctx)
	if conv.CustomerID != requesterID && role == domain.UserRoleCustomer {
		return nil, domain.Conversation{}, livedesk_errors.ErrNotAuthorized
	}

	msgs, err := s.messages.ListChronological(ctx, conversationID, limit)
	if err != nil {
		return nil, domain.Conversation{}, err
	}
	return msgs, conv, nil
}

// Conversation resolves the parent thread, mainly for view shaping.
func (s *MessageService) Conversation(ctx context.Context, conversationID uuid.UUID) (domain.Conversation, error) {
	return s.conversations.GetByID(ctx, conversationID)
}

// ListLatest returns the newest page of the transcript for inbox previews.
func (s *MessageService) ListLatest(ctx context.Context, conversationID uuid.UUID, limit int) ([]domain.Message, error) {
	return s.messages.ListLatestFirst(ctx, conversationID, limit)
}
