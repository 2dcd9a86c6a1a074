package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"livedesk/internal/domain"
	"livedesk/internal/events"
	"livedesk/internal/repository"
	livedesk_errors "livedesk/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LifecycleService owns the conversation state machine:
// PENDING -> OPEN via assignment, PENDING|OPEN -> CLOSED via close, CLOSED
// terminal. Per-conversation serialization comes from conditional writes on
// the row, never from in-process locks held across broadcasts.
type LifecycleService struct {
	db            *gorm.DB
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	users         repository.UserRepository
	notifier      *Notifier
}

func NewLifecycleService(db *gorm.DB, conversations repository.ConversationRepository, messages repository.MessageRepository, users repository.UserRepository, notifier *Notifier) *LifecycleService {
	return &LifecycleService{
		db:            db,
		conversations: conversations,
		messages:      messages,
		users:         users,
		notifier:      notifier,
	}
}

func (s *LifecycleService) withTx(ctx context.Context, fn func(conv repository.ConversationRepository, msgs repository.MessageRepository) error) error {
	if s.db == nil {
		return fn(s.conversations, s.messages)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repository.NewConversationRepository(tx), repository.NewMessageRepository(tx))
	})
}

// CreateOrGet is the single entry point for opening a support thread. It is
// idempotent per customer: an existing OPEN conversation is returned as is,
// a PENDING one gets its subject refreshed, and only when neither exists is
// a fresh PENDING conversation created and announced to agents.
func (s *LifecycleService) CreateOrGet(ctx context.Context, customerID uuid.UUID, subject string) (domain.Conversation, error) {
	if _, err := s.users.GetByID(ctx, customerID); err != nil {
		return domain.Conversation{}, err
	}

	conv, err := s.conversations.FindActiveByCustomer(ctx, customerID)
	if err == nil {
		if conv.Phase == domain.PhasePending && subject != "" {
			if err := s.conversations.UpdateSubject(ctx, conv.ID, subject); err == nil {
				conv.Subject = &subject
			} else if !errors.Is(err, livedesk_errors.ErrNotFound) {
				return domain.Conversation{}, err
			}
		}
		return conv, nil
	}
	if !errors.Is(err, livedesk_errors.ErrNotFound) {
		return domain.Conversation{}, err
	}

	now := time.Now()
	conv = domain.Conversation{
		ID:         uuid.New(),
		CustomerID: customerID,
		Phase:      domain.PhasePending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if subject != "" {
		conv.Subject = &subject
	}

	if err := s.conversations.Create(ctx, &conv); err != nil {
		if errors.Is(err, livedesk_errors.ErrAlreadyExists) {
			// Lost the per-customer race; the winner's row is the one.
			return s.conversations.FindActiveByCustomer(ctx, customerID)
		}
		return domain.Conversation{}, err
	}

	s.notifier.Notify(events.EventTypeConversationCreated, conv,
		events.ChannelQueue, events.ChannelAgents)
	s.notifier.Notify(events.EventTypeConversationChanged, nil, events.ChannelListChanged)

	return conv, nil
}

// Assign connects an agent to a conversation. The busy-agent rule is
// evaluated against the target agent; assigning an already-OPEN
// conversation to a different agent is a transfer.
func (s *LifecycleService) Assign(ctx context.Context, conversationID, agentID uuid.UUID) (domain.Conversation, error) {
	agent, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		return domain.Conversation{}, err
	}
	if !agent.IsAgent() || !agent.IsActive {
		return domain.Conversation{}, livedesk_errors.ErrNotAuthorized
	}

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return domain.Conversation{}, err
	}
	if conv.Phase == domain.PhaseClosed {
		return domain.Conversation{}, livedesk_errors.ErrConversationClosed
	}

	// Fast synchronous busy check. The partial unique index on
	// (agent_id) WHERE phase = 'OPEN' is the authoritative guard at commit.
	if open, err := s.conversations.FindOpenByAgent(ctx, agentID); err == nil {
		if open.ID != conv.ID {
			return domain.Conversation{}, livedesk_errors.ErrAgentBusy
		}
	} else if !errors.Is(err, livedesk_errors.ErrNotFound) {
		return domain.Conversation{}, err
	}

	noticeText := s.assignmentNotice(ctx, conv, agent)

	var notice domain.Message
	err = s.withTx(ctx, func(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository) error {
		if err := convRepo.Assign(ctx, conv.ID, agent.ID, conv.Phase, conv.AgentID); err != nil {
			return err
		}
		notice, err = appendNotice(ctx, convRepo, msgRepo, conv, domain.SystemUserID, domain.MessageKindSystem, noticeText, nil, domain.SideCustomer)
		return err
	})
	if err != nil {
		return domain.Conversation{}, err
	}

	conv.Phase = domain.PhaseOpen
	conv.AgentID = &agent.ID
	conv.UnreadByCustomer++
	conv.LastMessageAt = &notice.SentAt

	s.notifier.Notify(events.EventTypeConversationAssigned, conv,
		events.ConversationChannel(conv.ID),
		events.CustomerChannel(conv.CustomerID),
		events.ChannelAgents)
	s.notifier.Notify(events.EventTypeMessageCreated, events.NewMessagePayload(conv, notice),
		events.ConversationChannel(conv.ID),
		events.CustomerChannel(conv.CustomerID),
		events.ChannelAgents)
	s.notifier.Notify(events.EventTypeConversationChanged, nil, events.ChannelListChanged)

	return conv, nil
}

// assignmentNotice picks the user-facing template: first assignment,
// transfer between agents, or a reopen by the agent already holding it.
func (s *LifecycleService) assignmentNotice(ctx context.Context, conv domain.Conversation, agent domain.User) string {
	switch {
	case conv.AgentID == nil:
		return fmt.Sprintf("%s joined the conversation.", agent.DisplayName)
	case *conv.AgentID == agent.ID:
		return fmt.Sprintf("%s resumed the conversation.", agent.DisplayName)
	default:
		previousName := "another agent"
		if previous, err := s.users.GetByID(ctx, *conv.AgentID); err == nil {
			previousName = previous.DisplayName
		}
		return fmt.Sprintf("Conversation transferred from %s to %s.", previousName, agent.DisplayName)
	}
}

// Close is the agent-initiated close. Any agent may close any conversation.
func (s *LifecycleService) Close(ctx context.Context, conversationID, agentID uuid.UUID) (domain.Conversation, error) {
	agent, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		return domain.Conversation{}, err
	}
	if !agent.IsAgent() {
		return domain.Conversation{}, livedesk_errors.ErrNotAuthorized
	}

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return domain.Conversation{}, err
	}
	if conv.Phase == domain.PhaseClosed {
		return domain.Conversation{}, livedesk_errors.ErrConversationClosed
	}

	var notice domain.Message
	err = s.withTx(ctx, func(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository) error {
		if err := convRepo.Close(ctx, conv.ID); err != nil {
			return err
		}
		text := fmt.Sprintf("%s closed the conversation.", agent.DisplayName)
		notice, err = appendNotice(ctx, convRepo, msgRepo, conv, domain.SystemUserID, domain.MessageKindSystem, text, nil, domain.SideCustomer)
		return err
	})
	if err != nil {
		return domain.Conversation{}, err
	}

	conv.Phase = domain.PhaseClosed

	s.notifier.Notify(events.EventTypeConversationClosed, conv,
		events.ConversationChannel(conv.ID),
		events.CustomerChannel(conv.CustomerID),
		events.ChannelAgents)
	s.notifier.Notify(events.EventTypeMessageCreated, events.NewMessagePayload(conv, notice),
		events.ConversationChannel(conv.ID),
		events.CustomerChannel(conv.CustomerID),
		events.ChannelAgents)
	s.notifier.Notify(events.EventTypeConversationChanged, nil, events.ChannelListChanged)

	return conv, nil
}

// CloseByCustomer is the customer-initiated abandonment. Only the
// conversation's own customer may invoke it.
func (s *LifecycleService) CloseByCustomer(ctx context.Context, conversationID, customerID uuid.UUID) (domain.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return domain.Conversation{}, err
	}
	if conv.CustomerID != customerID {
		return domain.Conversation{}, livedesk_errors.ErrNotAuthorized
	}
	if conv.Phase == domain.PhaseClosed {
		return domain.Conversation{}, livedesk_errors.ErrConversationClosed
	}

	var notice *domain.Message
	err = s.withTx(ctx, func(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository) error {
		if err := convRepo.Close(ctx, conv.ID); err != nil {
			return err
		}
		if conv.AgentID != nil {
			n, err := appendNotice(ctx, convRepo, msgRepo, conv, domain.SystemUserID, domain.MessageKindSystem, "Customer left the conversation.", nil, domain.SideAgent)
			if err != nil {
				return err
			}
			notice = &n
		}
		return nil
	})
	if err != nil {
		return domain.Conversation{}, err
	}

	conv.Phase = domain.PhaseClosed

	s.notifier.Notify(events.EventTypeConversationClosed, conv,
		events.ConversationChannel(conv.ID),
		events.ChannelAgents)
	if notice != nil {
		s.notifier.Notify(events.EventTypeMessageCreated, events.NewMessagePayload(conv, *notice),
			events.ConversationChannel(conv.ID),
			events.ChannelAgents)
	}
	s.notifier.Notify(events.EventTypeConversationChanged, nil, events.ChannelListChanged)

	return conv, nil
}

// ReleaseAgent deactivates an agent and returns any OPEN conversation they
// hold to the front of the queue (CreatedAt is kept, so FIFO order is too).
func (s *LifecycleService) ReleaseAgent(ctx context.Context, agentID uuid.UUID) error {
	agent, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		return err
	}
	if !agent.IsAgent() {
		return livedesk_errors.ErrNotAuthorized
	}

	if err := s.users.SetActive(ctx, agentID, false); err != nil {
		return err
	}

	conv, err := s.conversations.FindOpenByAgent(ctx, agentID)
	if err != nil {
		if errors.Is(err, livedesk_errors.ErrNotFound) {
			return nil
		}
		return err
	}

	var notice domain.Message
	err = s.withTx(ctx, func(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository) error {
		if err := convRepo.Requeue(ctx, conv.ID, agentID); err != nil {
			return err
		}
		notice, err = appendNotice(ctx, convRepo, msgRepo, conv, domain.SystemUserID, domain.MessageKindSystem, "You have been returned to the queue. The next available agent will join shortly.", nil, domain.SideCustomer)
		return err
	})
	if err != nil {
		return err
	}

	conv.Phase = domain.PhasePending
	conv.AgentID = nil

	s.notifier.Notify(events.EventTypeConversationRequeued, conv,
		events.ConversationChannel(conv.ID),
		events.CustomerChannel(conv.CustomerID),
		events.ChannelQueue,
		events.ChannelAgents)
	s.notifier.Notify(events.EventTypeMessageCreated, events.NewMessagePayload(conv, notice),
		events.ConversationChannel(conv.ID),
		events.CustomerChannel(conv.CustomerID),
		events.ChannelAgents)
	s.notifier.Notify(events.EventTypeConversationChanged, nil, events.ChannelListChanged)

	return nil
}

// GetByID resolves a conversation for the boundary layer.
func (s *LifecycleService) GetByID(ctx context.Context, conversationID uuid.UUID) (domain.Conversation, error) {
	return s.conversations.GetByID(ctx, conversationID)
}

// appendNotice persists a message and updates the conversation bookkeeping
// inside the caller's transaction scope.
func appendNotice(ctx context.Context, convRepo repository.ConversationRepository, msgRepo repository.MessageRepository, conv domain.Conversation, sender uuid.UUID, kind domain.MessageKind, text string, options []string, directedAt domain.Side) (domain.Message, error) {
	msg := domain.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       sender,
		Kind:           kind,
		Content:        text,
		Options:        options,
		SentAt:         time.Now(),
	}
	if err := msgRepo.Create(ctx, &msg); err != nil {
		return domain.Message{}, err
	}
	if err := convRepo.RecordMessage(ctx, conv.ID, msg.SentAt, directedAt); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}
