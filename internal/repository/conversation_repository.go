package repository

import (
	"context"
	"errors"
	"time"

	"livedesk/internal/domain"
	livedesk_errors "livedesk/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &PostgresConversationRepository{db: db}
}

func (r *PostgresConversationRepository) Create(ctx context.Context, c *domain.Conversation) error {
	res := r.db.WithContext(ctx).Create(c)
	if res.Error != nil {
		// The partial unique index on (customer_id) for active phases is
		// the per-customer serialization point.
		if isUniqueViolation(res.Error) || errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return livedesk_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	var c domain.Conversation
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Conversation{}, livedesk_errors.ErrNotFound
		}
		return domain.Conversation{}, err
	}
	return c, nil
}

func (r *PostgresConversationRepository) FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) (domain.Conversation, error) {
	var c domain.Conversation
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND phase IN ?", customerID, []domain.Phase{domain.PhasePending, domain.PhaseOpen}).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Conversation{}, livedesk_errors.ErrNotFound
		}
		return domain.Conversation{}, err
	}
	return c, nil
}

func (r *PostgresConversationRepository) FindOpenByAgent(ctx context.Context, agentID uuid.UUID) (domain.Conversation, error) {
	var c domain.Conversation
	err := r.db.WithContext(ctx).
		Where("agent_id = ? AND phase = ?", agentID, domain.PhaseOpen).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Conversation{}, livedesk_errors.ErrNotFound
		}
		return domain.Conversation{}, err
	}
	return c, nil
}

func (r *PostgresConversationRepository) FindPendingOldestFirst(ctx context.Context) ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	err := r.db.WithContext(ctx).
		Where("phase = ? AND agent_id IS NULL", domain.PhasePending).
		Order("created_at ASC").
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

func (r *PostgresConversationRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("phase = ? AND agent_id IS NULL", domain.PhasePending).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresConversationRepository) UpdateSubject(ctx context.Context, id uuid.UUID, subject string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ? AND phase = ?", id, domain.PhasePending).
		Updates(map[string]interface{}{
			"subject":    subject,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return livedesk_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresConversationRepository) Assign(ctx context.Context, id, agentID uuid.UUID, fromPhase domain.Phase, fromAgent *uuid.UUID) error {
	q := r.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ? AND phase = ?", id, fromPhase)
	if fromAgent == nil {
		q = q.Where("agent_id IS NULL")
	} else {
		q = q.Where("agent_id = ?", *fromAgent)
	}

	res := q.Updates(map[string]interface{}{
		"agent_id":   agentID,
		"phase":      domain.PhaseOpen,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		// The partial unique index on (agent_id) for OPEN rows enforces the
		// one-open-conversation-per-agent rule at commit time.
		if isUniqueViolation(res.Error) {
			return livedesk_errors.ErrAgentBusy
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return livedesk_errors.ErrAlreadyAssigned
	}
	return nil
}

func (r *PostgresConversationRepository) Close(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ? AND phase IN ?", id, []domain.Phase{domain.PhasePending, domain.PhaseOpen}).
		Updates(map[string]interface{}{
			"phase":      domain.PhaseClosed,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return livedesk_errors.ErrConversationClosed
	}
	return nil
}

func (r *PostgresConversationRepository) Requeue(ctx context.Context, id, agentID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ? AND phase = ? AND agent_id = ?", id, domain.PhaseOpen, agentID).
		Updates(map[string]interface{}{
			"phase":      domain.PhasePending,
			"agent_id":   nil,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return livedesk_errors.ErrAlreadyAssigned
	}
	return nil
}

func (r *PostgresConversationRepository) RecordMessage(ctx context.Context, id uuid.UUID, at time.Time, unreadFor domain.Side) error {
	counter := "unread_by_agent"
	if unreadFor == domain.SideCustomer {
		counter = "unread_by_customer"
	}
	res := r.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_message_at": at,
			counter:           gorm.Expr(counter+" + 1"),
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return livedesk_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresConversationRepository) ResetUnread(ctx context.Context, id uuid.UUID, side domain.Side) error {
	counter := "unread_by_agent"
	if side == domain.SideCustomer {
		counter = "unread_by_customer"
	}
	res := r.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", id).
		Update(counter, 0)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return livedesk_errors.ErrNotFound
	}
	return nil
}
