package repository

import (
	"context"
	"time"

	"livedesk/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, m *domain.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *PostgresMessageRepository) ListChronological(ctx context.Context, conversationID uuid.UUID, limit int) ([]domain.Message, error) {
	return r.list(ctx, conversationID, limit, "sent_at ASC, id ASC")
}

func (r *PostgresMessageRepository) ListLatestFirst(ctx context.Context, conversationID uuid.UUID, limit int) ([]domain.Message, error) {
	return r.list(ctx, conversationID, limit, "sent_at DESC, id DESC")
}

func (r *PostgresMessageRepository) list(ctx context.Context, conversationID uuid.UUID, limit int, order string) ([]domain.Message, error) {
	var messages []domain.Message
	q := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order(order)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *PostgresMessageRepository) MarkRead(ctx context.Context, conversationID uuid.UUID, reader domain.Side, customerID uuid.UUID, at time.Time) error {
	q := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("conversation_id = ? AND read_at IS NULL", conversationID)
	if reader == domain.SideCustomer {
		// Everything not sent by the customer is directed at the customer.
		q = q.Where("sender_id <> ?", customerID)
	} else {
		q = q.Where("sender_id = ?", customerID)
	}
	return q.Update("read_at", at).Error
}
