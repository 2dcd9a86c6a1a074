package services

import (
	"context"

	"livedesk/internal/domain"
	"livedesk/internal/repository"
)

// QueueService exposes the waiting room: every PENDING conversation, oldest
// first, so agents pick up in arrival order.
type QueueService struct {
	conversations repository.ConversationRepository
}

func NewQueueService(conversations repository.ConversationRepository) *QueueService {
	return &QueueService{conversations: conversations}
}

func (s *QueueService) ListPending(ctx context.Context) ([]domain.Conversation, error) {
	return s.conversations.FindPendingOldestFirst(ctx)
}

func (s *QueueService) CountPending(ctx context.Context) (int64, error) {
	return s.conversations.CountPending(ctx)
}
