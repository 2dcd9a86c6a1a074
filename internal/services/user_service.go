package services

import (
	"context"

	"livedesk/internal/domain"
	"livedesk/internal/repository"

	"github.com/google/uuid"
)

type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// SetAway toggles agent availability without touching any held conversation.
func (s *UserService) SetAway(ctx context.Context, id uuid.UUID, away bool) error {
	return s.users.SetActive(ctx, id, !away)
}
