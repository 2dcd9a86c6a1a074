package services

import (
	"context"

	"livedesk/internal/domain"

	"github.com/google/uuid"
)

type ctxKey string

const (
	userIDKey   ctxKey = "auth_user_id"
	userRoleKey ctxKey = "auth_user_role"
)

func WithUserContext(ctx context.Context, userID uuid.UUID, role domain.UserRole) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, userRoleKey, role)
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

func RoleFromContext(ctx context.Context) (domain.UserRole, bool) {
	role, ok := ctx.Value(userRoleKey).(domain.UserRole)
	return role, ok
}
