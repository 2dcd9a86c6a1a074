package websocket

import (
	"context"
	"strings"

	"livedesk/internal/domain"
	"livedesk/internal/events"

	"github.com/google/uuid"
)

// ConversationSource is the slice of the repository the authorizer needs.
type ConversationSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error)
}

// ChannelAuthorizer decides which broadcast channels a connection may join.
// Agents see the shared desk channels and any conversation; customers see
// only their own channel and their own conversations.
type ChannelAuthorizer struct {
	conversations ConversationSource
}

func NewChannelAuthorizer(conversations ConversationSource) *ChannelAuthorizer {
	return &ChannelAuthorizer{conversations: conversations}
}

func (a *ChannelAuthorizer) CanSubscribe(ctx context.Context, userID uuid.UUID, role domain.UserRole, channel string) (bool, error) {
	isAgent := role == domain.UserRoleAgent || role == domain.UserRoleAdmin

	switch channel {
	case events.ChannelAgents, events.ChannelQueue, events.ChannelListChanged:
		return isAgent, nil
	}

	if strings.HasPrefix(channel, events.ChannelPrefixCustomer) {
		return channel == events.CustomerChannel(userID), nil
	}

	if strings.HasPrefix(channel, events.ChannelPrefixConversation) {
		if isAgent {
			return true, nil
		}
		convID, err := uuid.Parse(strings.TrimPrefix(channel, events.ChannelPrefixConversation))
		if err != nil {
			return false, nil
		}
		conv, err := a.conversations.GetByID(ctx, convID)
		if err != nil {
			return false, nil
		}
		return conv.CustomerID == userID, nil
	}

	return false, nil
}
