package websocket

import (
	"context"
	"testing"

	"livedesk/internal/domain"
	"livedesk/internal/events"
	livedesk_errors "livedesk/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConversationSource struct {
	items map[uuid.UUID]domain.Conversation
}

func (s *stubConversationSource) GetByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	c, ok := s.items[id]
	if !ok {
		return domain.Conversation{}, livedesk_errors.ErrNotFound
	}
	return c, nil
}

func TestAuthorizerDeskChannels(t *testing.T) {
	auth := NewChannelAuthorizer(&stubConversationSource{})
	agentID := uuid.New()
	customerID := uuid.New()

	for _, channel := range []string{events.ChannelAgents, events.ChannelQueue, events.ChannelListChanged} {
		ok, err := auth.CanSubscribe(context.Background(), agentID, domain.UserRoleAgent, channel)
		require.NoError(t, err)
		assert.True(t, ok, channel)

		ok, err = auth.CanSubscribe(context.Background(), customerID, domain.UserRoleCustomer, channel)
		require.NoError(t, err)
		assert.False(t, ok, channel)
	}
}

func TestAuthorizerCustomerChannels(t *testing.T) {
	auth := NewChannelAuthorizer(&stubConversationSource{})
	customerID := uuid.New()
	otherID := uuid.New()

	ok, err := auth.CanSubscribe(context.Background(), customerID, domain.UserRoleCustomer, events.CustomerChannel(customerID))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = auth.CanSubscribe(context.Background(), customerID, domain.UserRoleCustomer, events.CustomerChannel(otherID))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthorizerConversationChannels(t *testing.T) {
	customerID := uuid.New()
	convID := uuid.New()
	source := &stubConversationSource{items: map[uuid.UUID]domain.Conversation{
		convID: {ID: convID, CustomerID: customerID, Phase: domain.PhaseOpen},
	}}
	auth := NewChannelAuthorizer(source)

	// Owner may join; a different customer may not; agents always may.
	ok, err := auth.CanSubscribe(context.Background(), customerID, domain.UserRoleCustomer, events.ConversationChannel(convID))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = auth.CanSubscribe(context.Background(), uuid.New(), domain.UserRoleCustomer, events.ConversationChannel(convID))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = auth.CanSubscribe(context.Background(), uuid.New(), domain.UserRoleAgent, events.ConversationChannel(convID))
	require.NoError(t, err)
	assert.True(t, ok)

	// Unknown conversation and unknown namespaces are denied.
	ok, err = auth.CanSubscribe(context.Background(), customerID, domain.UserRoleCustomer, events.ConversationChannel(uuid.New()))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = auth.CanSubscribe(context.Background(), customerID, domain.UserRoleCustomer, "channel:system:internal")
	require.NoError(t, err)
	assert.False(t, ok)
}
