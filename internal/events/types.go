package events

import "github.com/google/uuid"

// Event types follow the format: domain.action
const (
	EventTypeMessageCreated = "message.created"
	EventTypeMessagesRead   = "message.read"

	EventTypeConversationCreated  = "conversation.created"
	EventTypeConversationAssigned = "conversation.assigned"
	EventTypeConversationClosed   = "conversation.closed"
	EventTypeConversationRequeued = "conversation.requeued"
	EventTypeConversationChanged  = "conversation.changed"
)

// Channel naming conventions. Agents watch the global channels; customers
// watch their own channel plus the channel of their conversation.
const (
	// ChannelAgents carries every message and lifecycle event, for the
	// agent dashboard.
	ChannelAgents = "channel:agents"

	// ChannelQueue signals a new entry in the pending backlog.
	ChannelQueue = "channel:queue"

	// ChannelListChanged is the out-of-band "conversation list changed"
	// signal. Carries no payload worth acting on; clients re-poll.
	ChannelListChanged = "channel:conversations:changed"

	ChannelPrefixConversation = "channel:conversation:"
	ChannelPrefixCustomer     = "channel:customer:"
)

func ConversationChannel(id uuid.UUID) string {
	return ChannelPrefixConversation + id.String()
}

func CustomerChannel(id uuid.UUID) string {
	return ChannelPrefixCustomer + id.String()
}
