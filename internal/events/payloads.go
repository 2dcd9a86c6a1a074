package events

import "livedesk/internal/domain"

// MessagePayload is the broadcast shape of a message. IsAgent is derived at
// publish/read time and never stored.
type MessagePayload struct {
	domain.Message
	IsAgent bool `json:"is_agent"`
}

func NewMessagePayload(conv domain.Conversation, msg domain.Message) MessagePayload {
	return MessagePayload{
		Message: msg,
		IsAgent: conv.SenderSide(msg.SenderID) == domain.SideAgent,
	}
}
