package httpdto

import (
	"time"

	"livedesk/internal/domain"
)

type SendMessageRequest struct {
	Content       string   `json:"content"`
	Kind          string   `json:"kind,omitempty"`
	AttachmentURL *string  `json:"attachment_url,omitempty"`
	Options       []string `json:"options,omitempty"`
}

// MessageView is the read shape of a message. IsAgent is derived from the
// sender relative to the conversation's customer and never stored.
type MessageView struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	Kind           string     `json:"kind"`
	Content        string     `json:"content"`
	AttachmentURL  *string    `json:"attachment_url,omitempty"`
	Options        []string   `json:"options,omitempty"`
	IsAgent        bool       `json:"is_agent"`
	SentAt         time.Time  `json:"sent_at"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}

func NewMessageView(conv domain.Conversation, m domain.Message) MessageView {
	return MessageView{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		SenderID:       m.SenderID.String(),
		Kind:           string(m.Kind),
		Content:        m.Content,
		AttachmentURL:  m.AttachmentURL,
		Options:        m.Options,
		IsAgent:        conv.SenderSide(m.SenderID) == domain.SideAgent,
		SentAt:         m.SentAt,
		ReadAt:         m.ReadAt,
	}
}

func NewMessageViews(conv domain.Conversation, ms []domain.Message) []MessageView {
	views := make([]MessageView, 0, len(ms))
	for _, m := range ms {
		views = append(views, NewMessageView(conv, m))
	}
	return views
}
