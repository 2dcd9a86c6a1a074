package httpdto

import (
	"time"

	"livedesk/internal/domain"
)

type StartConversationRequest struct {
	Subject string `json:"subject,omitempty"`
}

type AssignRequest struct {
	// AgentID is optional; admins may assign on behalf of another agent.
	AgentID string `json:"agent_id,omitempty"`
}

type AssistRequest struct {
	Text string `json:"text" binding:"required"`
}

type ConversationView struct {
	ID               string     `json:"id"`
	CustomerID       string     `json:"customer_id"`
	AgentID          *string    `json:"agent_id,omitempty"`
	Phase            string     `json:"phase"`
	Subject          *string    `json:"subject,omitempty"`
	LastMessageAt    *time.Time `json:"last_message_at,omitempty"`
	UnreadByCustomer int        `json:"unread_by_customer"`
	UnreadByAgent    int        `json:"unread_by_agent"`
	CreatedAt        time.Time  `json:"created_at"`
}

func NewConversationView(c domain.Conversation) ConversationView {
	view := ConversationView{
		ID:               c.ID.String(),
		CustomerID:       c.CustomerID.String(),
		Phase:            string(c.Phase),
		Subject:          c.Subject,
		LastMessageAt:    c.LastMessageAt,
		UnreadByCustomer: c.UnreadByCustomer,
		UnreadByAgent:    c.UnreadByAgent,
		CreatedAt:        c.CreatedAt,
	}
	if c.AgentID != nil {
		id := c.AgentID.String()
		view.AgentID = &id
	}
	return view
}

func NewConversationViews(cs []domain.Conversation) []ConversationView {
	views := make([]ConversationView, 0, len(cs))
	for _, c := range cs {
		views = append(views, NewConversationView(c))
	}
	return views
}
