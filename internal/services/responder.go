package services

import (
	"context"
	"strings"

	"livedesk/internal/domain"
	livedesk_errors "livedesk/pkg/errors"

	"github.com/google/uuid"
)

// ResponderRule matches customer text by keyword and yields a canned reply.
// Rules are evaluated in order; the first match wins.
type ResponderRule struct {
	Keywords []string
	Reply    string
	Options  []string
	Escalate bool
}

// defaultMenu is offered when no rule matches.
var defaultMenu = ResponderRule{
	Reply: "I did not quite get that. Here is what I can help with:",
	Options: []string{
		"Billing and payments",
		"Delivery status",
		"Returns and refunds",
		"Talk to a human agent",
	},
}

func defaultRules() []ResponderRule {
	return []ResponderRule{
		{
			Keywords: []string{"human", "agent", "person", "representative"},
			Reply:    "Connecting you with a support agent. You are in the queue and the next available agent will join shortly.",
			Escalate: true,
		},
		{
			Keywords: []string{"billing", "payment", "invoice", "charge", "refund"},
			Reply:    "For billing questions, you can review your invoices under Account > Billing. Refunds are processed within 5 business days.",
			Options:  []string{"View invoices", "Request a refund", "Talk to a human agent"},
		},
		{
			Keywords: []string{"delivery", "shipping", "track", "order"},
			Reply:    "You can track your order in real time from the Orders page. Standard delivery takes 2-4 business days.",
			Options:  []string{"Track my order", "Change delivery address", "Talk to a human agent"},
		},
		{
			Keywords: []string{"password", "login", "sign in", "account"},
			Reply:    "If you cannot sign in, use the password reset link on the login page. Reset emails can take a couple of minutes to arrive.",
			Options:  []string{"Reset password", "Talk to a human agent"},
		},
		{
			Keywords: []string{"hello", "hi", "hey"},
			Reply:    "Hello! How can I help you today?",
			Options: []string{
				"Billing and payments",
				"Delivery status",
				"Returns and refunds",
				"Talk to a human agent",
			},
		},
	}
}

// ResponderReply is what the responder decided to say.
type ResponderReply struct {
	Message   domain.Message `json:"message"`
	Escalated bool           `json:"escalated"`
}

// ResponderService is the scripted first line of support. It answers
// customer text with canned replies while the conversation is PENDING and
// hands over to the queue when the customer asks for a human. Replies go
// through the regular message path as AUTOMATED messages from the reserved
// responder actor, so gating and counters apply as usual.
type ResponderService struct {
	messages  *MessageService
	lifecycle *LifecycleService
	rules     []ResponderRule
}

func NewResponderService(messages *MessageService, lifecycle *LifecycleService) *ResponderService {
	return &ResponderService{
		messages:  messages,
		lifecycle: lifecycle,
		rules:     defaultRules(),
	}
}

// Match finds the first rule whose keyword appears in the text. Matching is
// case-insensitive substring search. Falls back to the menu rule.
func (s *ResponderService) Match(text string) ResponderRule {
	lowered := strings.ToLower(text)
	for _, rule := range s.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lowered, kw) {
				return rule
			}
		}
	}
	return defaultMenu
}

// Respond records the customer's text and the matched canned reply in the
// conversation. Escalation is implicit: a PENDING conversation is already in
// the agent queue, so the escalation rule only changes the wording.
func (s *ResponderService) Respond(ctx context.Context, conversationID, customerID uuid.UUID, text string) (ResponderReply, error) {
	if strings.TrimSpace(text) == "" {
		return ResponderReply{}, livedesk_errors.ErrInvalidInput
	}

	conv, err := s.lifecycle.GetByID(ctx, conversationID)
	if err != nil {
		return ResponderReply{}, err
	}
	if conv.CustomerID != customerID {
		return ResponderReply{}, livedesk_errors.ErrNotAuthorized
	}
	if conv.Phase == domain.PhaseClosed {
		return ResponderReply{}, livedesk_errors.ErrConversationClosed
	}
	if conv.Phase == domain.PhaseOpen {
		// An agent is present; the responder stays out of the way.
		return ResponderReply{}, livedesk_errors.ErrInvalidInput
	}

	rule := s.Match(text)

	reply, err := s.messages.Send(ctx, SendInput{
		ConversationID: conversationID,
		SenderID:       domain.ResponderUserID,
		Content:        rule.Reply,
		Kind:           domain.MessageKindAutomated,
		Options:        rule.Options,
	})
	if err != nil {
		return ResponderReply{}, err
	}

	return ResponderReply{Message: reply, Escalated: rule.Escalate}, nil
}
