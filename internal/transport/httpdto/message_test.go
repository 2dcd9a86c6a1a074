package httpdto

import (
	"testing"

	"livedesk/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMessageViewDerivesAgentFlag(t *testing.T) {
	customerID := uuid.New()
	agentID := uuid.New()
	conv := domain.Conversation{
		ID:         uuid.New(),
		CustomerID: customerID,
		AgentID:    &agentID,
		Phase:      domain.PhaseOpen,
	}

	cases := []struct {
		name    string
		sender  uuid.UUID
		isAgent bool
	}{
		{"customer", customerID, false},
		{"assigned agent", agentID, true},
		{"system actor", domain.SystemUserID, true},
		{"responder actor", domain.ResponderUserID, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			view := NewMessageView(conv, domain.Message{
				ID:             uuid.New(),
				ConversationID: conv.ID,
				SenderID:       tc.sender,
				Kind:           domain.MessageKindText,
				Content:        "hi",
			})
			assert.Equal(t, tc.isAgent, view.IsAgent)
		})
	}
}
