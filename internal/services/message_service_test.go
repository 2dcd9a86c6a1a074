package services

import (
	"context"
	"testing"

	"livedesk/internal/domain"
	"livedesk/internal/events"
	livedesk_errors "livedesk/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openConversation is the common fixture: a customer thread with an agent
// already attached. Returns the conversation after assignment, which
// carries one unread system notice for the customer.
func openConversation(t *testing.T, env *testEnv, customer, agent domain.User) domain.Conversation {
	t.Helper()
	conv, err := env.lifecycle.CreateOrGet(context.Background(), customer.ID, "")
	require.NoError(t, err)
	conv, err = env.lifecycle.Assign(context.Background(), conv.ID, agent.ID)
	require.NoError(t, err)
	return conv
}

func TestSendRejectsClosedConversation(t *testing.T) {
	customer := newCustomer("ada")
	agent := newAgent("grace")
	env := newTestEnv(customer, agent)
	conv := openConversation(t, env, customer, agent)

	_, err := env.lifecycle.Close(context.Background(), conv.ID, agent.ID)
	require.NoError(t, err)

	_, err = env.msgs.Send(context.Background(), SendInput{
		ConversationID: conv.ID,
		SenderID:       customer.ID,
		Content:        "hello?",
	})
	assert.ErrorIs(t, err, livedesk_errors.ErrConversationClosed)
}

func TestSendCustomerBlockedWhilePending(t *testing.T) {
	customer := newCustomer("ada")
	env := newTestEnv(customer)

	conv, err := env.lifecycle.CreateOrGet(context.Background(), customer.ID, "")
	require.NoError(t, err)

	_, err = env.msgs.Send(context.Background(), SendInput{
		ConversationID: conv.ID,
		SenderID:       customer.ID,
		Content:        "anyone there?",
	})
	assert.ErrorIs(t, err, livedesk_errors.ErrAwaitingAgent)
	assert.Empty(t, env.messages.all(conv.ID))
}

func TestSendResponderAllowedWhilePending(t *testing.T) {
	customer := newCustomer("ada")
	env := newTestEnv(customer)

	conv, err := env.lifecycle.CreateOrGet(context.Background(), customer.ID, "")
	require.NoError(t, err)

	msg, err := env.msgs.Send(context.Background(), SendInput{
		ConversationID: conv.ID,
		SenderID:       domain.ResponderUserID,
		Content:        "How can I help?",
		Kind:           domain.MessageKindAutomated,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MessageKindAutomated, msg.Kind)
	assert.Equal(t, 1, env.conversations.get(conv.ID).UnreadByCustomer)
}

func TestSendRejectsUnassignedAgent(t *testing.T) {
	customer := newCustomer("ada")
	agent := newAgent("grace")
	other := newAgent("alan")
	env := newTestEnv(customer, agent, other)
	conv := openConversation(t, env, customer, agent)

	_, err := env.msgs.Send(context.Background(), SendInput{
		ConversationID: conv.ID,
		SenderID:       other.ID,
		Content:        "let me jump in",
	})
	assert.ErrorIs(t, err, livedesk_errors.ErrNotAuthorized)
}

func TestSendRejectsEmptyContent(t *testing.T) {
	customer := newCustomer("ada")
	agent := newAgent("grace")
	env := newTestEnv(customer, agent)
	conv := openConversation(t, env, customer, agent)

	_, err := env.msgs.Send(context.Background(), SendInput{
		ConversationID: conv.ID,
		SenderID:       customer.ID,
		Content:        "   ",
	})
	assert.ErrorIs(t, err, livedesk_errors.ErrInvalidInput)
}

func TestSendRejectsReservedKindsFromHumans(t *testing.T) {
	customer := newCustomer("ada")
	agent := newAgent("grace")
	env := newTestEnv(customer, agent)
	conv := openConversation(t, env, customer, agent)

	for _, kind := range []domain.MessageKind{domain.MessageKindSystem, domain.MessageKindAutomated} {
		_, err := env.msgs.Send(context.Background(), SendInput{
			ConversationID: conv.ID,
			SenderID:       customer.ID,
			Content:        "pretending",
			Kind:           kind,
		})
		assert.ErrorIs(t, err, livedesk_errors.ErrInvalidInput, string(kind))

		_, err = env.msgs.Send(context.Background(), SendInput{
			ConversationID: conv.ID,
			SenderID:       agent.ID,
			Content:        "pretending",
			Kind:           kind,
		})
		assert.ErrorIs(t, err, livedesk_errors.ErrInvalidInput, string(kind))
	}

	// Only the assignment notice made it into the transcript.
	assert.Len(t, env.messages.all(conv.ID), 1)
}

func TestSendRejectsUnknownKind(t *testing.T) {
	customer := newCustomer("ada")
	agent := newAgent("grace")
	env := newTestEnv(customer, agent)
	conv := openConversation(t, env, customer, agent)

	_, err := env.msgs.Send(context.Background(), SendInput{
		ConversationID: conv.ID,
		SenderID:       customer.ID,
		Content:        "hello",
		Kind:           domain.MessageKind("BANANA"),
	})
	assert.ErrorIs(t, err, livedesk_errors.ErrInvalidInput)
	assert.Len(t, env.messages.all(conv.ID), 1)
}

func TestSendFileRequiresAttachment(t *testing.T) {
	customer := newCustomer("ada")
	agent := newAgent("grace")
	env := newTestEnv(customer, agent)
	conv := openConversation(t, env, customer, agent)

	_, err := env.msgs.Send(context.Background(), SendInput{
		ConversationID: conv.ID,
		SenderID:       customer.ID,
		Content:        "here you go",
		Kind:           domain.MessageKindFile,
	})
	assert.ErrorIs(t, err, livedesk_errors.ErrInvalidInput)

	url := "https://files.example.com/attachments/receipt.pdf"
	msg, err := env.msgs.Send(context.Background(), SendInput{
		ConversationID: conv.ID,
		SenderID:       customer.ID,
		Kind:           domain.MessageKindFile,
		AttachmentURL:  &url,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MessageKindFile, msg.Kind)
	require.NotNil(t, msg.AttachmentURL)
	assert.Equal(t, url, *msg.AttachmentURL)
}

func TestSendUpdatesUnreadCounters(t *testing.T) {
	customer := newCustomer("ada")
	agent := newAgent("grace")
	env := newTestEnv(customer, agent)
	conv := openConversation(t, env, customer, agent)

	_, err := env.msgs.Send(context.Background(), SendInput{
		ConversationID: conv.ID,
		SenderID:       customer.ID,
		Content:        "my printer is on fire",
	})
	require.NoError(t, err)

	_, err = env.msgs.Send(context.Background(), SendInput{
		ConversationID: conv.ID,
		SenderID:       agent.ID,
		Content:        "on it",
	})
	require.NoError(t, err)

	got := env.conversations.get(conv.ID)
	assert.Equal(t, 1, got.UnreadByAgent)
	// Assignment notice plus the agent reply.
	assert.Equal(t, 2, got.UnreadByCustomer)
	require.NotNil(t, got.LastMessageAt)
}

func TestSendBroadcastsAfterCommit(t *testing.T) {
	customer := newCustomer("ada")
	agent := newAgent("grace")
	env := newTestEnv(customer, agent)
	conv := openConversation(t, env, customer, agent)

	_, err := env.msgs.Send(context.Background(), SendInput{
		ConversationID: conv.ID,
		SenderID:       agent.ID,
		Content:        "hello",
	})
	require.NoError(t, err)

	channels := env.publisher.channelsFor(events.EventTypeMessageCreated)
	assert.Contains(t, channels, events.ConversationChannel(conv.ID))
	assert.Contains(t, channels, events.CustomerChannel(customer.ID))
	assert.Contains(t, channels, events.ChannelAgents)
}

func TestSendSurvivesBrokerFailure(t *testing.T) {
	customer := newCustomer("ada")
	agent := newAgent("grace")
	env := newTestEnv(customer, agent)
	conv := openConversation(t, env, customer, agent)

	env.publisher.fail = true

	msg, err := env.msgs.Send(context.Background(), SendInput{
		ConversationID: conv.ID,
		SenderID:       agent.ID,
		Content:        "still works",
	})
	require.NoError(t, err)

	all := env.messages.all(conv.ID)
	require.Len(t, all, 2)
	assert.Equal(t, msg.ID, all[1].ID)
}

func TestMarkReadResetsCounterAndStampsMessages(t *testing.T) {
	customer := newCustomer("ada")
	agent := newAgent("grace")
	env := newTestEnv(customer, agent)
	conv := openConversation(t, env, customer, agent)

	_, err := env.msgs.Send(context.Background(), SendInput{
		ConversationID: conv.ID,
		SenderID:       customer.ID,
		Content:        "question",
	})
	require.NoError(t, err)
	_, err = env.msgs.Send(context.Background(), SendInput{
		ConversationID: conv.ID,
		SenderID:       agent.ID,
		Content:        "answer",
	})
	require.NoError(t, err)

	require.NoError(t, env.msgs.MarkRead(context.Background(), conv.ID, customer.ID))

	got := env.conversations.get(conv.ID)
	assert.Equal(t, 0, got.UnreadByCustomer)
	assert.Equal(t, 1, got.UnreadByAgent)

	for _, m := range env.messages.all(conv.ID) {
		if m.SenderID == customer.ID {
			assert.Nil(t, m.ReadAt, "own messages stay untouched")
		} else {
			assert.NotNil(t, m.ReadAt, "counterpart messages get stamped")
		}
	}
}

func TestMarkReadAllowedOnClosedConversation(t *testing.T) {
	customer := newCustomer("ada")
	agent := newAgent("grace")
	env := newTestEnv(customer, agent)
	conv := openConversation(t, env, customer, agent)

	_, err := env.lifecycle.Close(context.Background(), conv.ID, agent.ID)
	require.NoError(t, err)

	require.NoError(t, env.msgs.MarkRead(context.Background(), conv.ID, customer.ID))
	assert.Equal(t, 0, env.conversations.get(conv.ID).UnreadByCustomer)
}

func TestListMessagesKeepsCommitOrder(t *testing.T) {
	customer := newCustomer("ada")
	agent := newAgent("grace")
	env := newTestEnv(customer, agent)
	conv := openConversation(t, env, customer, agent)

	contents := []string{"first", "second", "third"}
	for _, c := range contents {
		_, err := env.msgs.Send(context.Background(), SendInput{
			ConversationID: conv.ID,
			SenderID:       customer.ID,
			Content:        c,
		})
		require.NoError(t, err)
	}

	msgs, _, err := env.msgs.ListMessages(context.Background(), conv.ID, customer.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	for i, c := range contents {
		assert.Equal(t, c, msgs[i+1].Content)
	}
}

func TestListMessagesRejectsForeignCustomer(t *testing.T) {
	customer := newCustomer("ada")
	stranger := newCustomer("bob")
	agent := newAgent("grace")
	env := newTestEnv(customer, stranger, agent)
	conv := openConversation(t, env, customer, agent)

	ctx := WithUserContext(context.Background(), stranger.ID, domain.UserRoleCustomer)
	_, _, err := env.msgs.ListMessages(ctx, conv.ID, stranger.ID, 0)
	assert.ErrorIs(t, err, livedesk_errors.ErrNotAuthorized)
}
