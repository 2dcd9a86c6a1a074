package websocket

import (
	"context"
	"testing"
	"time"

	"livedesk/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(role domain.UserRole) *Client {
	return &Client{
		ID:       uuid.NewString(),
		UserID:   uuid.New(),
		Role:     role,
		Send:     make(chan []byte, 8),
		channels: make(map[string]bool),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestHubBroadcastReachesSubscribersOnly(t *testing.T) {
	hub := startHub(t)

	subscribed := newTestClient(domain.UserRoleAgent)
	other := newTestClient(domain.UserRoleAgent)

	hub.Register(subscribed)
	hub.Register(other)
	hub.Subscribe(subscribed, "channel:agents")

	waitFor(t, func() bool { return subscribed.IsSubscribed("channel:agents") })

	hub.Broadcast("channel:agents", []byte("ping"))

	select {
	case msg := <-subscribed.Send:
		assert.Equal(t, "ping", string(msg))
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive broadcast")
	}

	select {
	case <-other.Send:
		t.Fatal("unsubscribed client received broadcast")
	default:
	}
}

func TestHubUnregisterDropsSubscriptions(t *testing.T) {
	hub := startHub(t)

	client := newTestClient(domain.UserRoleCustomer)
	hub.Register(client)
	hub.Subscribe(client, "channel:queue")
	waitFor(t, func() bool { return client.IsSubscribed("channel:queue") })

	hub.Unregister(client)
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	// Send channel is closed by the hub on unregister.
	_, open := <-client.Send
	require.False(t, open)

	// Broadcasting afterwards must not panic or deliver.
	hub.Broadcast("channel:queue", []byte("ping"))
}

func TestHubSlowClientDropsFrames(t *testing.T) {
	hub := startHub(t)

	client := newTestClient(domain.UserRoleAgent)
	client.Send = make(chan []byte, 1)
	hub.Register(client)
	hub.Subscribe(client, "channel:agents")
	waitFor(t, func() bool { return client.IsSubscribed("channel:agents") })

	hub.Broadcast("channel:agents", []byte("one"))
	hub.Broadcast("channel:agents", []byte("two"))

	assert.Equal(t, "one", string(<-client.Send))
	select {
	case <-client.Send:
		t.Fatal("overflow frame should have been dropped")
	default:
	}
}
