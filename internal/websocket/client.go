package websocket

import (
	"context"
	"sync"
	"time"

	"livedesk/internal/domain"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// Client is one live websocket connection of an authenticated user. A user
// may hold several connections (browser tabs); each gets its own Client.
type Client struct {
	ID     string
	UserID uuid.UUID
	Role   domain.UserRole
	Conn   *websocket.Conn
	Send   chan []byte

	channels map[string]bool
	mu       sync.RWMutex
}

func NewClient(conn *websocket.Conn, userID uuid.UUID, role domain.UserRole) *Client {
	return &Client{
		ID:       uuid.NewString(),
		UserID:   userID,
		Role:     role,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		channels: make(map[string]bool),
	}
}

func (c *Client) trackSubscribe(channel string) {
	c.mu.Lock()
	c.channels[channel] = true
	c.mu.Unlock()
}

func (c *Client) trackUnsubscribe(channel string) {
	c.mu.Lock()
	delete(c.channels, channel)
	c.mu.Unlock()
}

func (c *Client) IsSubscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channels[channel]
}

// WriteLoop drains Send onto the wire and keeps the connection alive with
// pings. Runs until the context is cancelled or Send is closed by the hub.
func (c *Client) WriteLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.close()
			return
		case msg, ok := <-c.Send:
			if !ok {
				c.close()
				return
			}
			c.mu.Lock()
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.Conn.WriteMessage(websocket.TextMessage, msg)
			c.mu.Unlock()
		case <-ticker.C:
			c.mu.Lock()
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.Conn.WriteMessage(websocket.PingMessage, nil)
			c.mu.Unlock()
		}
	}
}

func (c *Client) close() {
	c.mu.Lock()
	_ = c.Conn.Close()
	c.mu.Unlock()
}

// SendMessage enqueues a frame without blocking. A full buffer means the
// client is too slow and the frame is dropped.
func (c *Client) SendMessage(msg []byte) {
	select {
	case c.Send <- msg:
	default:
	}
}
