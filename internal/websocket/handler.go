package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"livedesk/internal/domain"
	"livedesk/internal/events"
	"livedesk/internal/services"
	"livedesk/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const readDeadline = 60 * time.Second

// clientFrame is the only inbound frame the server understands.
// {"action":"subscribe","channel":"channel:conversation:<id>"}
type clientFrame struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
}

type serverFrame struct {
	Type    string `json:"type"`
	Channel string `json:"channel,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Handler struct {
	auth       *services.AuthService
	hub        *Hub
	authorizer *ChannelAuthorizer
}

func NewHandler(auth *services.AuthService, hub *Hub, authorizer *ChannelAuthorizer) *Handler {
	return &Handler{auth: auth, hub: hub, authorizer: authorizer}
}

// Connect upgrades the request and serves the connection until it drops.
// Browsers cannot set Authorization headers on websocket dials, so the
// access token travels as a query parameter.
func (h *Handler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	claims, err := h.auth.ParseAccessToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	role := domain.UserRole(claims.Role)

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn, userID, role)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.hub.Register(client)
	go client.WriteLoop(ctx)

	h.autoSubscribe(client)

	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
		h.handleFrame(c.Request.Context(), client, raw)
	}

	h.hub.Unregister(client)
}

// autoSubscribe wires the channels every connection of that role wants
// without a handshake round trip.
func (h *Handler) autoSubscribe(client *Client) {
	if client.Role == domain.UserRoleAgent || client.Role == domain.UserRoleAdmin {
		h.hub.Subscribe(client, events.ChannelAgents)
		h.hub.Subscribe(client, events.ChannelQueue)
		h.hub.Subscribe(client, events.ChannelListChanged)
		return
	}
	h.hub.Subscribe(client, events.CustomerChannel(client.UserID))
}

func (h *Handler) handleFrame(ctx context.Context, client *Client, raw []byte) {
	var frame clientFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		h.reply(client, serverFrame{Type: "error", Error: "malformed frame"})
		return
	}

	switch frame.Action {
	case "subscribe":
		ok, err := h.authorizer.CanSubscribe(ctx, client.UserID, client.Role, frame.Channel)
		if err != nil || !ok {
			h.reply(client, serverFrame{Type: "error", Channel: frame.Channel, Error: "subscription denied"})
			return
		}
		h.hub.Subscribe(client, frame.Channel)
		h.reply(client, serverFrame{Type: "subscribed", Channel: frame.Channel})
	case "unsubscribe":
		h.hub.Unsubscribe(client, frame.Channel)
		h.reply(client, serverFrame{Type: "unsubscribed", Channel: frame.Channel})
	default:
		h.reply(client, serverFrame{Type: "error", Error: "unknown action"})
	}
}

func (h *Handler) reply(client *Client, frame serverFrame) {
	if payload, err := json.Marshal(frame); err == nil {
		client.SendMessage(payload)
	}
}
