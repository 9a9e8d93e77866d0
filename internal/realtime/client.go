package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/venturelink/backend/internal/auth"
	"github.com/venturelink/backend/internal/redisc"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client is one authenticated connection. UserID and Role come from the
// handshake token and never change for the connection's lifetime.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	UserID string
	Role   string
	send   chan []byte
}

func ServeWS(hub *Hub, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		claims, err := auth.ValidateToken(token, jwtSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", "error", err)
			return
		}

		client := &Client{
			hub:    hub,
			conn:   conn,
			UserID: claims.UserID,
			Role:   claims.Role,
			send:   make(chan []byte, 256),
		}

		hub.register <- client
		go client.writePump()
		go client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		if c.hub.redis != nil {
			if err := redisc.RefreshPresence(c.hub.redis, c.UserID); err != nil {
				slog.Warn("failed to refresh presence ttl", "error", err, "user_id", c.UserID)
			}
		}
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("ws read error", "error", err, "user_id", c.UserID)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg WSMessage) {
	switch msg.Type {
	case TypeSendMessage:
		var payload SendMessagePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return
		}
		HandleSendMessage(c, payload)
	case TypeMarkAsRead:
		var payload MarkAsReadPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return
		}
		HandleMarkAsRead(c, payload)
	case TypeTyping:
		var payload TypingPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return
		}
		HandleTyping(c, payload)
	case TypeInitiateCall:
		var payload InitiateCallPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return
		}
		HandleInitiateCall(c, payload)
	case TypeAcceptCall:
		var payload CallPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return
		}
		HandleAcceptCall(c, payload)
	case TypeRejectCall:
		var payload CallPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return
		}
		HandleRejectCall(c, payload)
	case TypeEndCall:
		var payload CallPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return
		}
		HandleEndCall(c, payload)
	case TypeWebRTCSignal:
		var payload SignalPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return
		}
		HandleSignal(c, payload)
	}
}

// trySend queues data on this connection without blocking the read pump.
// The hub lock guarantees the channel cannot be closed mid-send; a replaced
// connection whose read pump is still draining drops the event instead.
func (c *Client) trySend(data []byte) {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.hub.clients[c.UserID] != c {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func sendError(c *Client, eventType string, message string) {
	data, err := NewWSMessage(eventType, ErrorPayload{Message: message})
	if err != nil {
		return
	}
	c.trySend(data)
}
