package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 * 1024

	eventTimeout = 10 * time.Second
)

// EventHandler processes one inbound event for client.
type EventHandler func(ctx context.Context, client *Client, evt Event)

// NewUpgrader returns an upgrader delegating origin checks to allow.
func NewUpgrader(allow func(origin string) bool) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return allow == nil || allow(r.Header.Get("Origin"))
		},
	}
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	UserID    string
	AcademyID string

	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	handler EventHandler
	logger  *zap.Logger
}

// Attach registers a client for conn with the hub and starts its pumps. The
// client is registered before Attach returns, so its first event can already
// join rooms. When the hub has stopped, conn is closed and Attach returns nil.
func Attach(hub *Hub, conn *websocket.Conn, userID, academyID string, handler EventHandler, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := &Client{
		UserID:    userID,
		AcademyID: academyID,
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 256),
		handler:   handler,
		logger:    logger.With(zap.String("user_id", userID)),
	}
	if !hub.add(client) {
		client.logger.Debug("hub stopped, refusing client")
		conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()
	return client
}

// Send delivers msg to this client only. It reports false when the client is gone
// or its buffer is full.
func (c *Client) Send(msg Outbound) bool {
	payload, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("marshal frame", zap.Error(err))
		return false
	}
	return c.hub.deliver(c, payload)
}

// Join subscribes the client to roomID on its hub.
func (c *Client) Join(roomID string) {
	c.hub.Join(c, roomID)
}

func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("unexpected websocket close", zap.Error(err))
			}
			return
		}

		var evt Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			c.Send(Outbound{Type: "error", Error: "malformed event"})
			continue
		}
		if c.handler == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		c.handler(ctx, c, evt)
		cancel()
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
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
