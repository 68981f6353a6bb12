package ws

import (
	"encoding/json"
	"time"

	"collabcode/internal/models"
	"collabcode/pkg/logger"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	sendBufferSize = 256

	// Inbound events per second per connection, with a small burst.
	inboundRate  = 10
	inboundBurst = 20
)

type Client struct {
	registry *Registry
	router   *Router
	conn     *websocket.Conn
	send     chan []byte
	session  *Session
	limiter  *rate.Limiter
}

func NewClient(registry *Registry, router *Router, conn *websocket.Conn, session *Session) *Client {
	return &Client{
		registry: registry,
		router:   router,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		session:  session,
		limiter:  rate.NewLimiter(rate.Limit(inboundRate), inboundBurst),
	}
}

func (c *Client) Session() *Session {
	return c.session
}

func (c *Client) ReadPump() {
	defer func() {
		c.registry.Leave(c.session.RoomID, c)
		c.conn.Close()
		logger.Info("User disconnected: %s from project %s", c.session.Identity.Email, c.session.RoomID)
	}()

	// Set read deadline and pong handler for connection health
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error: %v", err)
			}
			break
		}

		if !c.limiter.Allow() {
			logger.Warn("Rate limit exceeded for %s in project %s", c.session.Identity.Email, c.session.RoomID)
			continue
		}

		var ev models.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			logger.Error("Error decoding event from %s: %v", c.session.Identity.Email, err)
			continue
		}

		switch ev.Type {
		case models.EventProjectMessage:
			c.router.HandleChat(c.session, ev)
		case models.EventDeleteMessage:
			c.router.HandleDelete(c.session, ev)
		default:
			logger.Debug("Unknown event type %q from %s", ev.Type, c.session.Identity.Email)
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Error("Write error: %v", err)
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
