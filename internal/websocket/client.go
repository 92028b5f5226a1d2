package websocket

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Ping interval. Pings only detect dead peers through failed writes;
	// there is no read deadline, so idle connections are kept.
	pingPeriod = 50 * time.Second

	maxMessageSize = 64 * 1024

	// Outbound queue length; a client this far behind is evicted.
	sendQueueSize = 256
)

// MessageHandler receives the text of every inbound frame.
type MessageHandler interface {
	HandleMessage(ctx context.Context, client *Client, text string) error
}

type Client struct {
	ID       uuid.UUID
	Identity string
	Conn     *websocket.Conn

	// Send is written and closed only by the Hub.
	Send chan []byte
	Hub  *Hub

	state atomic.Int32
}

// NewClient wraps an upgraded connection whose token has been accepted.
func NewClient(hub *Hub, conn *websocket.Conn, identity string) *Client {
	c := &Client{
		ID:       uuid.New(),
		Identity: identity,
		Conn:     conn,
		Send:     make(chan []byte, sendQueueSize),
		Hub:      hub,
	}
	c.setState(StateAuthenticated)
	return c
}

func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

// Start registers the client and launches its pumps. On success the client
// is Streaming; on failure it is Closed and the connection is shut.
func (c *Client) Start(handler MessageHandler) error {
	if err := c.Hub.Register(c); err != nil {
		c.setState(StateClosed)
		c.Conn.Close()
		return err
	}
	c.setState(StateStreaming)

	go c.WritePump()
	go c.ReadPump(handler)
	return nil
}

// ReadPump reads frames until the peer goes away, then unregisters.
// The session token is not checked again while streaming.
func (c *Client) ReadPump(handler MessageHandler) {
	logger := c.Hub.logger.With("identity", c.Identity, "id", c.ID)
	defer func() {
		c.setState(StateClosed)
		c.Hub.remove(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logger.Warn(c.Hub.ctx, "websocket read error", "error", err)
			}
			return
		}

		text := ParseFrame(data)
		if handler == nil {
			continue
		}
		if err := handler.HandleMessage(c.Hub.ctx, c, text); err != nil {
			logger.Error(c.Hub.ctx, "error handling message", "error", err)
		}
	}
}

// WritePump writes queued envelopes to the peer. It returns when the Hub
// closes Send or a write fails, closing the connection either way.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
